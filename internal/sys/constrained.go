package sys

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Constrained is a value type whose typed values must satisfy a boolean expression over
// value, e.g. "value >= 0". Nil values are not checked.
type Constrained struct {
	Base    ValueType
	Check   string
	program *vm.Program
}

var _ ValueType = Constrained{}

// Constrain compiles the check expression and returns the base type constrained by it.
func Constrain(base ValueType, check string) (typ Constrained, err error) {
	program, compileErr := expr.Compile(check, expr.AsBool())
	if compileErr != nil {
		err = NewError("sys.invalidCheck", "check", check, "error", compileErr)
		return
	}
	typ = Constrained{Base: base, Check: check, program: program}
	return
}

func (c Constrained) TypeName() string {
	return TypeName(c.Base) + "|" + c.Check
}

func (c Constrained) Cast(raw any) (any, error)        { return c.Base.Cast(raw) }
func (c Constrained) Deserialize(raw any) (any, error) { return c.Base.Deserialize(raw) }
func (c Constrained) Serialize(value any) (any, error) { return c.Base.Serialize(value) }

func (c Constrained) AssertValid(value any) (err error) {
	err = c.Base.AssertValid(value)
	if err != nil || value == nil {
		return
	}
	out, runErr := expr.Run(c.program, map[string]any{"value": value})
	if runErr != nil {
		err = &ValidationError{Value: value, Reason: "must satisfy " + c.Check, Err: runErr}
		return
	}
	if ok, _ := out.(bool); !ok {
		err = &ValidationError{Value: value, Reason: "must satisfy " + c.Check}
	}
	return
}
