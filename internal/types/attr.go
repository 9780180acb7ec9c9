package types

// Column is a named, typed slot in a record schema.
type Column struct {
	// Name is the attribute name.
	Name string
	// Type converts values of the attribute.
	Type ValueType
}

// Columns returns columns for alternating name and type arguments, preserving their order.
func Columns(args ...any) (columns []Column) {
	n := len(args)
	if n%2 != 0 {
		panic("Invalid column args")
	}
	columns = make([]Column, 0, n/2)
	for i := 0; i < n; i += 2 {
		name, ok := args[i].(string)
		if !ok {
			panic("Invalid column args")
		}
		typ, ok := args[i+1].(ValueType)
		if !ok {
			panic("Invalid column args")
		}
		columns = append(columns, Column{Name: name, Type: typ})
	}
	return
}
