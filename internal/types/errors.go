package types

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    string
	Context map[string]any
}

func (err Error) Error() string {
	return fmt.Sprintf("%+v: %+v", err.Code, err.Context)
}

func NewError(code string, args ...any) Error {
	n := len(args)
	if n%2 != 0 {
		panic("Invalid error context args")
	}
	err := Error{Code: code, Context: make(map[string]any, n/2)}
	for i := 0; i < n; i += 2 {
		s, ok := args[i].(string)
		if !ok {
			panic("Invalid error context args")
		}
		err.Context[s] = args[i+1]
	}
	return err
}

// ErrFrozen is the kind of every ImmutabilityError.
var ErrFrozen = errors.New("can't modify frozen attribute set")

// ValidationError is returned when a value type rejects a typed value.
type ValidationError struct {
	// Name is the attribute name, if known.
	Name string
	// Value is the rejected value.
	Value any
	// Reason describes the violated constraint.
	Reason string
	// Err is the underlying failure, if any.
	Err error
}

func (err *ValidationError) Error() string {
	msg := err.Reason
	if msg == "" && err.Err != nil {
		msg = err.Err.Error()
	}
	if err.Name != "" {
		return fmt.Sprintf("invalid value for attribute '%s': %s", err.Name, msg)
	}
	return fmt.Sprintf("invalid value %v: %s", err.Value, msg)
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// MissingAttributeError is returned when writing a name that is not part of a set's schema.
type MissingAttributeError struct {
	Name string
}

func (err *MissingAttributeError) Error() string {
	return fmt.Sprintf("can't write unknown attribute '%s'", err.Name)
}

// ImmutabilityError is returned by mutating operations on a frozen attribute set.
type ImmutabilityError struct {
	// Op is the rejected operation.
	Op string
	// Name is the attribute the operation targeted.
	Name string
}

func (err *ImmutabilityError) Error() string {
	return fmt.Sprintf("%s %s: %s", err.Op, err.Name, ErrFrozen)
}

func (err *ImmutabilityError) Unwrap() error {
	return ErrFrozen
}
