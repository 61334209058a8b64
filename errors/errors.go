package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrSeparator separates an error message from the cause it wraps.
const ErrSeparator = " -- "

// Error is a string based error type allowing packages to define const error sentinels.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Is reports whether target is this error or an error wrapping it.
func (e Error) Is(target error) bool {
	return e.Error() == target.Error() || strings.HasPrefix(target.Error(), e.Error()+ErrSeparator)
}

// As sets target to this error if target is an Error.
func (e Error) As(target interface{}) bool {
	v := reflect.ValueOf(target).Elem()
	if v.Type().Name() == "Error" && v.CanSet() {
		v.SetString(string(e))
		return true
	}
	return false
}

// Wrap returns an error combining this error with the provided cause.
func (e Error) Wrap(err error) error {
	return wrappedError{cause: err, msg: string(e)}
}

type wrappedError struct {
	cause error
	msg   string
}

func (w wrappedError) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s%s%v", w.msg, ErrSeparator, w.cause)
	}
	return w.msg
}

func (w wrappedError) Is(target error) bool {
	return Error(w.msg).Is(target)
}

func (w wrappedError) As(target interface{}) bool {
	return Error(w.msg).As(target)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// The below are just wrappers as we are stealing the namespace of the errors package

// Is checks if err is equivalent to target
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As will set target to the first error in err's chain matching its type
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns a new error with the specified message.
func New(message string) error {
	return errors.New(message)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
