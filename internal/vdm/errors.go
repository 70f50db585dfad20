package vdm

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoSuchField is returned when a named field is neither declared nor
// present in the extension store.
var ErrNoSuchField = errors.New("no such field")

// ErrReservedName is returned when an extension field would shadow a type or
// version annotation.
var ErrReservedName = errors.New("reserved annotation name")

// CatalogError reports an entity type whose declaration cannot be mapped.
type CatalogError struct {
	Type   reflect.Type
	Field  string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("entity type %s, field %s: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("entity type %s: %s", e.Type, e.Reason)
}

// UnknownSubtypeError reports a type discriminator that names no registered
// subtype of the requested base type.
type UnknownSubtypeError struct {
	Discriminator string
	Base          string
}

func (e *UnknownSubtypeError) Error() string {
	return fmt.Sprintf("unknown subtype %q of %s", e.Discriminator, e.Base)
}

// InstantiationError reports an entity that could not be created while
// decoding. The codec logs it and continues with no value.
type InstantiationError struct {
	Type reflect.Type
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("cannot instantiate %s: %v", e.Type, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// SerializationError wraps a failure to encode an entity or build an update
// payload.
type SerializationError struct {
	Type     string
	Strategy string
	Err      error
}

func (e *SerializationError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("failed to serialize %s for %s: %v", e.Type, e.Strategy, e.Err)
	}
	return fmt.Sprintf("failed to serialize %s: %v", e.Type, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
