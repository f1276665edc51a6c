package goinject

import (
	"fmt"
	"reflect"
)

// ServiceIdentifier is the key bindings are registered and looked up with.
// It can be any comparable value: a string, a pointer used as a unique
// token, a *Class or a reflect.Type. Identifiers are compared with ==,
// never structurally.
type ServiceIdentifier = any

// TypeOf returns the identifier for T. It is the identifier the default
// metadata reader infers for unannotated constructor parameters.
func TypeOf[T any]() ServiceIdentifier {
	return reflect.TypeFor[T]()
}

func identifierString(serviceIdentifier ServiceIdentifier) string {
	switch id := serviceIdentifier.(type) {
	case string:
		return id
	case reflect.Type:
		return id.String()
	case *Class:
		return id.Name()
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprintf("%v", id)
	}
}

func typeName(instance any) string {
	if instance == nil {
		return "<nil>"
	}
	return reflect.TypeOf(instance).String()
}
