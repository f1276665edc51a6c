package goinject

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type BindingType int

const (
	BindingTypeInvalid BindingType = iota
	BindingTypeConstantValue
	BindingTypeConstructor
	BindingTypeDynamicValue
	BindingTypeFactory
	BindingTypeInstance
	BindingTypeProvider
)

func (t BindingType) String() string {
	switch t {
	case BindingTypeConstantValue:
		return "ConstantValue"
	case BindingTypeConstructor:
		return "Constructor"
	case BindingTypeDynamicValue:
		return "DynamicValue"
	case BindingTypeFactory:
		return "Factory"
	case BindingTypeInstance:
		return "Instance"
	case BindingTypeProvider:
		return "Provider"
	default:
		return "Invalid"
	}
}

// Constraint decides whether a binding may satisfy a request. It is
// evaluated while planning.
type Constraint func(request *Request) bool

// DynamicValue produces a value from the resolution context. Return
// Pending to produce it later.
type DynamicValue func(ctx *Context) (Result, error)

// FactoryFunc returns the factory handed to consumers, usually a function
// closing over ctx that resolves things on demand.
type FactoryFunc func(ctx *Context) (any, error)

// Provider produces a value asynchronously on every call.
type Provider func() *Deferred

type ProviderFunc func(ctx *Context) (Provider, error)

// ActivationHandler transforms a freshly produced value before it is cached
// and returned.
type ActivationHandler func(ctx *Context, instance any) (Result, error)

func (h ActivationHandler) Clone() ActivationHandler { return h }

// Activation adapts a synchronous hook to an ActivationHandler.
func Activation(fn func(ctx *Context, instance any) (any, error)) ActivationHandler {
	return func(ctx *Context, instance any) (Result, error) {
		value, err := fn(ctx, instance)
		if err != nil {
			return Result{}, err
		}
		return Ready(value), nil
	}
}

// DeferredActivation adapts an asynchronous hook to an ActivationHandler.
func DeferredActivation(fn func(ctx *Context, instance any) *Deferred) ActivationHandler {
	return func(ctx *Context, instance any) (Result, error) {
		return Pending(fn(ctx, instance)), nil
	}
}

// DeactivationHandler runs when an activated singleton is unbound.
type DeactivationHandler func(instance any) error

func (h DeactivationHandler) Clone() DeactivationHandler { return h }

// Binding is a registered recipe for producing values of one service
// identifier. It is configured through BindingSyntax.
type Binding struct {
	id                string
	moduleID          string
	serviceIdentifier ServiceIdentifier
	scope             Scope
	bindingType       BindingType

	class         *Class
	constantValue any
	dynamicValue  DynamicValue
	factory       FactoryFunc
	provider      ProviderFunc

	constraint    Constraint
	constraintTag *Metadata

	onActivation   ActivationHandler
	onDeactivation DeactivationHandler

	// singleton slot, see singletonScope
	cacheMu   sync.Mutex
	createMu  sync.Mutex
	activated bool
	cache     Result
}

func newBinding(serviceIdentifier ServiceIdentifier, scope Scope) *Binding {
	return &Binding{
		id:                uuid.NewString(),
		serviceIdentifier: serviceIdentifier,
		scope:             scope,
		constraint:        alwaysTrue,
	}
}

func alwaysTrue(*Request) bool { return true }

func (b *Binding) ID() string                           { return b.id }
func (b *Binding) ServiceIdentifier() ServiceIdentifier { return b.serviceIdentifier }
func (b *Binding) Scope() Scope                         { return b.scope }
func (b *Binding) Type() BindingType                    { return b.bindingType }

// Class returns the class of Instance and Constructor bindings.
func (b *Binding) Class() *Class { return b.class }

// Activated reports whether a singleton value is cached on the binding.
func (b *Binding) Activated() bool {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	return b.activated
}

// store caches result in the singleton slot. A pending result is cached
// behind a Deferred that settles only after the slot holds the ready value,
// or was emptied again on error, so waiters woken by a failure can retry.
func (b *Binding) store(result Result) Result {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()

	b.activated = true
	if result.deferred == nil {
		b.cache = result
		return result
	}

	inner := result.deferred
	outer := newDeferred()
	b.cache = Pending(outer)
	go func() {
		value, err := inner.wait()
		b.cacheMu.Lock()
		// unbound or overwritten meanwhile otherwise
		if b.cache.deferred == outer {
			if err != nil {
				b.activated = false
				b.cache = Result{}
			} else {
				b.cache = Ready(value)
			}
		}
		b.cacheMu.Unlock()
		outer.settle(value, err)
	}()
	return b.cache
}

func (b *Binding) matches(request *Request) bool {
	return b.constraint(request)
}

// Clone returns a copy of the binding with a cloned scope. A cached
// singleton value is kept; a pending one is tracked by the copy as well.
func (b *Binding) Clone() *Binding {
	return b.clone(true)
}

func (b *Binding) clone(preserveCache bool) *Binding {
	clone := &Binding{
		id:                uuid.NewString(),
		moduleID:          b.moduleID,
		serviceIdentifier: b.serviceIdentifier,
		scope:             b.scope.Clone(),
		bindingType:       b.bindingType,
		class:             b.class,
		constantValue:     b.constantValue,
		dynamicValue:      b.dynamicValue,
		factory:           b.factory,
		provider:          b.provider,
		constraint:        b.constraint,
		constraintTag:     b.constraintTag,
		onActivation:      b.onActivation,
		onDeactivation:    b.onDeactivation,
	}
	if preserveCache {
		b.cacheMu.Lock()
		activated, cache := b.activated, b.cache
		b.cacheMu.Unlock()
		if activated {
			clone.store(cache)
		}
	}
	return clone
}

func (b *Binding) implementationName() string {
	switch b.bindingType {
	case BindingTypeInstance, BindingTypeConstructor:
		return b.class.Name()
	case BindingTypeConstantValue:
		return fmt.Sprintf("%s(%s)", b.bindingType, typeName(b.constantValue))
	default:
		return b.bindingType.String()
	}
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s -> %s (%s)", identifierString(b.serviceIdentifier), b.implementationName(), b.scope)
}
