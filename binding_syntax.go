package goinject

import (
	"fmt"
)

// BindingSyntax configures the binding created by Container.Bind. Every
// method returns the syntax again so calls can be chained:
//
//	container.Bind(goinject.TypeOf[Weapon]()).
//		To(goinject.NewClass(NewKatana)).
//		InSingletonScope().
//		WhenTargetNamed("strong")
type BindingSyntax struct {
	binding      *Binding
	defaultScope Scope
}

func newBindingSyntax(binding *Binding, defaultScope Scope) *BindingSyntax {
	return &BindingSyntax{binding: binding, defaultScope: defaultScope}
}

// Binding returns the binding being configured.
func (s *BindingSyntax) Binding() *Binding { return s.binding }

// To instantiates class on resolution, injecting its constructor arguments
// and tagged fields.
func (s *BindingSyntax) To(class *Class) *BindingSyntax {
	s.binding.bindingType = BindingTypeInstance
	s.binding.class = class
	s.binding.scope = s.defaultScope
	return s
}

// ToSelf is To for bindings whose service identifier is itself a *Class.
func (s *BindingSyntax) ToSelf() *BindingSyntax {
	class, ok := s.binding.serviceIdentifier.(*Class)
	if !ok {
		panic(fmt.Sprintf("ToSelf requires a *Class service identifier, got %s", identifierString(s.binding.serviceIdentifier)))
	}
	return s.To(class)
}

func (s *BindingSyntax) ToConstantValue(value any) *BindingSyntax {
	s.binding.bindingType = BindingTypeConstantValue
	s.binding.constantValue = value
	s.binding.scope = SingletonScope
	return s
}

func (s *BindingSyntax) ToDynamicValue(fn func(ctx *Context) (any, error)) *BindingSyntax {
	return s.toDynamicValue(func(ctx *Context) (Result, error) {
		value, err := fn(ctx)
		if err != nil {
			return Result{}, err
		}
		return Ready(value), nil
	})
}

// ToDeferredValue binds a value produced asynchronously. Resolving it
// requires GetAsync or one of its variants.
func (s *BindingSyntax) ToDeferredValue(fn func(ctx *Context) *Deferred) *BindingSyntax {
	return s.toDynamicValue(func(ctx *Context) (Result, error) {
		return Pending(fn(ctx)), nil
	})
}

func (s *BindingSyntax) toDynamicValue(fn DynamicValue) *BindingSyntax {
	s.binding.bindingType = BindingTypeDynamicValue
	s.binding.dynamicValue = fn
	s.binding.scope = s.defaultScope
	return s
}

// ToConstructor resolves to class itself rather than to an instance of it.
func (s *BindingSyntax) ToConstructor(class *Class) *BindingSyntax {
	s.binding.bindingType = BindingTypeConstructor
	s.binding.class = class
	s.binding.scope = SingletonScope
	return s
}

func (s *BindingSyntax) ToFactory(fn FactoryFunc) *BindingSyntax {
	s.binding.bindingType = BindingTypeFactory
	s.binding.factory = fn
	s.binding.scope = SingletonScope
	return s
}

// ToAutoFactory resolves to a func() (any, error) that resolves
// serviceIdentifier from the container on every call.
func (s *BindingSyntax) ToAutoFactory(serviceIdentifier ServiceIdentifier) *BindingSyntax {
	return s.ToFactory(func(ctx *Context) (any, error) {
		return func() (any, error) {
			return ctx.Container().Get(serviceIdentifier)
		}, nil
	})
}

func (s *BindingSyntax) ToProvider(fn ProviderFunc) *BindingSyntax {
	s.binding.bindingType = BindingTypeProvider
	s.binding.provider = fn
	s.binding.scope = SingletonScope
	return s
}

// ToService makes the binding an alias of serviceIdentifier.
func (s *BindingSyntax) ToService(serviceIdentifier ServiceIdentifier) *BindingSyntax {
	return s.toDynamicValue(func(ctx *Context) (Result, error) {
		if ctx.container == nil {
			return Result{}, ErrNoContainer
		}
		return ctx.container.resolve(newNextArgs(ctx, serviceIdentifier, false, nil))
	})
}

func (s *BindingSyntax) InSingletonScope() *BindingSyntax {
	return s.InScope(SingletonScope)
}

func (s *BindingSyntax) InTransientScope() *BindingSyntax {
	return s.InScope(TransientScope)
}

func (s *BindingSyntax) InRequestScope() *BindingSyntax {
	return s.InScope(RequestScope)
}

// InScope sets a custom scope.
func (s *BindingSyntax) InScope(scope Scope) *BindingSyntax {
	s.binding.scope = scope
	return s
}

func (s *BindingSyntax) When(constraint Constraint) *BindingSyntax {
	s.binding.constraint = constraint
	return s
}

func (s *BindingSyntax) WhenTargetNamed(name string) *BindingSyntax {
	s.binding.constraintTag = &Metadata{Key: NamedTag, Value: name}
	return s.When(namedConstraint(name))
}

func (s *BindingSyntax) WhenTargetTagged(key any, value any) *BindingSyntax {
	s.binding.constraintTag = &Metadata{Key: key, Value: value}
	return s.When(taggedConstraint(key, value))
}

// WhenTargetIsDefault matches targets carrying neither a name nor a custom
// tag.
func (s *BindingSyntax) WhenTargetIsDefault() *BindingSyntax {
	return s.When(func(request *Request) bool {
		if request == nil || request.target == nil {
			return true
		}
		return !request.target.IsNamed() && !request.target.IsTagged()
	})
}

func (s *BindingSyntax) WhenInjectedInto(parent ServiceIdentifier) *BindingSyntax {
	return s.When(func(request *Request) bool {
		return request != nil && typeConstraint(parent)(request.ParentRequest())
	})
}

func (s *BindingSyntax) WhenParentNamed(name string) *BindingSyntax {
	return s.When(func(request *Request) bool {
		return request != nil && namedConstraint(name)(request.ParentRequest())
	})
}

func (s *BindingSyntax) WhenParentTagged(key any, value any) *BindingSyntax {
	return s.When(func(request *Request) bool {
		return request != nil && taggedConstraint(key, value)(request.ParentRequest())
	})
}

func (s *BindingSyntax) WhenAnyAncestorIs(ancestor ServiceIdentifier) *BindingSyntax {
	return s.WhenAnyAncestorMatches(typeConstraint(ancestor))
}

func (s *BindingSyntax) WhenNoAncestorIs(ancestor ServiceIdentifier) *BindingSyntax {
	return s.WhenNoAncestorMatches(typeConstraint(ancestor))
}

func (s *BindingSyntax) WhenAnyAncestorNamed(name string) *BindingSyntax {
	return s.WhenAnyAncestorMatches(namedConstraint(name))
}

func (s *BindingSyntax) WhenNoAncestorNamed(name string) *BindingSyntax {
	return s.WhenNoAncestorMatches(namedConstraint(name))
}

func (s *BindingSyntax) WhenAnyAncestorTagged(key any, value any) *BindingSyntax {
	return s.WhenAnyAncestorMatches(taggedConstraint(key, value))
}

func (s *BindingSyntax) WhenNoAncestorTagged(key any, value any) *BindingSyntax {
	return s.WhenNoAncestorMatches(taggedConstraint(key, value))
}

func (s *BindingSyntax) WhenAnyAncestorMatches(constraint Constraint) *BindingSyntax {
	return s.When(func(request *Request) bool {
		return anyAncestor(request, constraint)
	})
}

func (s *BindingSyntax) WhenNoAncestorMatches(constraint Constraint) *BindingSyntax {
	return s.When(func(request *Request) bool {
		return !anyAncestor(request, constraint)
	})
}

// OnActivation sets the binding's own activation hook. It runs before the
// container hooks.
func (s *BindingSyntax) OnActivation(handler ActivationHandler) *BindingSyntax {
	s.binding.onActivation = handler
	return s
}

// OnDeactivation sets the hook run when the binding's activated singleton
// is unbound.
func (s *BindingSyntax) OnDeactivation(handler DeactivationHandler) *BindingSyntax {
	s.binding.onDeactivation = handler
	return s
}
