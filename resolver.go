package goinject

import (
	"fmt"
	"reflect"
)

// Resolve produces the value planned in ctx. Multi-injections resolve to a
// []any in binding registration order. The result is pending as soon as any
// part of the graph is.
func Resolve(ctx *Context) (Result, error) {
	r := &resolver{ctx: ctx}
	return r.resolveRequest(ctx.plan.rootRequest)
}

type resolver struct {
	ctx *Context
}

func (r *resolver) resolveRequest(request *Request) (Result, error) {
	if request.isArrayTop() {
		children := request.ChildRequests()
		results := make([]Result, 0, len(children))
		for _, child := range children {
			result, err := r.resolveRequest(child)
			if err != nil {
				return Result{}, err
			}
			results = append(results, result)
		}
		return all(results), nil
	}

	if request.target.IsOptional() && len(request.bindings) == 0 {
		return Ready(nil), nil
	}

	return r.resolveBinding(request, request.bindings[0])
}

func (r *resolver) resolveBinding(request *Request, binding *Binding) (Result, error) {
	if producer, found := r.ctx.producing(binding); found {
		return Result{}, circularDependencyInRecipeError(producer.bindings[0].bindingType, binding.serviceIdentifier)
	}

	if cached, found := binding.scope.Get(binding, request); found {
		return cached, nil
	}

	if exclusive, ok := binding.scope.(exclusiveScope); ok {
		release := exclusive.acquire(binding)
		defer release()

		if cached, found := binding.scope.Get(binding, request); found {
			return cached, nil
		}
	}

	leave := request.enter()
	defer leave()

	result, err := r.resolveFromBinding(request, binding)
	if err != nil {
		return Result{}, err
	}

	result, err = r.activate(request, binding, result)
	if err != nil {
		return Result{}, err
	}

	return binding.scope.Set(binding, request, result), nil
}

func (r *resolver) resolveFromBinding(request *Request, binding *Binding) (Result, error) {
	switch binding.bindingType {
	case BindingTypeConstantValue:
		return Ready(binding.constantValue), nil

	case BindingTypeConstructor:
		return Ready(binding.class), nil

	case BindingTypeDynamicValue:
		return binding.dynamicValue(r.ctx.at(request))

	case BindingTypeFactory:
		factory, err := binding.factory(r.ctx.at(request))
		if err != nil {
			return Result{}, fmt.Errorf("factory for %s failed: %w", identifierString(binding.serviceIdentifier), err)
		}
		return Ready(factory), nil

	case BindingTypeProvider:
		provider, err := binding.provider(r.ctx.at(request))
		if err != nil {
			return Result{}, fmt.Errorf("provider for %s failed: %w", identifierString(binding.serviceIdentifier), err)
		}
		return Ready(provider), nil

	case BindingTypeInstance:
		return r.resolveInstance(request, binding)

	default:
		return Result{}, fmt.Errorf("%w: no recipe configured for %s", ErrInvalidBindingType, identifierString(binding.serviceIdentifier))
	}
}

func (r *resolver) resolveInstance(request *Request, binding *Binding) (Result, error) {
	children := request.ChildRequests()
	results := make([]Result, len(children))
	for i, child := range children {
		result, err := r.resolveRequest(child)
		if err != nil {
			return Result{}, err
		}
		results[i] = result
	}

	return then(all(results), func(values any) (Result, error) {
		instance, err := construct(binding.class, children, values.([]any))
		if err != nil {
			return Result{}, err
		}
		return Ready(instance), nil
	})
}

// activate runs the binding's own hook, then the container hooks from the
// requesting container outward up to the container owning binding.
func (r *resolver) activate(request *Request, binding *Binding, result Result) (Result, error) {
	handlers := []ActivationHandler{}
	if binding.onActivation != nil {
		handlers = append(handlers, binding.onActivation)
	}
	handlers = append(handlers, r.ctx.container.activationHandlers(binding)...)

	ctx := r.ctx.at(request)
	var err error
	for _, handler := range handlers {
		result, err = then(result, func(instance any) (Result, error) {
			// a pending value resumes here on another goroutine
			leave := request.enter()
			defer leave()
			return handler(ctx, instance)
		})
		if err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

func construct(class *Class, children []*Request, values []any) (any, error) {
	if err := class.parse(); err != nil {
		return nil, err
	}

	arguments := make([]reflect.Value, len(class.parameters))
	type propertyValue struct {
		name  string
		value any
	}
	properties := []propertyValue{}

	for i, child := range children {
		target := child.target
		switch target.kind {
		case TargetKindConstructorArgument:
			if target.index < 0 || target.index >= len(arguments) {
				return nil, fmt.Errorf("argument %d is out of range for %s", target.index, class.name)
			}
			argument, err := injectable(values[i], class.parameters[target.index].paramType)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", target.index, class.name, err)
			}
			arguments[target.index] = argument
		case TargetKindClassProperty:
			properties = append(properties, propertyValue{name: target.name, value: values[i]})
		}
	}

	var instance reflect.Value
	if class.allocate != nil {
		instance = reflect.New(class.allocate)
	} else {
		for i, argument := range arguments {
			if !argument.IsValid() {
				return nil, fmt.Errorf("argument %d of %s was not planned", i, class.name)
			}
		}
		out := class.constructor.Call(arguments)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, fmt.Errorf("failed to construct %s: %w", class.name, out[1].Interface().(error))
		}
		instance = out[0]
	}

	if len(properties) > 0 {
		if instance.Kind() != reflect.Pointer || instance.IsNil() || instance.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("cannot inject properties into %v produced by %s", instance.Type(), class.name)
		}
		for _, property := range properties {
			field := instance.Elem().FieldByName(property.name)
			if !field.IsValid() || !field.CanSet() {
				return nil, fmt.Errorf("field %s of %s cannot be injected", property.name, class.name)
			}
			value, err := injectable(property.value, field.Type())
			if err != nil {
				return nil, fmt.Errorf("field %s of %s: %w", property.name, class.name, err)
			}
			field.Set(value)
		}
	}

	result := instance.Interface()
	if class.postConstruct != nil {
		if err := class.postConstruct(result); err != nil {
			return nil, fmt.Errorf("post construct of %s failed: %w", class.name, err)
		}
	}
	return result, nil
}

// injectable converts a resolved value to the type of the parameter or field
// receiving it. Multi-injected []any values become typed slices.
func injectable(value any, to reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(to), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(to) {
		return v, nil
	}

	if items, ok := value.([]any); ok && to.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(to, len(items), len(items))
		for i, item := range items {
			element, err := injectable(item, to.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			slice.Index(i).Set(element)
		}
		return slice, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot inject %T into %v", value, to)
}
