package goinject

import (
	"context"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

// NextArgs describes one resolution call as it travels through the
// middleware chain.
type NextArgs struct {
	ServiceIdentifier ServiceIdentifier
	IsMultiInject     bool
	IsOptional        bool
	AvoidConstraints  bool
	Key               any
	Value             any
	// ContextInterceptor, when set, may replace the planned context before
	// it is resolved.
	ContextInterceptor func(ctx *Context) *Context

	parent *Context
}

type Next func(args *NextArgs) (Result, error)

// Middleware wraps resolution calls, e.g. to log them or to substitute a
// fallback value on error.
type Middleware func(next Next) Next

// ApplyMiddleware adds middleware to the container. The last one applied
// is the outermost.
func (c *Container) ApplyMiddleware(middleware ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware...)
}

type GetOption func(args *NextArgs)

func Named(name string) GetOption {
	return Tagged(NamedTag, name)
}

func Tagged(key any, value any) GetOption {
	return func(args *NextArgs) {
		args.Key = key
		args.Value = value
	}
}

// Optional resolves to nil, or to an empty slice for multi-injections,
// instead of failing when nothing is bound.
func Optional() GetOption {
	return func(args *NextArgs) {
		args.IsOptional = true
	}
}

func newNextArgs(parent *Context, serviceIdentifier ServiceIdentifier, isMultiInject bool, opts []GetOption) *NextArgs {
	args := &NextArgs{
		ServiceIdentifier: serviceIdentifier,
		IsMultiInject:     isMultiInject,
		parent:            parent,
	}
	for _, opt := range opts {
		opt(args)
	}
	// untagged multi-injections return every binding regardless of constraints
	if isMultiInject && args.Key == nil {
		args.AvoidConstraints = true
	}
	return args
}

func (c *Container) resolve(args *NextArgs) (Result, error) {
	next := c.planAndResolve
	c.mu.RLock()
	for _, middleware := range c.middleware {
		next = middleware(next)
	}
	c.mu.RUnlock()

	result, err := next(args)
	if err != nil {
		c.logger.WithField("service", identifierString(args.ServiceIdentifier)).WithError(err).Debug("resolution failed")
	}
	return result, err
}

func (c *Container) planAndResolve(args *NextArgs) (Result, error) {
	ctx, err := BuildPlan(c.reader, c, PlanOptions{
		ServiceIdentifier: args.ServiceIdentifier,
		IsMultiInject:     args.IsMultiInject,
		IsOptional:        args.IsOptional,
		Key:               args.Key,
		Value:             args.Value,
		AvoidConstraints:  args.AvoidConstraints,
		Parent:            args.parent,
	})
	if err != nil {
		return Result{}, err
	}
	if args.ContextInterceptor != nil {
		ctx = args.ContextInterceptor(ctx)
	}

	if c.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.logger.WithFields(logrus.Fields{
			"service": identifierString(args.ServiceIdentifier),
			"context": ctx.id,
		}).Debug("plan built")
	}

	return Resolve(ctx)
}

func (c *Container) getSync(args *NextArgs) (any, error) {
	result, err := c.resolve(args)
	if err != nil {
		return nil, err
	}
	value, ready := result.Value()
	if !ready {
		return nil, deferredUsedSynchronouslyError(args.ServiceIdentifier)
	}
	return value, nil
}

func (c *Container) getAsync(ctx context.Context, args *NextArgs) (any, error) {
	result, err := c.resolve(args)
	if err != nil {
		return nil, err
	}
	return result.Await(ctx)
}

func (c *Container) getAllSync(args *NextArgs) ([]any, error) {
	value, err := c.getSync(args)
	if err != nil {
		return nil, err
	}
	return value.([]any), nil
}

func (c *Container) getAllAsync(ctx context.Context, args *NextArgs) ([]any, error) {
	value, err := c.getAsync(ctx, args)
	if err != nil {
		return nil, err
	}
	return value.([]any), nil
}

// Get resolves serviceIdentifier. It fails with ErrDeferredUsedSynchronously
// when some part of the graph produced a deferred value; use GetAsync for
// those.
func (c *Container) Get(serviceIdentifier ServiceIdentifier, opts ...GetOption) (any, error) {
	return c.getSync(newNextArgs(c.chain, serviceIdentifier, false, opts))
}

func (c *Container) GetAsync(ctx context.Context, serviceIdentifier ServiceIdentifier, opts ...GetOption) (any, error) {
	return c.getAsync(ctx, newNextArgs(c.chain, serviceIdentifier, false, opts))
}

// GetAll resolves every binding of serviceIdentifier in registration order.
// Without a tag option binding constraints are ignored.
func (c *Container) GetAll(serviceIdentifier ServiceIdentifier, opts ...GetOption) ([]any, error) {
	return c.getAllSync(newNextArgs(c.chain, serviceIdentifier, true, opts))
}

func (c *Container) GetAllAsync(ctx context.Context, serviceIdentifier ServiceIdentifier, opts ...GetOption) ([]any, error) {
	return c.getAllAsync(ctx, newNextArgs(c.chain, serviceIdentifier, true, opts))
}

func (c *Container) GetNamed(serviceIdentifier ServiceIdentifier, name string) (any, error) {
	return c.Get(serviceIdentifier, Named(name))
}

func (c *Container) GetTagged(serviceIdentifier ServiceIdentifier, key any, value any) (any, error) {
	return c.Get(serviceIdentifier, Tagged(key, value))
}

func (c *Container) GetAllNamed(serviceIdentifier ServiceIdentifier, name string) ([]any, error) {
	return c.GetAll(serviceIdentifier, Named(name))
}

func (c *Container) GetAllTagged(serviceIdentifier ServiceIdentifier, key any, value any) ([]any, error) {
	return c.GetAll(serviceIdentifier, Tagged(key, value))
}

// Get resolves the binding registered for the type T, see TypeOf.
func Get[T any](c *Container, opts ...GetOption) (T, error) {
	return GetByID[T](c, TypeOf[T](), opts...)
}

// GetByID resolves serviceIdentifier and asserts the value is a T.
func GetByID[T any](c *Container, serviceIdentifier ServiceIdentifier, opts ...GetOption) (T, error) {
	value, err := c.Get(serviceIdentifier, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](serviceIdentifier, value)
}

func GetAsync[T any](ctx context.Context, c *Container, opts ...GetOption) (T, error) {
	value, err := c.GetAsync(ctx, TypeOf[T](), opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](TypeOf[T](), value)
}

// GetAll resolves every binding registered for the type T.
func GetAll[T any](c *Container, opts ...GetOption) ([]T, error) {
	values, err := c.GetAll(TypeOf[T](), opts...)
	if err != nil {
		return nil, err
	}
	result := make([]T, len(values))
	for i, value := range values {
		result[i], err = as[T](TypeOf[T](), value)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func as[T any](serviceIdentifier ServiceIdentifier, value any) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("value resolved for %s is a %T, not a %v", identifierString(serviceIdentifier), value, reflect.TypeFor[T]())
	}
	return typed, nil
}
