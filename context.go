package goinject

import (
	"context"

	"github.com/google/uuid"
)

// Plan is the request tree built for one top-level resolution.
type Plan struct {
	context     *Context
	rootRequest *Request
}

func (p *Plan) Context() *Context     { return p.context }
func (p *Plan) RootRequest() *Request { return p.rootRequest }

// Context is created once per resolution call. It is handed to dynamic
// values, factories, providers and activation hooks, which should use its
// Get methods, or the container returned by Container, to resolve further
// services: resolutions started that way are chained to the current one, so
// a recipe asking for its own service is reported as a circular dependency.
type Context struct {
	id        string
	container *Container
	plan      *Plan

	// parent is the context whose recipe started this resolution, origin the
	// request that was being produced there.
	parent *Context
	origin *Request
	depth  int

	// request is set on the contexts handed to recipes and hooks, see at.
	request *Request
}

func newContext(container *Container, parent *Context) *Context {
	ctx := &Context{
		id:        uuid.NewString(),
		container: container,
		parent:    parent,
	}
	if parent != nil {
		ctx.origin = parent.CurrentRequest()
		ctx.depth = parent.depth + 1
	}
	return ctx
}

// at returns c as seen by the recipe or hook producing request.
func (c *Context) at(request *Request) *Context {
	return &Context{
		id:        c.id,
		container: c.container,
		plan:      c.plan,
		parent:    c.parent,
		origin:    c.origin,
		depth:     c.depth,
		request:   request,
	}
}

func (c *Context) ID() string  { return c.id }
func (c *Context) Plan() *Plan { return c.plan }

// Container returns the container the resolution started from. Resolutions
// started through it are chained to c, like those started with c.Get.
func (c *Context) Container() *Container {
	if c.container == nil {
		return nil
	}
	return c.container.chainedTo(c)
}

// Parent returns the context whose recipe started this resolution, or nil
// for a top-level resolution.
func (c *Context) Parent() *Context { return c.parent }

// CurrentRequest returns the request whose recipe or hook received c, or
// the root request of the plan.
func (c *Context) CurrentRequest() *Request {
	if c.request != nil {
		return c.request
	}
	if c.plan != nil {
		return c.plan.rootRequest
	}
	return nil
}

// producing returns the request, in an enclosing resolution, that is
// currently producing binding. It walks the origin of every enclosing
// context together with the origin's ancestors.
func (c *Context) producing(binding *Binding) (*Request, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		for request := ctx.origin; request != nil; request = request.ParentRequest() {
			if request.isProducing(binding) {
				return request, true
			}
		}
	}
	return nil, false
}

func (c *Context) Get(serviceIdentifier ServiceIdentifier, opts ...GetOption) (any, error) {
	if c.container == nil {
		return nil, ErrNoContainer
	}
	return c.container.getSync(newNextArgs(c, serviceIdentifier, false, opts))
}

func (c *Context) GetAsync(ctx context.Context, serviceIdentifier ServiceIdentifier, opts ...GetOption) (any, error) {
	if c.container == nil {
		return nil, ErrNoContainer
	}
	return c.container.getAsync(ctx, newNextArgs(c, serviceIdentifier, false, opts))
}

func (c *Context) GetAll(serviceIdentifier ServiceIdentifier, opts ...GetOption) ([]any, error) {
	if c.container == nil {
		return nil, ErrNoContainer
	}
	return c.container.getAllSync(newNextArgs(c, serviceIdentifier, true, opts))
}

func (c *Context) GetAllAsync(ctx context.Context, serviceIdentifier ServiceIdentifier, opts ...GetOption) ([]any, error) {
	if c.container == nil {
		return nil, ErrNoContainer
	}
	return c.container.getAllAsync(ctx, newNextArgs(c, serviceIdentifier, true, opts))
}

func (c *Context) GetNamed(serviceIdentifier ServiceIdentifier, name string) (any, error) {
	return c.Get(serviceIdentifier, Named(name))
}

func (c *Context) GetTagged(serviceIdentifier ServiceIdentifier, key any, value any) (any, error) {
	return c.Get(serviceIdentifier, Tagged(key, value))
}
