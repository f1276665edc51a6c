package goinject

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/victormf2/goinject/internal"
)

// Container is the main object to register and resolve dependencies.
//
// Bindings are looked up in the container a resolution starts from, then in
// its ancestors. The first container holding any binding for an identifier
// supplies every candidate for it; bindings are never merged across
// ancestors.
type Container struct {
	*containerState

	// chain is set on the views handed out by Context.Container. Their
	// resolutions are chained to that context.
	chain *Context
}

type containerState struct {
	id           string
	parent       *Container
	logger       *logrus.Entry
	defaultScope Scope
	reader       MetadataReader

	mu            sync.RWMutex
	bindings      *internal.Lookup[ServiceIdentifier, *Binding]
	activations   *internal.Lookup[ServiceIdentifier, activationEntry]
	deactivations *internal.Lookup[ServiceIdentifier, deactivationEntry]
	middleware    []Middleware
	snapshots     []*snapshot
}

type activationEntry struct {
	moduleID string
	handler  ActivationHandler
}

func (e activationEntry) Clone() activationEntry { return e }

type deactivationEntry struct {
	moduleID string
	handler  DeactivationHandler
}

func (e deactivationEntry) Clone() deactivationEntry { return e }

type Option func(c *Container)

// WithDefaultScope sets the scope of instance and dynamic value bindings
// that do not choose one. Transient unless set.
func WithDefaultScope(scope Scope) Option {
	return func(c *Container) {
		c.defaultScope = scope
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

func WithMetadataReader(reader MetadataReader) Option {
	return func(c *Container) {
		c.reader = reader
	}
}

// Instantiates a new root Container.
func NewContainer(opts ...Option) *Container {
	c := initContainer(nil)
	c.defaultScope = TransientScope
	c.reader = NewMetadataReader()
	c.logger = logrus.NewEntry(logrus.StandardLogger())
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("container", c.id)
	return c
}

// CreateChildContainer creates a container falling back to parent for
// identifiers it has no bindings for. Options not given are inherited.
func CreateChildContainer(parent *Container, opts ...Option) *Container {
	c := initContainer(parent)
	c.defaultScope = parent.defaultScope
	c.reader = parent.reader
	c.logger = parent.logger
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("container", c.id)
	return c
}

func initContainer(parent *Container) *Container {
	return &Container{containerState: &containerState{
		id:            uuid.NewString(),
		parent:        parent,
		bindings:      internal.NewLookup[ServiceIdentifier, *Binding](),
		activations:   internal.NewLookup[ServiceIdentifier, activationEntry](),
		deactivations: internal.NewLookup[ServiceIdentifier, deactivationEntry](),
	}}
}

// chainedTo returns a view of c sharing its bindings, hooks and middleware,
// whose resolutions are chained to ctx.
func (c *Container) chainedTo(ctx *Context) *Container {
	return &Container{containerState: c.containerState, chain: ctx}
}

func (c *Container) ID() string         { return c.id }
func (c *Container) Parent() *Container { return c.parent }

// Bind registers a new binding for serviceIdentifier and returns the
// syntax to configure it. Bindings registered earlier are kept.
func (c *Container) Bind(serviceIdentifier ServiceIdentifier) *BindingSyntax {
	return c.bind(serviceIdentifier, "")
}

func (c *Container) bind(serviceIdentifier ServiceIdentifier, moduleID string) *BindingSyntax {
	binding := newBinding(serviceIdentifier, c.defaultScope)
	binding.moduleID = moduleID

	c.mu.Lock()
	c.bindings.Add(serviceIdentifier, binding)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"service": identifierString(serviceIdentifier),
		"binding": binding.id,
	}).Debug("binding registered")

	return newBindingSyntax(binding, c.defaultScope)
}

// Unbind removes every binding of serviceIdentifier from this container
// after deactivating its activated singletons. Deactivation errors are
// joined; they never stop the removal.
func (c *Container) Unbind(serviceIdentifier ServiceIdentifier) error {
	bindings, err := c.removeBindings(serviceIdentifier)
	if err != nil {
		return err
	}
	return c.deactivateSingletons(context.Background(), bindings, false)
}

// UnbindAsync is Unbind waiting for singletons whose value is still
// pending before deactivating them.
func (c *Container) UnbindAsync(ctx context.Context, serviceIdentifier ServiceIdentifier) error {
	bindings, err := c.removeBindings(serviceIdentifier)
	if err != nil {
		return err
	}
	return c.deactivateSingletons(ctx, bindings, true)
}

func (c *Container) UnbindAll() error {
	return c.deactivateSingletons(context.Background(), c.removeAllBindings(), false)
}

func (c *Container) UnbindAllAsync(ctx context.Context) error {
	return c.deactivateSingletons(ctx, c.removeAllBindings(), true)
}

// Rebind replaces every binding of serviceIdentifier in this container
// with a new one. The returned syntax is usable even when deactivating the
// replaced bindings failed.
func (c *Container) Rebind(serviceIdentifier ServiceIdentifier) (*BindingSyntax, error) {
	var err error
	if c.IsCurrentBound(serviceIdentifier) {
		err = c.Unbind(serviceIdentifier)
	}
	return c.Bind(serviceIdentifier), err
}

func (c *Container) removeBindings(serviceIdentifier ServiceIdentifier) ([]*Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bindings, err := c.bindings.Get(serviceIdentifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, identifierString(serviceIdentifier))
	}
	c.bindings.Remove(serviceIdentifier)

	c.logger.WithField("service", identifierString(serviceIdentifier)).Debug("bindings removed")
	return bindings, nil
}

func (c *Container) removeAllBindings() []*Binding {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := [][]*Binding{}
	c.bindings.Traverse(func(_ ServiceIdentifier, bindings []*Binding) {
		all = append(all, bindings)
	})
	c.bindings = internal.NewLookup[ServiceIdentifier, *Binding]()

	c.logger.Debug("all bindings removed")
	return internal.Flat(all)
}

func (c *Container) IsBound(serviceIdentifier ServiceIdentifier) bool {
	bindings, _ := c.bindingsFor(serviceIdentifier)
	return len(bindings) > 0
}

func (c *Container) IsCurrentBound(serviceIdentifier ServiceIdentifier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings.HasKey(serviceIdentifier)
}

func (c *Container) IsBoundNamed(serviceIdentifier ServiceIdentifier, name string) bool {
	return c.IsBoundTagged(serviceIdentifier, NamedTag, name)
}

// IsBoundTagged reports whether some binding of serviceIdentifier accepts a
// root request carrying the given tag.
func (c *Container) IsBoundTagged(serviceIdentifier ServiceIdentifier, key any, value any) bool {
	bindings, _ := c.bindingsFor(serviceIdentifier)
	target := newTarget(TargetKindVariable, "", -1, serviceIdentifier, []Metadata{
		{Key: InjectTag, Value: serviceIdentifier},
		{Key: key, Value: value},
	})
	ctx := newContext(c, nil)
	return slices.ContainsFunc(bindings, func(binding *Binding) bool {
		return binding.matches(newRootRequest(ctx, serviceIdentifier, []*Binding{binding}, target))
	})
}

// OnActivation registers a hook run on every value produced for
// serviceIdentifier by this container or its descendants, after the
// binding's own hook.
func (c *Container) OnActivation(serviceIdentifier ServiceIdentifier, handler ActivationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activations.Add(serviceIdentifier, activationEntry{handler: handler})
}

func (c *Container) OnDeactivation(serviceIdentifier ServiceIdentifier, handler DeactivationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deactivations.Add(serviceIdentifier, deactivationEntry{handler: handler})
}

// bindingsFor returns the bindings of the nearest container holding any,
// together with that container.
func (c *Container) bindingsFor(serviceIdentifier ServiceIdentifier) ([]*Binding, *Container) {
	for current := c; current != nil; current = current.parent {
		current.mu.RLock()
		bindings, err := current.bindings.Get(serviceIdentifier)
		current.mu.RUnlock()
		if err == nil && len(bindings) > 0 {
			return slices.Clone(bindings), current
		}
	}
	return nil, nil
}

func (c *Container) owns(binding *Binding) bool {
	bindings, err := c.bindings.Get(binding.serviceIdentifier)
	return err == nil && slices.Contains(bindings, binding)
}

// activationHandlers walks from c outward and stops after the container
// owning binding.
func (c *Container) activationHandlers(binding *Binding) []ActivationHandler {
	handlers := []ActivationHandler{}
	for current := c; current != nil; current = current.parent {
		current.mu.RLock()
		entries, _ := current.activations.Get(binding.serviceIdentifier)
		owns := current.owns(binding)
		current.mu.RUnlock()

		handlers = append(handlers, internal.Map(entries, func(e activationEntry) ActivationHandler { return e.handler })...)
		if owns {
			break
		}
	}
	return handlers
}

func (c *Container) deactivationHandlers(serviceIdentifier ServiceIdentifier) []DeactivationHandler {
	handlers := []DeactivationHandler{}
	for current := c; current != nil; current = current.parent {
		current.mu.RLock()
		entries, _ := current.deactivations.Get(serviceIdentifier)
		current.mu.RUnlock()
		handlers = append(handlers, internal.Map(entries, func(e deactivationEntry) DeactivationHandler { return e.handler })...)
	}
	return handlers
}

func (c *Container) deactivateSingletons(ctx context.Context, bindings []*Binding, await bool) error {
	errs := []error{}
	for _, binding := range bindings {
		if err := c.deactivateSingleton(ctx, binding, await); err != nil {
			c.logger.WithFields(logrus.Fields{
				"service": identifierString(binding.serviceIdentifier),
				"binding": binding.id,
			}).WithError(err).Warn("deactivation failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deactivateSingleton runs container hooks from c outward, then the
// binding hook, then the class pre-destroy hook. Bindings that are not
// activated singletons are left alone.
func (c *Container) deactivateSingleton(ctx context.Context, binding *Binding, await bool) error {
	if _, ok := binding.scope.(singletonScope); !ok {
		return nil
	}

	binding.cacheMu.Lock()
	activated, cached := binding.activated, binding.cache
	binding.cacheMu.Unlock()
	if !activated {
		return nil
	}
	resetSingleton(binding)

	instance, ready := cached.Value()
	if !ready {
		if !await {
			return deferredUsedSynchronouslyError(binding.serviceIdentifier)
		}
		value, err := cached.Await(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// never produced a value, nothing to deactivate
			return nil
		}
		instance = value
	}

	handlers := c.deactivationHandlers(binding.serviceIdentifier)
	if binding.onDeactivation != nil {
		handlers = append(handlers, binding.onDeactivation)
	}
	if binding.bindingType == BindingTypeInstance && binding.class.preDestroy != nil {
		handlers = append(handlers, binding.class.preDestroy)
	}

	for _, handler := range handlers {
		if err := handler(instance); err != nil {
			return deactivationError(instance, err)
		}
	}
	return nil
}

// Merge returns a new container holding fresh copies of the bindings of
// every given container. Cached singleton values are not carried over.
func Merge(first *Container, second *Container, others ...*Container) *Container {
	merged := NewContainer(WithLogger(first.logger), WithDefaultScope(first.defaultScope), WithMetadataReader(first.reader))
	for _, source := range append([]*Container{first, second}, others...) {
		source.mu.RLock()
		source.bindings.Traverse(func(serviceIdentifier ServiceIdentifier, bindings []*Binding) {
			for _, binding := range bindings {
				merged.bindings.Add(serviceIdentifier, binding.clone(false))
			}
		})
		source.mu.RUnlock()
	}
	return merged
}
