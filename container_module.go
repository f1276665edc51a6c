package goinject

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContainerModule groups registrations so they can be loaded into a
// container and unloaded from it as one unit.
type ContainerModule struct {
	id       string
	registry func(binder *ModuleBinder) error
}

func NewContainerModule(registry func(binder *ModuleBinder) error) *ContainerModule {
	return &ContainerModule{
		id:       uuid.NewString(),
		registry: registry,
	}
}

func (m *ContainerModule) ID() string { return m.id }

// ModuleBinder is handed to a module's registry function. Bindings and
// hooks registered through it are owned by the module.
type ModuleBinder struct {
	container *Container
	moduleID  string
}

func (b *ModuleBinder) Bind(serviceIdentifier ServiceIdentifier) *BindingSyntax {
	return b.container.bind(serviceIdentifier, b.moduleID)
}

func (b *ModuleBinder) Rebind(serviceIdentifier ServiceIdentifier) (*BindingSyntax, error) {
	var err error
	if b.container.IsCurrentBound(serviceIdentifier) {
		err = b.container.Unbind(serviceIdentifier)
	}
	return b.Bind(serviceIdentifier), err
}

func (b *ModuleBinder) Unbind(serviceIdentifier ServiceIdentifier) error {
	return b.container.Unbind(serviceIdentifier)
}

func (b *ModuleBinder) IsBound(serviceIdentifier ServiceIdentifier) bool {
	return b.container.IsBound(serviceIdentifier)
}

func (b *ModuleBinder) OnActivation(serviceIdentifier ServiceIdentifier, handler ActivationHandler) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()
	b.container.activations.Add(serviceIdentifier, activationEntry{moduleID: b.moduleID, handler: handler})
}

func (b *ModuleBinder) OnDeactivation(serviceIdentifier ServiceIdentifier, handler DeactivationHandler) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()
	b.container.deactivations.Add(serviceIdentifier, deactivationEntry{moduleID: b.moduleID, handler: handler})
}

// Load runs the registry function of every module in order and stops at
// the first one failing.
func (c *Container) Load(modules ...*ContainerModule) error {
	for _, module := range modules {
		binder := &ModuleBinder{container: c, moduleID: module.id}
		if err := module.registry(binder); err != nil {
			return err
		}
		c.logger.WithField("module", module.id).Debug("module loaded")
	}
	return nil
}

// Unload removes the bindings and hooks registered by modules. Removed
// singletons are deactivated while the module's deactivation hooks are
// still in place.
func (c *Container) Unload(modules ...*ContainerModule) error {
	return c.unload(context.Background(), false, modules)
}

// UnloadAsync is Unload waiting for pending singletons before deactivating
// them.
func (c *Container) UnloadAsync(ctx context.Context, modules ...*ContainerModule) error {
	return c.unload(ctx, true, modules)
}

func (c *Container) unload(ctx context.Context, await bool, modules []*ContainerModule) error {
	errs := []error{}
	for _, module := range modules {
		c.mu.Lock()
		bindings := c.bindings.RemoveByCondition(func(binding *Binding) bool {
			return binding.moduleID == module.id
		})
		c.mu.Unlock()

		if err := c.deactivateSingletons(ctx, bindings, await); err != nil {
			errs = append(errs, err)
		}

		c.mu.Lock()
		c.activations.RemoveByCondition(func(entry activationEntry) bool {
			return entry.moduleID == module.id
		})
		c.deactivations.RemoveByCondition(func(entry deactivationEntry) bool {
			return entry.moduleID == module.id
		})
		c.mu.Unlock()

		c.logger.WithFields(logrus.Fields{
			"module":   module.id,
			"bindings": len(bindings),
		}).Debug("module unloaded")
	}
	return errors.Join(errs...)
}
