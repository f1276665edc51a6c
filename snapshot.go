package goinject

import (
	"fmt"
	"slices"

	"github.com/victormf2/goinject/internal"
)

type snapshot struct {
	bindings      *internal.Lookup[ServiceIdentifier, *Binding]
	activations   *internal.Lookup[ServiceIdentifier, activationEntry]
	deactivations *internal.Lookup[ServiceIdentifier, deactivationEntry]
	middleware    []Middleware
}

// Snapshot saves the current bindings, hooks and middleware. Singleton
// values already cached are saved with their bindings.
func (c *Container) Snapshot() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots = append(c.snapshots, &snapshot{
		bindings:      c.bindings.Clone(),
		activations:   c.activations.Clone(),
		deactivations: c.deactivations.Clone(),
		middleware:    slices.Clone(c.middleware),
	})
	c.logger.WithField("snapshots", len(c.snapshots)).Debug("snapshot taken")
}

// Restore brings back the state saved by the latest Snapshot and discards
// it. Bindings added since are dropped without deactivation.
func (c *Container) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.snapshots) == 0 {
		return fmt.Errorf("%w: container %s", ErrNoSnapshot, c.id)
	}
	last := c.snapshots[len(c.snapshots)-1]
	c.snapshots = c.snapshots[:len(c.snapshots)-1]

	c.bindings = last.bindings
	c.activations = last.activations
	c.deactivations = last.deactivations
	c.middleware = last.middleware
	c.logger.WithField("snapshots", len(c.snapshots)).Debug("snapshot restored")
	return nil
}
