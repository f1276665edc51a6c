package goinject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/victormf2/goinject/internal"
)

var (
	ErrNotRegistered             = errors.New("no matching bindings found for service identifier")
	ErrAmbiguousMatch            = errors.New("ambiguous match found for service identifier")
	ErrCircularDependency        = errors.New("circular dependency found")
	ErrInvalidBindingType        = errors.New("invalid binding type")
	ErrMissingAnnotation         = errors.New("missing required injection metadata")
	ErrDeferredUsedSynchronously = errors.New("deferred value used in a synchronous resolution")
	ErrDeactivation              = errors.New("deactivation failed")
	ErrNotBound                  = errors.New("no bindings found for service identifier")
	ErrNoSnapshot                = errors.New("no snapshot available to restore")
	ErrNoContainer               = errors.New("context is not attached to a container")
)

func notRegisteredError(container *Container, target *Target) error {
	identifier := identifierString(target.ServiceIdentifier())
	return fmt.Errorf(
		"%w: %s%s%s",
		ErrNotRegistered,
		identifier,
		listMetadataForTarget(identifier, target),
		listRegisteredBindings(container, target.ServiceIdentifier()),
	)
}

func ambiguousMatchError(container *Container, target *Target) error {
	identifier := identifierString(target.ServiceIdentifier())
	return fmt.Errorf(
		"%w: %s%s",
		ErrAmbiguousMatch,
		identifier,
		listRegisteredBindings(container, target.ServiceIdentifier()),
	)
}

func circularDependencyError(chain []ServiceIdentifier) error {
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(internal.Map(chain, identifierString), " --> "))
}

func circularDependencyInRecipeError(bindingType BindingType, serviceIdentifier ServiceIdentifier) error {
	return fmt.Errorf(
		"%w in %s: the recipe for %s requested itself while it was being produced",
		ErrCircularDependency,
		bindingType,
		identifierString(serviceIdentifier),
	)
}

func resolutionTooDeepError(serviceIdentifier ServiceIdentifier) error {
	return fmt.Errorf(
		"%w: more than %d chained resolutions while resolving %s",
		ErrCircularDependency,
		maxResolutionDepth,
		identifierString(serviceIdentifier),
	)
}

func deferredUsedSynchronouslyError(serviceIdentifier ServiceIdentifier) error {
	return fmt.Errorf(
		"%w: %s produced a deferred value, use the async resolution methods instead",
		ErrDeferredUsedSynchronously,
		identifierString(serviceIdentifier),
	)
}

func deactivationError(instance any, err error) error {
	return fmt.Errorf("%w for %s: %w", ErrDeactivation, typeName(instance), err)
}

func listMetadataForTarget(identifier string, target *Target) string {
	namedTag, isNamed := target.NamedTag()
	customTags := target.CustomTags()
	if !isNamed && len(customTags) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n ")
	sb.WriteString(identifier)
	if isNamed {
		fmt.Fprintf(&sb, " - named: %v", namedTag.Value)
	}
	for _, tag := range customTags {
		fmt.Fprintf(&sb, " - tagged: {key: %v, value: %v}", tag.Key, tag.Value)
	}
	return sb.String()
}

func listRegisteredBindings(container *Container, serviceIdentifier ServiceIdentifier) string {
	bindings, _ := container.bindingsFor(serviceIdentifier)
	if len(bindings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nRegistered bindings:")
	for _, binding := range bindings {
		sb.WriteString("\n ")
		sb.WriteString(binding.implementationName())
		if binding.constraintTag != nil {
			if binding.constraintTag.Key == NamedTag {
				fmt.Fprintf(&sb, " - named: %v", binding.constraintTag.Value)
			} else {
				fmt.Fprintf(&sb, " - tagged: {key: %v, value: %v}", binding.constraintTag.Key, binding.constraintTag.Value)
			}
		}
	}
	return sb.String()
}
