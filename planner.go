package goinject

import (
	"github.com/victormf2/goinject/internal"
)

// PlanOptions describes the root of a resolution.
type PlanOptions struct {
	ServiceIdentifier ServiceIdentifier
	IsMultiInject     bool
	IsOptional        bool
	// TargetKind defaults to TargetKindVariable.
	TargetKind TargetKind
	// Key and Value attach one ad-hoc tag to the root target when Key is
	// not nil.
	Key   any
	Value any
	// AvoidConstraints skips constraint filtering for the root identifier
	// only. Dependencies are always filtered.
	AvoidConstraints bool
	// Parent is the context whose recipe started this resolution, if any.
	Parent *Context
}

// BuildPlan builds the request tree for options.ServiceIdentifier as seen from
// container, selecting bindings and recursing into class dependencies read
// through reader.
func BuildPlan(reader MetadataReader, container *Container, options PlanOptions) (*Context, error) {
	ctx := newContext(container, options.Parent)
	if ctx.depth > maxResolutionDepth {
		return nil, resolutionTooDeepError(options.ServiceIdentifier)
	}

	metadata := []Metadata{}
	if options.IsMultiInject {
		metadata = append(metadata, Metadata{Key: MultiInjectTag, Value: options.ServiceIdentifier})
	} else {
		metadata = append(metadata, Metadata{Key: InjectTag, Value: options.ServiceIdentifier})
	}
	if options.IsOptional {
		metadata = append(metadata, Metadata{Key: OptionalTag, Value: true})
	}
	if options.Key != nil {
		metadata = append(metadata, Metadata{Key: options.Key, Value: options.Value})
	}

	kind := options.TargetKind
	if kind == 0 {
		kind = TargetKindVariable
	}
	target := newTarget(kind, "", -1, options.ServiceIdentifier, metadata)

	p := &planner{reader: reader, ctx: ctx}
	rootRequest, err := p.createSubRequests(options.AvoidConstraints, options.ServiceIdentifier, nil, target)
	if err != nil {
		return nil, err
	}

	ctx.plan = &Plan{context: ctx, rootRequest: rootRequest}
	return ctx, nil
}

// maxResolutionDepth bounds resolutions chained through recipes. Deeper
// chains only come from recipes that keep resolving themselves after their
// synchronous part returned.
const maxResolutionDepth = 256

type planner struct {
	reader MetadataReader
	ctx    *Context
}

func (p *planner) createSubRequests(avoidConstraints bool, serviceIdentifier ServiceIdentifier, parentRequest *Request, target *Target) (*Request, error) {
	bindings, err := p.activeBindings(avoidConstraints, serviceIdentifier, parentRequest, target)
	if err != nil {
		return nil, err
	}

	var request *Request
	if parentRequest == nil {
		request = newRootRequest(p.ctx, serviceIdentifier, bindings, target)
	} else {
		request = parentRequest.AddChildRequest(serviceIdentifier, bindings, target)
	}

	for _, binding := range bindings {
		subRequest := request
		if target.IsArray() {
			subRequest = request.AddChildRequest(binding.serviceIdentifier, []*Binding{binding}, target)
		} else if isCachedSingleton(binding) {
			continue
		}

		if binding.bindingType != BindingTypeInstance {
			continue
		}

		if err := checkCircular(subRequest, binding); err != nil {
			return nil, err
		}

		dependencies, err := p.dependencies(binding.class)
		if err != nil {
			return nil, err
		}
		for _, dependency := range dependencies {
			_, err := p.createSubRequests(false, dependency.ServiceIdentifier(), subRequest, dependency)
			if err != nil {
				return nil, err
			}
		}
	}

	return request, nil
}

func (p *planner) activeBindings(avoidConstraints bool, serviceIdentifier ServiceIdentifier, parentRequest *Request, target *Target) ([]*Binding, error) {
	bindings, _ := p.ctx.container.bindingsFor(serviceIdentifier)

	if !avoidConstraints {
		bindings = internal.Filter(bindings, func(binding *Binding) bool {
			var request *Request
			if parentRequest == nil {
				request = newRootRequest(p.ctx, serviceIdentifier, []*Binding{binding}, target)
			} else {
				request = parentRequest.newDetachedRequest(serviceIdentifier, []*Binding{binding}, target)
			}
			return binding.matches(request)
		})
	}

	switch {
	case len(bindings) == 0 && target.IsOptional():
		return bindings, nil
	case len(bindings) == 0:
		return nil, notRegisteredError(p.ctx.container, target)
	case len(bindings) > 1 && !target.IsArray():
		return nil, ambiguousMatchError(p.ctx.container, target)
	default:
		return bindings, nil
	}
}

func (p *planner) dependencies(class *Class) ([]*Target, error) {
	constructorTargets, err := p.reader.ConstructorMetadata(class)
	if err != nil {
		return nil, err
	}
	propertyTargets, err := p.reader.PropertyMetadata(class)
	if err != nil {
		return nil, err
	}
	return append(constructorTargets, propertyTargets...), nil
}

// checkCircular fails when binding is already being planned by an ancestor
// of request. Expanding it again would never terminate.
func checkCircular(request *Request, binding *Binding) error {
	for ancestor := request.ParentRequest(); ancestor != nil; ancestor = ancestor.ParentRequest() {
		if len(ancestor.bindings) == 1 && ancestor.bindings[0] == binding && !ancestor.isArrayTop() {
			return circularDependencyError(request.chain())
		}
	}
	return nil
}

func isCachedSingleton(binding *Binding) bool {
	if _, ok := binding.scope.(singletonScope); !ok {
		return false
	}
	return binding.Activated()
}
