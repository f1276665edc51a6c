package goinject

import (
	"slices"
	"sync"
	"sync/atomic"
)

type requestHandle int

const noRequest requestHandle = -1

// requestTree is the arena owning every Request of one plan. Requests refer
// to their parent and children through handles into nodes.
type requestTree struct {
	mu    sync.RWMutex
	nodes []*Request
}

func (t *requestTree) node(handle requestHandle) *Request {
	if handle == noRequest {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[handle]
}

func (t *requestTree) attach(request *Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	request.handle = requestHandle(len(t.nodes))
	t.nodes = append(t.nodes, request)
}

// Request is one node of a resolution plan: the identifier being resolved,
// the Target asking for it and the bindings selected to satisfy it.
type Request struct {
	tree              *requestTree
	handle            requestHandle
	parent            requestHandle
	children          []requestHandle
	serviceIdentifier ServiceIdentifier
	target            *Target
	bindings          []*Binding
	context           *Context

	// producers counts the recipes and hooks running for this request.
	producers atomic.Int32

	// only set on the root request
	scopeMu      *sync.Mutex
	requestScope map[string]Result
}

func newRootRequest(ctx *Context, serviceIdentifier ServiceIdentifier, bindings []*Binding, target *Target) *Request {
	request := &Request{
		tree:              &requestTree{},
		parent:            noRequest,
		serviceIdentifier: serviceIdentifier,
		target:            target,
		bindings:          bindings,
		context:           ctx,
		scopeMu:           &sync.Mutex{},
		requestScope:      map[string]Result{},
	}
	request.tree.attach(request)
	return request
}

// newDetachedRequest builds a request whose parent is r but that is not one
// of r's children. Constraints are evaluated against such requests before a
// binding is selected.
func (r *Request) newDetachedRequest(serviceIdentifier ServiceIdentifier, bindings []*Binding, target *Target) *Request {
	return &Request{
		tree:              r.tree,
		handle:            noRequest,
		parent:            r.handle,
		serviceIdentifier: serviceIdentifier,
		target:            target,
		bindings:          bindings,
		context:           r.context,
	}
}

func (r *Request) AddChildRequest(serviceIdentifier ServiceIdentifier, bindings []*Binding, target *Target) *Request {
	child := &Request{
		tree:              r.tree,
		parent:            r.handle,
		serviceIdentifier: serviceIdentifier,
		target:            target,
		bindings:          bindings,
		context:           r.context,
	}
	r.tree.attach(child)
	r.children = append(r.children, child.handle)
	return child
}

func (r *Request) ServiceIdentifier() ServiceIdentifier { return r.serviceIdentifier }
func (r *Request) Target() *Target                      { return r.target }
func (r *Request) Bindings() []*Binding                 { return slices.Clone(r.bindings) }
func (r *Request) Context() *Context                    { return r.context }

// ParentRequest returns nil for the root request.
func (r *Request) ParentRequest() *Request {
	return r.tree.node(r.parent)
}

func (r *Request) ChildRequests() []*Request {
	children := make([]*Request, len(r.children))
	for i, handle := range r.children {
		children[i] = r.tree.node(handle)
	}
	return children
}

func (r *Request) Root() *Request {
	root := r
	for parent := r.ParentRequest(); parent != nil; parent = parent.ParentRequest() {
		root = parent
	}
	return root
}

// isArrayTop reports whether r collects a multi-injection fan-out, as
// opposed to being one of the fanned out requests.
func (r *Request) isArrayTop() bool {
	if !r.target.IsArray() {
		return false
	}
	parent := r.ParentRequest()
	return parent == nil || !parent.target.MatchesArray(r.target.serviceIdentifier)
}

// enter marks r as producing its binding until the returned func is called.
func (r *Request) enter() (leave func()) {
	r.producers.Add(1)
	return func() { r.producers.Add(-1) }
}

func (r *Request) isProducing(binding *Binding) bool {
	return r.producers.Load() > 0 && len(r.bindings) > 0 && r.bindings[0] == binding
}

// requestScopeGet and requestScopeSet are only called on the root request.
func (r *Request) requestScopeGet(bindingID string) (Result, bool) {
	r.scopeMu.Lock()
	defer r.scopeMu.Unlock()
	result, found := r.requestScope[bindingID]
	return result, found
}

func (r *Request) requestScopeSet(bindingID string, result Result) {
	r.scopeMu.Lock()
	defer r.scopeMu.Unlock()
	r.requestScope[bindingID] = result
}

// chain returns the identifiers from the root request down to r.
func (r *Request) chain() []ServiceIdentifier {
	chain := []ServiceIdentifier{}
	for current := r; current != nil; current = current.ParentRequest() {
		// the fanned out request below already names the identifier
		if current != r && current.isArrayTop() {
			continue
		}
		chain = append(chain, current.serviceIdentifier)
	}
	slices.Reverse(chain)
	return chain
}
