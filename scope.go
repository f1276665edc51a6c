package goinject

// Scope decides whether and where a binding's produced value is reused.
//
// Get returns a previously stored result for binding. Set stores a freshly
// produced (and already activated) result and returns what callers should
// use. request is the request being resolved; its Root carries the state
// shared by one resolution call.
type Scope interface {
	Get(binding *Binding, request *Request) (Result, bool)
	Set(binding *Binding, request *Request, result Result) Result
	Clone() Scope
	String() string
}

// exclusiveScope is implemented by scopes that must serialize value
// creation per binding, so concurrent resolutions run a recipe only once.
type exclusiveScope interface {
	acquire(binding *Binding) (release func())
}

var (
	TransientScope Scope = transientScope{}
	SingletonScope Scope = singletonScope{}
	RequestScope   Scope = requestScope{}
)

type transientScope struct{}

func (transientScope) Get(*Binding, *Request) (Result, bool) {
	return Result{}, false
}

func (transientScope) Set(_ *Binding, _ *Request, result Result) Result {
	return result
}

func (transientScope) Clone() Scope   { return transientScope{} }
func (transientScope) String() string { return "Transient" }

// singletonScope keeps the value on the binding itself, shared by every
// resolution, see Binding.store.
type singletonScope struct{}

func (singletonScope) Get(binding *Binding, _ *Request) (Result, bool) {
	binding.cacheMu.Lock()
	defer binding.cacheMu.Unlock()
	if !binding.activated {
		return Result{}, false
	}
	return binding.cache, true
}

func (singletonScope) Set(binding *Binding, _ *Request, result Result) Result {
	return binding.store(result)
}

func (singletonScope) acquire(binding *Binding) func() {
	binding.createMu.Lock()
	return binding.createMu.Unlock
}

func (singletonScope) Clone() Scope   { return singletonScope{} }
func (singletonScope) String() string { return "Singleton" }

// requestScope shares one value per binding across a single resolution
// tree, so a binding reached twice in one graph is produced once.
type requestScope struct{}

func (requestScope) Get(binding *Binding, request *Request) (Result, bool) {
	return request.Root().requestScopeGet(binding.id)
}

func (requestScope) Set(binding *Binding, request *Request, result Result) Result {
	request.Root().requestScopeSet(binding.id, result)
	return result
}

func (requestScope) Clone() Scope   { return requestScope{} }
func (requestScope) String() string { return "Request" }

func resetSingleton(binding *Binding) {
	binding.cacheMu.Lock()
	defer binding.cacheMu.Unlock()
	binding.activated = false
	binding.cache = Result{}
}
