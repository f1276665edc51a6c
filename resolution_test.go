package goinject

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipes(t *testing.T) {
	t.Parallel()

	t.Run("should resolve constant values", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		syntax := c.Bind("url").ToConstantValue("http://localhost")

		value, err := GetByID[string](c, "url")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost", value)
		assert.Equal(t, "Singleton", syntax.Binding().Scope().String())
		assert.Equal(t, BindingTypeConstantValue, syntax.Binding().Type())
	})

	t.Run("should bind classes to themselves", func(t *testing.T) {
		t.Parallel()

		class := NewClass(NewKatana)
		c := newTestContainer()
		c.Bind(class).ToSelf()

		katana, err := GetByID[*Katana](c, class)
		require.NoError(t, err)
		assert.Equal(t, "cut!", katana.Hit())

		assert.Panics(t, func() { c.Bind("katana").ToSelf() })
	})

	t.Run("should resolve constructors", func(t *testing.T) {
		t.Parallel()

		class := NewClass(NewKatana)
		c := newTestContainer()
		c.Bind("katanaClass").ToConstructor(class)

		value, err := GetByID[*Class](c, "katanaClass")
		require.NoError(t, err)
		assert.Same(t, class, value)
	})

	t.Run("should resolve factories", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewKatana)).WhenTargetNamed("katana")
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewShuriken)).WhenTargetNamed("shuriken")
		c.Bind("weaponFactory").ToFactory(func(ctx *Context) (any, error) {
			return func(name string) (Weapon, error) {
				return GetByID[Weapon](ctx.Container(), TypeOf[Weapon](), Named(name))
			}, nil
		})

		factory, err := GetByID[func(string) (Weapon, error)](c, "weaponFactory")
		require.NoError(t, err)
		weapon, err := factory("shuriken")
		require.NoError(t, err)
		assert.Equal(t, "hit!", weapon.Hit())
	})

	t.Run("should resolve auto factories", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[IService]()).To(NewClass(NewService))
		c.Bind("serviceFactory").ToAutoFactory(TypeOf[IService]())

		factory, err := GetByID[func() (any, error)](c, "serviceFactory")
		require.NoError(t, err)
		first, err := factory()
		require.NoError(t, err)
		second, err := factory()
		require.NoError(t, err)
		assert.NotSame(t, first, second)
	})

	t.Run("should resolve providers", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("katanaProvider").ToProvider(func(ctx *Context) (Provider, error) {
			return func() *Deferred {
				return Defer(func() (any, error) {
					return NewKatana(), nil
				})
			}, nil
		})

		provider, err := GetByID[Provider](c, "katanaProvider")
		require.NoError(t, err)
		katana, err := provider().Await(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &Katana{}, katana)
	})

	t.Run("should resolve service aliases", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewKatana)).InSingletonScope()
		c.Bind("weapon").ToService(TypeOf[Weapon]())

		weapon, err := c.Get("weapon")
		require.NoError(t, err)
		direct, err := Get[Weapon](c)
		require.NoError(t, err)
		assert.Same(t, direct, weapon)
	})

	t.Run("should fail on bindings without recipe", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("nothing")

		_, err := c.Get("nothing")
		assert.ErrorIs(t, err, ErrInvalidBindingType)
	})

	t.Run("should resolve optional dependencies to nil", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		value, err := c.Get("missing", Optional())
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("should run post construct hooks", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[*Shared]()).To(NewClass(NewShared).WithPostConstruct(func(instance any) error {
			instance.(*Shared).value = "constructed"
			return nil
		}))
		c.Bind("failing").To(NewClass(NewShared).WithPostConstruct(func(any) error {
			return customError
		}))

		shared, err := Get[*Shared](c)
		require.NoError(t, err)
		assert.Equal(t, "constructed", shared.value)

		_, err = c.Get("failing")
		assert.ErrorIs(t, err, customError)
	})

	t.Run("should inject named and tagged properties", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewKatana)).WhenTargetNamed("primary")
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewShuriken)).WhenTargetTagged("rank", "secondary")
		c.Bind(TypeOf[*Samurai]()).To(ClassFor[Samurai]())

		samurai, err := Get[*Samurai](c)
		require.NoError(t, err)
		assert.IsType(t, &Katana{}, samurai.Primary)
		assert.IsType(t, &Shuriken{}, samurai.Secondary)
		assert.Nil(t, samurai.Backup)

		primary, err := c.GetNamed(TypeOf[Weapon](), "primary")
		require.NoError(t, err)
		assert.IsType(t, &Katana{}, primary)

		secondary, err := c.GetTagged(TypeOf[Weapon](), "rank", "secondary")
		require.NoError(t, err)
		assert.IsType(t, &Shuriken{}, secondary)

		named, err := c.GetAllNamed(TypeOf[Weapon](), "primary")
		require.NoError(t, err)
		assert.Len(t, named, 1)

		tagged, err := c.GetAllTagged(TypeOf[Weapon](), "rank", "secondary")
		require.NoError(t, err)
		assert.Len(t, tagged, 1)

		// constraints are ignored by untagged multi-injections
		all, err := c.GetAll(TypeOf[Weapon]())
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("should fail when the value has another type", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("url").ToConstantValue("http://localhost")

		_, err := GetByID[int](c, "url")
		assert.ErrorContains(t, err, "not a int")
	})
}

func TestRecipeCircularity(t *testing.T) {
	t.Parallel()

	t.Run("should detect dynamic values resolving themselves", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("self").ToDynamicValue(func(ctx *Context) (any, error) {
			return ctx.Get("self")
		}).InSingletonScope()

		_, err := c.Get("self")
		require.ErrorIs(t, err, ErrCircularDependency)
		assert.ErrorContains(t, err, "DynamicValue")
	})

	t.Run("should detect factories resolving themselves", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("factory").ToFactory(func(ctx *Context) (any, error) {
			return ctx.Get("factory")
		})

		_, err := c.Get("factory")
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("should detect aliases pointing at each other", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("a").ToService("b")
		c.Bind("b").ToService("a")

		_, err := c.Get("a")
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("should detect circular constructor injections", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[IService]()).To(NewClass(NewSeeminglyHarmlessService))
		c.Bind(TypeOf[CircularDependency]()).To(NewClass(NewCircularDependency))

		_, err := Get[IService](c)
		require.ErrorIs(t, err, ErrCircularDependency)
		assert.ErrorContains(t, err, "goinject.IService --> goinject.CircularDependency --> goinject.IService")
	})

	for _, scope := range []Scope{SingletonScope, TransientScope} {
		t.Run("should detect recipes resolving themselves through the container in "+scope.String()+" scope", func(t *testing.T) {
			t.Parallel()

			c := newTestContainer()
			c.Bind("self").ToDynamicValue(func(ctx *Context) (any, error) {
				return ctx.Container().Get("self")
			}).InScope(scope)

			_, err := c.Get("self")
			require.ErrorIs(t, err, ErrCircularDependency)
			assert.ErrorContains(t, err, "the recipe for self requested itself")
		})
	}

	t.Run("should detect auto factories called while their service is produced", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("self").ToDynamicValue(func(ctx *Context) (any, error) {
			factory, err := ctx.Get("selfFactory")
			if err != nil {
				return nil, err
			}
			return factory.(func() (any, error))()
		}).InSingletonScope()
		c.Bind("selfFactory").ToAutoFactory("self")

		_, err := c.Get("self")
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("should stop deferred recipes that keep resolving themselves", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("loop").ToDeferredValue(func(ctx *Context) *Deferred {
			return Defer(func() (any, error) {
				return ctx.GetAsync(context.Background(), "loop")
			})
		})

		_, err := c.GetAsync(context.Background(), "loop")
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("should allow recipes resolving other services", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind(TypeOf[Weapon]()).To(NewClass(NewKatana))
		c.Bind("ninja").ToDynamicValue(func(ctx *Context) (any, error) {
			weapon, err := ctx.Get(TypeOf[Weapon]())
			if err != nil {
				return nil, err
			}
			return NewNinja(weapon.(Weapon)), nil
		})

		ninja, err := GetByID[*Ninja](c, "ninja")
		require.NoError(t, err)
		assert.Equal(t, "cut!", ninja.Fight())
	})
}

func TestDeferredResolution(t *testing.T) {
	t.Parallel()

	slowToken := func(*Context) *Deferred {
		return Defer(func() (any, error) {
			time.Sleep(5 * time.Millisecond)
			return "token", nil
		})
	}

	t.Run("should refuse deferred values in synchronous resolutions", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("token").ToDeferredValue(slowToken)

		_, err := c.Get("token")
		assert.ErrorIs(t, err, ErrDeferredUsedSynchronously)

		value, err := c.GetAsync(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, "token", value)
	})

	t.Run("should propagate deferred dependencies", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("token").ToDeferredValue(slowToken)
		c.Bind("client").To(NewClass(func(token string) *node {
			return &node{name: "client", next: token}
		}, Inject("token")))

		_, err := c.Get("client")
		assert.ErrorIs(t, err, ErrDeferredUsedSynchronously)

		client, err := c.GetAsync(context.Background(), "client")
		require.NoError(t, err)
		assert.Equal(t, "token", client.(*node).next)
	})

	t.Run("should share a pending singleton", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestContainer()
		c.Bind(TypeOf[IService]()).ToDeferredValue(func(*Context) *Deferred {
			calls.Add(1)
			return Defer(func() (any, error) {
				time.Sleep(5 * time.Millisecond)
				return NewService(), nil
			})
		}).InSingletonScope()

		first, err := GetAsync[IService](context.Background(), c)
		require.NoError(t, err)
		second, err := GetAsync[IService](context.Background(), c)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())

		// once settled the singleton is usable synchronously
		assert.Eventually(t, func() bool {
			_, err := Get[IService](c)
			return err == nil
		}, time.Second, time.Millisecond)
	})

	t.Run("should forget rejected singletons", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestContainer()
		syntax := c.Bind("flaky").ToDeferredValue(func(*Context) *Deferred {
			if calls.Add(1) == 1 {
				return Rejected(customError)
			}
			return Resolved("ok")
		}).InSingletonScope()

		_, err := c.GetAsync(context.Background(), "flaky")
		assert.ErrorIs(t, err, customError)
		assert.False(t, syntax.Binding().Activated())

		value, err := c.GetAsync(context.Background(), "flaky")
		require.NoError(t, err)
		assert.Equal(t, "ok", value)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("should retry a singleton rejected later", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestContainer()
		c.Bind("flaky").ToDeferredValue(func(*Context) *Deferred {
			if calls.Add(1) == 1 {
				return Defer(func() (any, error) {
					time.Sleep(time.Millisecond)
					return nil, customError
				})
			}
			return Resolved("ok")
		}).InSingletonScope()

		_, err := c.GetAsync(context.Background(), "flaky")
		assert.ErrorIs(t, err, customError)

		value, err := c.GetAsync(context.Background(), "flaky")
		require.NoError(t, err)
		assert.Equal(t, "ok", value)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("should resolve deferred multi-injections in order", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.Bind("value").ToDeferredValue(func(*Context) *Deferred {
			return Defer(func() (any, error) {
				time.Sleep(10 * time.Millisecond)
				return 1, nil
			})
		})
		c.Bind("value").ToConstantValue(2)

		values, err := c.GetAllAsync(context.Background(), "value")
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, values)
	})

	t.Run("should stop waiting when the context is done", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		c := newTestContainer()
		c.Bind("blocked").ToDeferredValue(func(*Context) *Deferred {
			return Defer(func() (any, error) {
				<-release
				return "late", nil
			})
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := c.GetAsync(ctx, "blocked")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("should wrap resolutions with the last middleware outermost", func(t *testing.T) {
		t.Parallel()

		calls := []string{}
		record := func(name string) Middleware {
			return func(next Next) Next {
				return func(args *NextArgs) (Result, error) {
					calls = append(calls, name)
					return next(args)
				}
			}
		}

		c := newTestContainer()
		c.Bind(TypeOf[IService]()).To(NewClass(NewService))
		c.ApplyMiddleware(record("first"), record("second"))

		_, err := Get[IService](c)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, calls)
	})

	t.Run("should let middleware replace failures", func(t *testing.T) {
		t.Parallel()

		c := newTestContainer()
		c.ApplyMiddleware(func(next Next) Next {
			return func(args *NextArgs) (Result, error) {
				result, err := next(args)
				if errors.Is(err, ErrNotRegistered) {
					return Ready("fallback"), nil
				}
				return result, err
			}
		})

		value, err := c.Get("missing")
		require.NoError(t, err)
		assert.Equal(t, "fallback", value)
	})

	t.Run("should intercept the planned context", func(t *testing.T) {
		t.Parallel()

		var intercepted *Context
		c := newTestContainer()
		c.Bind(TypeOf[IService]()).To(NewClass(NewService))
		c.ApplyMiddleware(func(next Next) Next {
			return func(args *NextArgs) (Result, error) {
				args.ContextInterceptor = func(ctx *Context) *Context {
					intercepted = ctx
					return ctx
				}
				return next(args)
			}
		})

		_, err := Get[IService](c)
		require.NoError(t, err)
		require.NotNil(t, intercepted)
		assert.Equal(t, c.ID(), intercepted.Container().ID())
		assert.Equal(t, TypeOf[IService](), intercepted.Plan().RootRequest().ServiceIdentifier())
	})
}
