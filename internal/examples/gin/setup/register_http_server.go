package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/victormf2/goinject"
	"github.com/victormf2/goinject/internal/examples/gin/handlers"
)

type ServerConfig struct {
	Addr string
}

// shutdownTimeout is how long in-flight requests get to finish once the
// server is unbound.
const shutdownTimeout = 5 * time.Second

// MiddlewareName tags the gin.HandlerFunc bindings the router uses, in
// registration order.
const MiddlewareName = "middleware"

func RegisterHttpServer(c *goinject.Container) {
	c.Bind(goinject.TypeOf[ServerConfig]()).ToConstantValue(ServerConfig{
		Addr: ":8080",
	})

	c.Bind(goinject.TypeOf[*gin.Engine]()).ToDynamicValue(func(ctx *goinject.Context) (any, error) {
		router := gin.New()

		middlewares, err := ctx.GetAll(goinject.TypeOf[gin.HandlerFunc](), goinject.Named(MiddlewareName))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve middlewares: %w", err)
		}
		for _, middleware := range middlewares {
			router.Use(middleware.(gin.HandlerFunc))
		}

		router.GET("/users/:id", func(c *gin.Context) {
			// Handlers come from the request's child container, so their
			// logger is the one carrying the request id.
			handler, err := resolveHandler[*handlers.GetUserByIDHandler](c)
			if err != nil {
				c.JSON(500, gin.H{"msg": err.Error()})
				return
			}

			input := &handlers.GetUserByIDInput{}
			err = c.ShouldBindUri(input)
			if err != nil {
				c.JSON(400, gin.H{"msg": err.Error()})
				return
			}

			output, err := handler.Handle(input)
			if err != nil {
				if errors.Is(err, handlers.ErrUserNotFound) {
					c.JSON(404, gin.H{"msg": err.Error()})
				} else {
					c.JSON(500, gin.H{"msg": err.Error()})
				}
				return
			}

			c.JSON(http.StatusOK, output)
		})

		router.POST("/users", func(c *gin.Context) {
			handler, err := resolveHandler[*handlers.CreateUserHandler](c)
			if err != nil {
				c.JSON(500, gin.H{"msg": err.Error()})
				return
			}

			input := &handlers.CreateUserInput{}
			err = c.ShouldBindJSON(input)
			if err != nil {
				c.JSON(400, gin.H{"msg": err.Error()})
				return
			}

			output, err := handler.Handle(input)
			if err != nil {
				c.JSON(500, gin.H{"msg": err.Error()})
				return
			}

			c.JSON(http.StatusOK, output)
		})

		return router, nil
	}).InSingletonScope()

	c.Bind(goinject.TypeOf[gin.HandlerFunc]()).
		ToConstantValue(gin.HandlerFunc(requestLogMiddleware)).
		WhenTargetNamed(MiddlewareName)
	c.Bind(goinject.TypeOf[gin.HandlerFunc]()).
		ToDynamicValue(func(ctx *goinject.Context) (any, error) {
			return containerMiddleware(ctx.Container()), nil
		}).
		InSingletonScope().
		WhenTargetNamed(MiddlewareName)

	c.Bind(goinject.TypeOf[*http.Server]()).
		To(goinject.NewClass(newServer)).
		InSingletonScope().
		OnDeactivation(shutdownServer)
}

func newServer(router *gin.Engine, config ServerConfig) *http.Server {
	return &http.Server{
		Addr:    config.Addr,
		Handler: router,
	}
}

func shutdownServer(instance any) error {
	server := instance.(*http.Server)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
