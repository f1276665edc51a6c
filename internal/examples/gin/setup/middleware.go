package setup

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/victormf2/goinject"
)

const containerKey = "container"

func requestLogMiddleware(c *gin.Context) {
	start := time.Now()

	// Process request
	c.Next()

	log.WithFields(log.Fields{
		"status":    c.Writer.Status(),
		"duration":  time.Since(start),
		"client_ip": c.ClientIP(),
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
	}).Info("request handled")
}

// containerMiddleware gives every request its own child container. Values
// bound there win over the root bindings for everything resolved through
// it.
func containerMiddleware(rootContainer *goinject.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c := goinject.CreateChildContainer(rootContainer)

		c.Bind(goinject.TypeOf[*gin.Context]()).ToConstantValue(ctx)

		logger := log.WithFields(log.Fields{
			"request_id": uuid.NewString(),
		})
		c.Bind(goinject.TypeOf[*log.Entry]()).ToConstantValue(logger)

		ctx.Set(containerKey, c)

		ctx.Next()
	}
}

var ErrNoContainerInContext = errors.New("no container in context")

// resolveHandler resolves T from the container of the current request.
func resolveHandler[T any](c *gin.Context) (T, error) {
	var zero T
	value, found := c.Get(containerKey)
	if !found {
		return zero, ErrNoContainerInContext
	}

	container, ok := value.(*goinject.Container)
	if !ok {
		return zero, ErrNoContainerInContext
	}

	return goinject.Get[T](container)
}
