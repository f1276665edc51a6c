package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/victormf2/goinject"
	"github.com/victormf2/goinject/internal/examples/gin/setup"
)

// Some of this code was taken from the GIN graceful shutdown example
// and adapted to run with goinject
// https://github.com/gin-gonic/examples/blob/9fd0db1d6a7cdfd8dd1e0b163146674ea9d4ecfd/graceful-shutdown/graceful-shutdown/notify-with-context/server.go
func main() {
	c := goinject.NewContainer(goinject.WithLogger(log.WithField("app", "gin-example")))

	if err := setup.RegisterServices(c); err != nil {
		log.Fatalf("failed to register services: %s", err)
	}
	setup.RegisterHttpServer(c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := goinject.Get[*http.Server](c)
	if err != nil {
		log.Fatalf("failed to build server: %s", err)
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s", err)
		}
	}()

	// Listen for the interrupt signal.
	<-ctx.Done()

	// Restore default behavior on the interrupt signal and notify user of shutdown.
	stop()
	log.Info("shutting down gracefully, press Ctrl+C again to force")

	// Unbinding deactivates the singletons: the server is shut down and
	// the database closed.
	if err := c.UnbindAll(); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
	}

	log.Info("Server exiting")
}
