package mocks

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/victormf2/goinject"
	"github.com/victormf2/goinject/internal/examples/gin/setup"
)

// DiscardLogger is an entry writing nowhere, for containers under test.
func DiscardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	return logrus.NewEntry(logger)
}

// NewTestContainer returns a root container with the application services
// loaded and a silent *logrus.Entry bound for handlers.
func NewTestContainer() (*goinject.Container, error) {
	c := goinject.NewContainer(goinject.WithLogger(DiscardLogger()))
	if err := setup.RegisterServices(c); err != nil {
		return nil, err
	}

	c.Bind(goinject.TypeOf[*logrus.Entry]()).ToDynamicValue(func(*goinject.Context) (any, error) {
		return DiscardLogger(), nil
	})
	return c, nil
}
