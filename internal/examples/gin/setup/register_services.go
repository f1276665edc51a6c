package setup

import (
	"database/sql"

	"github.com/victormf2/goinject"
	"github.com/victormf2/goinject/internal/examples/gin/handlers"
	"github.com/victormf2/goinject/internal/examples/gin/infra"
	"github.com/victormf2/goinject/internal/examples/gin/repositories"
)

// ServicesModule holds the application services. *logrus.Entry and
// *gin.Context are bound per request by the container middleware.
var ServicesModule = goinject.NewContainerModule(func(b *goinject.ModuleBinder) error {
	b.Bind(goinject.TypeOf[infra.DBConfig]()).ToConstantValue(infra.DBConfig{
		Path: "./database.db",
	})
	b.Bind(goinject.TypeOf[*sql.DB]()).
		To(goinject.NewClass(infra.NewDB)).
		InSingletonScope().
		OnDeactivation(infra.CloseDB)

	b.Bind(goinject.TypeOf[repositories.IUserRepository]()).
		To(goinject.NewClass(repositories.NewUserRepository)).
		InRequestScope()

	b.Bind(goinject.TypeOf[*handlers.GetUserByIDHandler]()).To(goinject.ClassFor[handlers.GetUserByIDHandler]())
	b.Bind(goinject.TypeOf[*handlers.CreateUserHandler]()).To(goinject.NewClass(handlers.NewCreateUserHandler))
	return nil
})

func RegisterServices(c *goinject.Container) error {
	return c.Load(ServicesModule)
}
