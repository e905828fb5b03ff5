// Package admin wires the back-office HTTP API for schema management, form
// configuration and dynamic record access.
package admin

import (
	"github.com/gin-gonic/gin"
	adminreg "github.com/lumenhotels/salescrm/internal/admin"
	"github.com/lumenhotels/salescrm/internal/config"
	"github.com/lumenhotels/salescrm/internal/dynmodel"
	"github.com/lumenhotels/salescrm/internal/forms"
	"github.com/lumenhotels/salescrm/internal/http/api/admin/handlers"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"gorm.io/gorm"
)

// Deps bundles the services the admin API exposes.
type Deps struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Meta     *metadata.Store
	Resolver *resolver.Resolver
	Injector *forms.Injector
	Factory  *dynmodel.Factory
	Surfaces *adminreg.Registry
}

// RegisterRoutes mounts the admin API under /v0/admin.
func RegisterRoutes(engine *gin.Engine, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT)
	healthHandler := handlers.NewHealthHandler(deps.DB)
	sectionHandler := handlers.NewSectionHandler(deps.Meta, deps.Resolver)
	fieldHandler := handlers.NewFieldHandler(deps.Meta, deps.Factory, deps.Resolver)
	modelHandler := handlers.NewModelHandler(deps.Meta, deps.Factory, deps.Resolver)
	recordHandler := handlers.NewRecordHandler(deps.DB, deps.Factory, deps.Surfaces)
	formHandler := handlers.NewFormHandler(deps.DB, deps.Resolver, deps.Injector, deps.Meta)
	requirementHandler := handlers.NewRequirementHandler(deps.DB, deps.Resolver)
	layoutHandler := handlers.NewLayoutHandler(deps.DB, deps.Resolver)
	migrationHandler := handlers.NewMigrationRecordHandler(deps.DB)
	referenceHandler := handlers.NewReferenceHandler(deps.DB)
	surfaceHandler := handlers.NewSurfaceHandler(deps.Surfaces)

	root := engine.Group("/v0/admin")
	root.GET("/healthz", healthHandler.Healthz)
	root.POST("/auth/login", authHandler.Login)

	authed := root.Group("")
	authed.Use(operatorAuthMiddleware(deps.JWT))
	{
		authed.GET("/section-definitions", sectionHandler.List)
		authed.POST("/section-definitions", sectionHandler.Create)
		authed.GET("/section-definitions/:id", sectionHandler.Get)
		authed.PUT("/section-definitions/:id", sectionHandler.Update)
		authed.DELETE("/section-definitions/:id", sectionHandler.Delete)

		authed.GET("/field-definitions/:id", fieldHandler.Get)
		authed.POST("/field-definitions", fieldHandler.Create)
		authed.PUT("/field-definitions/:id", fieldHandler.Update)
		authed.DELETE("/field-definitions/:id", fieldHandler.Delete)

		authed.GET("/model-definitions", modelHandler.List)
		authed.POST("/model-definitions", modelHandler.Create)
		authed.GET("/model-definitions/:id", modelHandler.Get)
		authed.DELETE("/model-definitions/:id", modelHandler.Delete)
		authed.POST("/model-definitions/:id/materialize", modelHandler.Materialize)

		authed.GET("/records/:formType", recordHandler.List)
		authed.POST("/records/:formType", recordHandler.Create)
		authed.GET("/records/:formType/:id", recordHandler.Get)
		authed.PUT("/records/:formType/:id", recordHandler.Update)
		authed.DELETE("/records/:formType/:id", recordHandler.Delete)

		authed.GET("/forms/:formType", formHandler.Resolve)
		authed.GET("/forms/:formType/render", formHandler.Render)
		authed.POST("/forms/:formType/values", formHandler.SaveValues)

		authed.GET("/field-requirements/:formType", requirementHandler.List)
		authed.PUT("/field-requirements/:formType", requirementHandler.Replace)

		authed.GET("/form-layouts/:formType", layoutHandler.Get)
		authed.PUT("/form-layouts/:formType", layoutHandler.Put)

		authed.GET("/migration-records", migrationHandler.List)
		authed.GET("/admin-surfaces", surfaceHandler.List)

		authed.GET("/room-types", referenceHandler.ListRoomTypes)
		authed.POST("/room-types", referenceHandler.CreateRoomType)
		authed.GET("/room-occupancies", referenceHandler.ListRoomOccupancies)
		authed.POST("/room-occupancies", referenceHandler.CreateRoomOccupancy)
		authed.GET("/cancellation-reasons", referenceHandler.ListCancellationReasons)
		authed.POST("/cancellation-reasons", referenceHandler.CreateCancellationReason)
	}
}
