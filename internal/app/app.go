// Package app boots the sales CRM service: configuration, logging, database,
// the dynamic schema services and the admin HTTP API.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	adminreg "github.com/lumenhotels/salescrm/internal/admin"
	"github.com/lumenhotels/salescrm/internal/config"
	internaldb "github.com/lumenhotels/salescrm/internal/db"
	"github.com/lumenhotels/salescrm/internal/dynmodel"
	"github.com/lumenhotels/salescrm/internal/forms"
	adminapi "github.com/lumenhotels/salescrm/internal/http/api/admin"
	"github.com/lumenhotels/salescrm/internal/logging"
	"github.com/lumenhotels/salescrm/internal/metadata"
	"github.com/lumenhotels/salescrm/internal/models"
	"github.com/lumenhotels/salescrm/internal/resolver"
	"github.com/lumenhotels/salescrm/internal/schema"
	"github.com/lumenhotels/salescrm/internal/security"
	"github.com/lumenhotels/salescrm/internal/valuestore"
)

// Native entity form types exposed to the configuration layer.
const (
	FormTypeAccount   = "crm.account"
	FormTypeRequest   = "crm.request"
	FormTypeAgreement = "crm.agreement"
	FormTypeSalesCall = "crm.salescall"
)

// Migrate runs the schema migrations and seeds the default operator.
func Migrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := internaldb.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := seedOperator(conn); errSeed != nil {
		return errSeed
	}
	log.Info("app: migrations applied")
	return nil
}

// RunServer boots the service and blocks until ctx is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := internaldb.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := seedOperator(conn); errSeed != nil {
		return errSeed
	}

	deps, errDeps := buildServices(conn, cfg)
	if errDeps != nil {
		return errDeps
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	adminapi.RegisterRoutes(engine, deps)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("app: admin api listening")
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		log.Info("app: server stopped")
		return nil
	case errServe := <-errCh:
		return errServe
	}
}

// buildServices wires the dynamic schema services and registers the native
// entity prototypes. Active dynamic models are re-materialized so their
// admin surfaces survive restarts.
func buildServices(conn *gorm.DB, cfg *config.Config) (adminapi.Deps, error) {
	registry := metadata.NewRegistry()
	prototypes := map[string]any{
		FormTypeAccount:   &models.Account{},
		FormTypeRequest:   &models.Request{},
		FormTypeAgreement: &models.Agreement{},
		FormTypeSalesCall: &models.SalesCall{},
	}
	for formType, prototype := range prototypes {
		if err := registry.Register(formType, prototype); err != nil {
			return adminapi.Deps{}, fmt.Errorf("app: register %s: %w", formType, err)
		}
	}

	meta := metadata.NewStore(conn, registry)
	if err := meta.SyncCoreSections(); err != nil {
		return adminapi.Deps{}, err
	}

	var cache resolver.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = resolver.NewRedisCache(client)
		log.WithField("addr", cfg.Redis.Addr).Info("app: using redis configuration cache")
	}

	configResolver := resolver.New(conn, meta, cache)
	values := valuestore.NewStore(conn)
	injector := forms.NewInjector(configResolver, values, meta)
	surfaces := adminreg.NewRegistry()
	factory := dynmodel.New(conn, meta, schema.NewManager(conn), surfaces)

	defs, errList := meta.ListModels()
	if errList != nil {
		return adminapi.Deps{}, errList
	}
	for _, def := range defs {
		if _, errMat := factory.Materialize(def.ID); errMat != nil {
			log.WithField("model", def.Name).WithError(errMat).Warn("app: model re-materialization failed")
		}
	}

	return adminapi.Deps{
		DB:       conn,
		JWT:      cfg.JWT,
		Meta:     meta,
		Resolver: configResolver,
		Injector: injector,
		Factory:  factory,
		Surfaces: surfaces,
	}, nil
}

// seedOperator creates the initial admin operator when none exists. The
// password comes from SALESCRM_ADMIN_PASSWORD or is generated and logged.
func seedOperator(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Operator{}).Count(&count).Error; err != nil {
		return fmt.Errorf("app: count operators: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("SALESCRM_ADMIN_PASSWORD")
	generated := false
	if password == "" {
		raw := make([]byte, 16)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("app: generate password: %w", err)
		}
		password = hex.EncodeToString(raw)
		generated = true
	}

	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}
	operator := models.Operator{Username: "admin", Password: hashed, Active: true}
	if errCreate := conn.Create(&operator).Error; errCreate != nil {
		return fmt.Errorf("app: seed operator: %w", errCreate)
	}

	if generated {
		log.WithField("username", operator.Username).
			Infof("app: created default operator with password %s", password)
	} else {
		log.WithField("username", operator.Username).Info("app: created default operator")
	}
	return nil
}
