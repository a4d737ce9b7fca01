package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/unibook/internal/config"
	"github.com/joshua-takyi/unibook/internal/connect"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/models"
	"github.com/joshua-takyi/unibook/internal/notifier"
	"github.com/joshua-takyi/unibook/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Identity        helpers.IdentityProvider
	BookingService  *services.BookingService
	UserService     *services.UserService
	FacilityService *services.FacilityService

	jwtVerifier *helpers.JWTVerifier
}

// NewContainer wires the store, identity provider and services selected by
// cfg on top of already opened connections.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, conns *connect.Connections) (*Container, error) {
	catalog, err := models.LoadFacilityCatalog(cfg.FacilityCatalog)
	if err != nil {
		return nil, err
	}

	var supa *models.SupabaseRepo
	if conns.Supabase != nil {
		supa = models.SupabaseNewRepo(conns.Supabase, conns.SupabaseService, cfg.SupabaseServiceKey, cfg.SupabaseKVTable)
	}

	store, err := newKVStore(ctx, cfg, logger, conns, supa)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger}

	switch cfg.AuthMode {
	case config.AuthJWT:
		verifier, err := newJWTVerifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.jwtVerifier = verifier
		c.Identity = verifier
	default:
		if supa == nil {
			return nil, fmt.Errorf("AUTH_MODE=supabase requires a Supabase connection")
		}
		c.Identity = supa
	}

	var userRepo models.UserRepo
	if supa != nil {
		userRepo = supa
	}

	n := notifier.NewLogNotifier(logger)
	c.BookingService = services.NewBookingService(
		models.NewKVBookingRepo(store),
		catalog,
		n,
		logger,
		services.BookingOptions{
			StrictSlotConflicts: cfg.StrictSlotConflicts,
			StrictTransitions:   cfg.StrictTransitions,
		},
	)
	c.UserService = services.NewUserService(userRepo, n, logger)
	c.FacilityService = services.NewFacilityService(ctx, catalog, conns.Cloudinary, logger)

	logger.Info("Container ready",
		"store", cfg.StoreDriver,
		"auth", cfg.AuthMode,
		"facilities", len(catalog.All()),
		"accounts_enabled", userRepo != nil,
	)
	return c, nil
}

func (c *Container) Close() {
	if c.jwtVerifier != nil {
		c.jwtVerifier.Close()
	}
}

func newKVStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, conns *connect.Connections, supa *models.SupabaseRepo) (models.KVStore, error) {
	switch cfg.StoreDriver {
	case config.StoreSupabase:
		if supa == nil {
			return nil, fmt.Errorf("STORE_DRIVER=supabase requires a Supabase connection")
		}
		return supa, nil
	case config.StoreMongo:
		if conns.Mongo == nil {
			return nil, fmt.Errorf("STORE_DRIVER=mongo requires a MongoDB connection")
		}
		return models.MongodbNewRepo(conns.Mongo, cfg.MongoDBDatabase), nil
	case config.StorePostgres:
		if conns.Postgres == nil {
			return nil, fmt.Errorf("STORE_DRIVER=postgres requires a Postgres connection")
		}
		migrator, err := connect.NewMigrator(conns.Postgres, logger)
		if err != nil {
			return nil, err
		}
		defer migrator.Close()
		if err := migrator.Run(ctx); err != nil {
			return nil, err
		}
		return models.PostgresNewRepo(conns.Postgres), nil
	default:
		logger.Warn("Using in-memory store; bookings are lost on restart")
		return models.NewMemoryKVStore(), nil
	}
}

func newJWTVerifier(ctx context.Context, cfg *config.Config) (*helpers.JWTVerifier, error) {
	if cfg.JWTSecret != "" {
		return helpers.NewHMACVerifier(cfg.JWTSecret), nil
	}
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = helpers.SupabaseJWKSURL(cfg.SupabaseURL)
	}
	return helpers.NewJWKSVerifier(ctx, jwksURL)
}
