package connect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/unibook/internal/config"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connections holds the external clients the configuration asks for. Any of
// them may be nil.
type Connections struct {
	Supabase *supabase.Client
	// SupabaseService authenticates with the service role key; nil when the
	// key is not configured.
	SupabaseService *supabase.Client
	Mongo           *mongo.Client
	Postgres        *pgxpool.Pool
	Cloudinary      *cloudinary.Cloudinary
}

// Open connects to every backend selected by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Connections, error) {
	conns := &Connections{}

	if cfg.UsesSupabase() {
		client, err := InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Supabase: %w", err)
		}
		conns.Supabase = client

		if cfg.SupabaseServiceKey != "" {
			service, err := InitSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey)
			if err != nil {
				return nil, fmt.Errorf("failed to create Supabase service client: %w", err)
			}
			conns.SupabaseService = service
		}
		logger.Info("Connected to Supabase successfully", "service_role", conns.SupabaseService != nil)
	}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword)
		if err != nil {
			conns.Close(logger)
			return nil, err
		}
		conns.Mongo = client
		logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBDatabase)
	case config.StorePostgres:
		pool, err := PostgresConnect(ctx, cfg.PostgresDSN)
		if err != nil {
			conns.Close(logger)
			return nil, err
		}
		conns.Postgres = pool
		logger.Info("Connected to Postgres successfully")
	}

	if cfg.UsesCloudinary() {
		cld, err := CloudinaryCredentials(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			conns.Close(logger)
			return nil, err
		}
		conns.Cloudinary = cld
		logger.Info("Cloudinary configured", "cloud_name", cfg.CloudinaryCloudName)
	}

	return conns, nil
}

// Close releases every open client. Safe to call on a partially opened set.
func (c *Connections) Close(logger *slog.Logger) {
	if c.Mongo != nil {
		if err := MongoDBDisconnect(c.Mongo); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
		c.Mongo = nil
	}
	if c.Postgres != nil {
		c.Postgres.Close()
		c.Postgres = nil
	}
	c.Supabase = nil
	c.SupabaseService = nil
}

func InitSupabase(url, key string) (*supabase.Client, error) {
	return supabase.NewClient(url, key, nil)
}

// MongoDBConnect substitutes password for the "<password>" placeholder of
// Atlas connection strings.
func MongoDBConnect(ctx context.Context, uri, password string) (*mongo.Client, error) {
	fullURI := strings.Replace(uri, "<password>", password, 1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fullURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

func PostgresConnect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return pool, nil
}

func CloudinaryCredentials(cloudName, apiKey, apiSecret string) (*cloudinary.Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return cld, nil
}
