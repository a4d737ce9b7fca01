package models

import (
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return slices.Contains(TimeSlots, fl.Field().String())
	})
	return v
}

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	kvClient       *supabase.Client
	serviceKey     string
	kvTable        string
}

// SupabaseNewRepo wraps a Supabase client. serviceKey may be empty, in which
// case admin user creation is unavailable. kvClient carries the service role
// key for the kv_store table, which is closed to the anon role; when nil the
// anon client is used.
func SupabaseNewRepo(supabaseClient, kvClient *supabase.Client, serviceKey, kvTable string) *SupabaseRepo {
	if kvTable == "" {
		kvTable = KVTableName
	}
	if kvClient == nil {
		kvClient = supabaseClient
	}
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		kvClient:       kvClient,
		serviceKey:     serviceKey,
		kvTable:        kvTable,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = KVDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func PostgresNewRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}
