package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/errs"
)

// Open connects to the store selected by DB_TYPE and registers read replicas
// from DB_REPLICA_DSNS when present.
func Open(c map[string]string) (*gorm.DB, error) {
	dbLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             config.GetSeconds(c, "DB_SLOW_THRESHOLD_SECONDS", 10*time.Second),
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{
		PrepareStmt: false,
		Logger:      dbLogger,
	}

	dbType := config.GetString(c, "DB_TYPE", "postgres")
	zlog.Info().Str("dbType", dbType).Msg("connecting to database")

	switch dbType {
	case "postgres", "supa":
		dsn := postgresDSN(c, dbType)
		zlog.Debug().Str("dsn", redactDSN(dsn)).Msg("postgres connection string")
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		if err := registerReplicas(db, config.GetList(c, "DB_REPLICA_DSNS", nil)); err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		return OpenSQLite(config.GetString(c, "SQLITE_PATH", "foodgram.db"), gormConfig)
	default:
		return nil, errs.NewConfigInvalidError("DB_TYPE", fmt.Sprintf("unsupported value %q", dbType))
	}
}

// OpenSQLite opens a sqlite file (or ":memory:") with foreign keys enforced.
// The pool is held to one connection: sqlite serialises writers anyway and an
// in-memory database exists only on the connection that created it.
func OpenSQLite(path string, gormConfig *gorm.Config) (*gorm.DB, error) {
	if gormConfig == nil {
		gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	if path == ":memory:" {
		path = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func postgresDSN(c map[string]string, dbType string) string {
	if dbType == "supa" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(c, "SUPABASE_DB_HOST", ""),
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", ""),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, "DB_HOST", "localhost"),
		config.GetString(c, "DB_USER", "foodgram"),
		config.GetString(c, "DB_PASSWORD", ""),
		config.GetString(c, "DB_NAME", "foodgram"),
		config.GetString(c, "DB_PORT", "5432"),
		config.GetString(c, "DB_SSLMODE", "disable"),
	)
}

// registerReplicas routes plain reads to the replicas. Writes, transactions
// and queries marked with dbresolver.Write stay on the source.
func registerReplicas(db *gorm.DB, dsns []string) error {
	if len(dsns) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, 0, len(dsns))
	for _, dsn := range dsns {
		replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
	}

	if err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	})); err != nil {
		return fmt.Errorf("error registering read replicas: %w", err)
	}

	zlog.Info().Int("replicas", len(dsns)).Msg("read replicas registered")
	return nil
}

func redactDSN(dsn string) string {
	parts := strings.Fields(dsn)
	for i, p := range parts {
		if strings.HasPrefix(p, "password=") {
			parts[i] = "password=***"
		}
	}
	return strings.Join(parts, " ")
}
