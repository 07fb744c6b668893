package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	api "github.com/rpupo63/foodgram-backend/api"
	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)
	log.Info().Msg("Initializing app...")

	ctx := context.Background()
	if path := config.GetString(c, "CONFIG_FILE", ""); path != "" {
		n, err := config.LoadFile(c, path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Error loading config file")
		}
		log.Info().Int("keys", n).Str("path", path).Msg("config file loaded")
	}
	if prefix := config.GetString(c, "SSM_PARAMETER_PATH", ""); prefix != "" {
		n, err := config.LoadSSM(ctx, c, prefix)
		if err != nil {
			log.Fatal().Err(err).Str("prefix", prefix).Msg("Error loading SSM parameters")
		}
		log.Info().Int("keys", n).Str("prefix", prefix).Msg("SSM parameters loaded")
	}

	db, err := database.Open(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db, config.GetString(c, "GENERATE_OUT_PATH", "./query")); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		if err := models.PrintColumnDriftReport(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		return
	}

	if err := models.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}
	currentDB := database.New(db)

	if loaded, err := runLoaders(ctx, c, currentDB); err != nil {
		log.Fatal().Err(err).Msg("Error loading catalog")
	} else if loaded {
		return
	}

	images, err := services.NewImageStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing image storage")
	}

	// room for both senders so neither blocks after shutdown
	errChannel := make(chan error, 2)

	server, err := api.NewServer(c, currentDB, images)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	closeDB(db)
}

// setupLogging uses a console writer outside production.
func setupLogging(c map[string]string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if config.GetBool(c, "DEBUG", false) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if config.GetString(c, "ENV", "development") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// runLoaders imports the CSV files named by LOAD_INGREDIENTS and LOAD_TAGS.
// It reports whether any loader ran, in which case the process exits.
func runLoaders(ctx context.Context, c map[string]string, db database.Database) (bool, error) {
	loader := services.NewCatalogLoader(db)
	jobs := []struct {
		key  string
		load func(context.Context, *os.File) (int64, error)
	}{
		{"LOAD_INGREDIENTS", func(ctx context.Context, f *os.File) (int64, error) { return loader.LoadIngredients(ctx, f) }},
		{"LOAD_TAGS", func(ctx context.Context, f *os.File) (int64, error) { return loader.LoadTags(ctx, f) }},
	}

	ran := false
	for _, job := range jobs {
		path := config.GetString(c, job.key, "")
		if path == "" {
			continue
		}
		ran = true

		f, err := os.Open(path)
		if err != nil {
			return ran, fmt.Errorf("%s: %w", job.key, err)
		}
		added, err := job.load(ctx, f)
		f.Close()
		if err != nil {
			return ran, fmt.Errorf("%s: %w", job.key, err)
		}
		log.Info().Str("path", path).Int64("added", added).Msgf("%s finished", job.key)
	}
	return ran, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
