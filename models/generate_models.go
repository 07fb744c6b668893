package models

import (
	"fmt"
	"log"
	"os"
	"sort"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Generated query code:

Set GENERATE_MODELS=true and run the binary. The schema is migrated first, then
type-safe query helpers for every model are written to ./generated.

Column drift report:

Set GENERATE_COLUMN_REPORT=true to list columns that exist in the database but
are not mapped by any model field, per table:

	--- Table: recipes ---
	Found 1 columns not accounted for in model:
	  - legacy_rating
*/

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Subscription{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
	}
}

// Migrate creates or updates every table, index and constraint.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Set up verbose logging for migration
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger:                 newLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)
	g.ApplyBasic(All()...)

	fmt.Println("Migrating models...")
	if err := Migrate(db); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}

	g.Execute()
	fmt.Println("Model generation complete!")
	return nil
}

// ColumnDrift maps each table to the database columns no model field maps.
// Tables without drift are omitted.
func ColumnDrift(db *gorm.DB) (map[string][]string, error) {
	drift := map[string][]string{}

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("error parsing model %T: %w", model, err)
		}
		if !db.Migrator().HasTable(model) {
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("error querying columns for table %s: %w", stmt.Schema.Table, err)
		}

		var missing []string
		for _, col := range columnTypes {
			if _, ok := stmt.Schema.FieldsByDBName[col.Name()]; !ok {
				missing = append(missing, col.Name())
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			drift[stmt.Schema.Table] = missing
		}
	}

	return drift, nil
}

// PrintColumnDriftReport writes the drift report to stdout.
func PrintColumnDriftReport(db *gorm.DB) error {
	drift, err := ColumnDrift(db)
	if err != nil {
		return err
	}

	fmt.Println("=== COLUMN MISMATCH REPORT ===")
	tables := make([]string, 0, len(drift))
	for table := range drift {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	total := 0
	for _, table := range tables {
		fmt.Printf("\n--- Table: %s ---\n", table)
		fmt.Printf("Found %d columns not accounted for in model:\n", len(drift[table]))
		for _, col := range drift[table] {
			fmt.Printf("  - %s\n", col)
		}
		total += len(drift[table])
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", total)
	return nil
}
