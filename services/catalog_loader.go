package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
)

// CatalogLoader bulk-loads ingredients and tags from CSV files.
type CatalogLoader struct {
	db     database.Database
	logger zerolog.Logger
}

func NewCatalogLoader(db database.Database) *CatalogLoader {
	return &CatalogLoader{
		db:     db,
		logger: log.With().Str("serviceName", "catalogLoader").Logger(),
	}
}

type ingredientRow struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

type tagRow struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor6"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// LoadIngredients reads name,measurement_unit rows. Existing pairs are kept
// as they are; the number of new rows is returned.
func (l *CatalogLoader) LoadIngredients(ctx context.Context, r io.Reader) (int64, error) {
	var ingredients []models.Ingredient
	err := readRows(r, 2, func(line int, fields []string) error {
		row := ingredientRow{Name: fields[0], MeasurementUnit: fields[1]}
		if err := validateStruct(row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		ingredients = append(ingredients, models.Ingredient{Name: row.Name, MeasurementUnit: row.MeasurementUnit})
		return nil
	})
	if err != nil {
		return 0, err
	}

	added, err := l.db.IngredientRepo().AddIgnoringDuplicates(ctx, ingredients)
	if err != nil {
		return 0, fmt.Errorf("failed to store ingredients: %w", err)
	}

	l.logger.Info().Int("read", len(ingredients)).Int64("added", added).Msg("ingredients loaded")
	return added, nil
}

// LoadTags reads name,color,slug rows.
func (l *CatalogLoader) LoadTags(ctx context.Context, r io.Reader) (int64, error) {
	var tags []models.Tag
	err := readRows(r, 3, func(line int, fields []string) error {
		row := tagRow{Name: fields[0], Color: fields[1], Slug: fields[2]}
		if err := validateStruct(row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		tags = append(tags, models.Tag{Name: row.Name, Color: row.Color, Slug: row.Slug})
		return nil
	})
	if err != nil {
		return 0, err
	}

	added, err := l.db.TagRepo().AddIgnoringDuplicates(ctx, tags)
	if err != nil {
		return 0, fmt.Errorf("failed to store tags: %w", err)
	}

	l.logger.Info().Int("read", len(tags)).Int64("added", added).Msg("tags loaded")
	return added, nil
}

// readRows calls fn for every non-blank record, trimmed and padded to width.
func readRows(r io.Reader, width int, fn func(line int, fields []string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		fields := make([]string, width)
		blank := true
		for i := 0; i < width && i < len(record); i++ {
			fields[i] = strings.TrimSpace(record[i])
			if fields[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
}
