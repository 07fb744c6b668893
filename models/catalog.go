package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient is a catalog entry; (Name, MeasurementUnit) is unique.
type Ingredient struct {
	ID              uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Name            string    `json:"name" db:"name" gorm:"type:varchar(200);not null;uniqueIndex:idx_ingredient_name_unit;index"`
	MeasurementUnit string    `json:"measurement_unit" db:"measurement_unit" gorm:"type:varchar(200);not null;uniqueIndex:idx_ingredient_name_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Tag labels recipes. Name, Color and Slug are each unique.
type Tag struct {
	ID    uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Name  string    `json:"name" db:"name" gorm:"type:varchar(200);not null;uniqueIndex"`
	Color string    `json:"color" db:"color" gorm:"type:varchar(7);not null;uniqueIndex"`
	Slug  string    `json:"slug" db:"slug" gorm:"type:varchar(200);not null;uniqueIndex"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
