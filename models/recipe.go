package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is the central aggregate. Its ingredient lines and tag links are
// owned by it and rewritten together with it.
type Recipe struct {
	ID          uuid.UUID          `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	AuthorID    uuid.UUID          `json:"author_id" db:"author_id" gorm:"type:uuid;not null;index"`
	Name        string             `json:"name" db:"name" gorm:"type:varchar(200);not null;uniqueIndex"`
	Image       string             `json:"image" db:"image" gorm:"type:text;not null"`
	Text        string             `json:"text" db:"text" gorm:"type:text;not null"`
	CookingTime int                `json:"cooking_time" db:"cooking_time" gorm:"not null;check:cooking_time >= 1"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at" gorm:"not null;index"`
	Author      User               `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags        []Tag              `json:"tags,omitempty" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;references:ID;constraint:OnDelete:CASCADE"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeIngredient is one line of a recipe. Position keeps the order the
// author supplied; an ingredient appears at most once per recipe.
type RecipeIngredient struct {
	ID           uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	RecipeID     uuid.UUID  `json:"recipe_id" db:"recipe_id" gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient_unique"`
	IngredientID uuid.UUID  `json:"ingredient_id" db:"ingredient_id" gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient_unique;index"`
	Amount       int        `json:"amount" db:"amount" gorm:"not null;check:amount >= 1"`
	Position     int        `json:"-" db:"position" gorm:"not null;default:0"`
	Ingredient   Ingredient `json:"ingredient" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}
