package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/foodgram-backend/models"
)

// IngredientTotal is one line of a shopping list: an ingredient and unit
// with the amount summed over every recipe in the cart.
type IngredientTotal struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type FavoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db}
}

func (r *FavoriteRepo) Exists(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return pairExists(ctx, r.db, &models.Favorite{}, userID, recipeID)
}

func (r *FavoriteRepo) Add(ctx context.Context, favorite *models.Favorite) error {
	return r.db.WithContext(ctx).Omit("User", "Recipe").Create(favorite).Error
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, recipeID uuid.UUID) (int64, error) {
	return deletePair(ctx, r.db, &models.Favorite{}, userID, recipeID)
}

// RecipeIDsAmong returns which of recipeIDs userID has favorited.
func (r *FavoriteRepo) RecipeIDsAmong(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return recipeIDsAmong(ctx, r.db, &models.Favorite{}, userID, recipeIDs)
}

type CartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) *CartRepo {
	return &CartRepo{db}
}

func (r *CartRepo) Exists(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return pairExists(ctx, r.db, &models.ShoppingCartItem{}, userID, recipeID)
}

func (r *CartRepo) Add(ctx context.Context, item *models.ShoppingCartItem) error {
	return r.db.WithContext(ctx).Omit("User", "Recipe").Create(item).Error
}

func (r *CartRepo) Delete(ctx context.Context, userID, recipeID uuid.UUID) (int64, error) {
	return deletePair(ctx, r.db, &models.ShoppingCartItem{}, userID, recipeID)
}

// RecipeIDsAmong returns which of recipeIDs sit in userID's cart.
func (r *CartRepo) RecipeIDsAmong(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return recipeIDsAmong(ctx, r.db, &models.ShoppingCartItem{}, userID, recipeIDs)
}

// ShoppingList sums ingredient amounts over every recipe in userID's cart,
// grouped by ingredient name and unit and sorted by name then unit.
func (r *CartRepo) ShoppingList(ctx context.Context, userID uuid.UUID) ([]IngredientTotal, error) {
	var totals []IngredientTotal
	err := r.db.WithContext(ctx).
		Table("shopping_cart_items AS sc").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS amount").
		Joins("JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name ASC, i.measurement_unit ASC").
		Scan(&totals).Error
	return totals, err
}

func pairExists(ctx context.Context, db *gorm.DB, model any, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func deletePair(ctx context.Context, db *gorm.DB, model any, userID, recipeID uuid.UUID) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	return res.RowsAffected, res.Error
}

func recipeIDsAmong(ctx context.Context, db *gorm.DB, model any, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}
