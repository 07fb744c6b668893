package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/foodgram-backend/models"
)

// RecipeFilter narrows a recipe listing. Zero values mean "no filter".
type RecipeFilter struct {
	AuthorID    uuid.UUID
	TagSlugs    []string
	FavoritedBy uuid.UUID
	InCartOf    uuid.UUID
}

type RecipeRepo struct {
	db *gorm.DB
}

func NewRecipeRepo(db *gorm.DB) *RecipeRepo {
	return &RecipeRepo{db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient")
}

// FindByID returns a recipe with author, tags and ingredient lines loaded.
func (r *RecipeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withDetails(r.db.WithContext(ctx).Clauses(dbresolver.Write)).
		First(&recipe, "recipes.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindPlain returns only the recipe row.
func (r *RecipeRepo) FindPlain(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).First(&recipe, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ExistsByName reports whether another recipe already uses name.
// excludeID skips the recipe being updated.
func (r *RecipeRepo) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *RecipeRepo) filtered(ctx context.Context, f RecipeFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})
	if f.AuthorID != uuid.Nil {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", r.db.
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.FavoritedBy != uuid.Nil {
		q = q.Where("recipes.id IN (?)", r.db.
			Model(&models.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != uuid.Nil {
		q = q.Where("recipes.id IN (?)", r.db.
			Model(&models.ShoppingCartItem{}).
			Select("recipe_id").
			Where("user_id = ?", f.InCartOf))
	}
	return q
}

// List returns one page of recipes, newest first, with details loaded.
func (r *RecipeRepo) List(ctx context.Context, f RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := withDetails(r.filtered(ctx, f)).
		Order("recipes.created_at DESC").Order("recipes.id ASC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	return recipes, total, err
}

// LatestByAuthor returns an author's newest recipes without associations.
// limit <= 0 returns all of them.
func (r *RecipeRepo) LatestByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Recipe, error) {
	q := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recipes []models.Recipe
	err := q.Find(&recipes).Error
	return recipes, err
}

func (r *RecipeRepo) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	return count, err
}

// Add inserts the recipe row only; tags and lines are written separately.
func (r *RecipeRepo) Add(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
}

// UpdateFields writes the given columns of a recipe.
func (r *RecipeRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ReplaceTags clears every tag link of the recipe and links tags instead.
func (r *RecipeRepo) ReplaceTags(ctx context.Context, recipeID uuid.UUID, tags []models.Tag) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	links := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		links = append(links, map[string]any{"recipe_id": recipeID, "tag_id": tag.ID})
	}
	return db.Table("recipe_tags").Create(links).Error
}

// ReplaceIngredients deletes every line of the recipe and inserts lines instead.
func (r *RecipeRepo) ReplaceIngredients(ctx context.Context, recipeID uuid.UUID, lines []models.RecipeIngredient) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	for i := range lines {
		lines[i].RecipeID = recipeID
		lines[i].Position = i
	}
	return db.Omit(clause.Associations).Create(&lines).Error
}

// Delete removes a recipe with its lines, tag links, favorites and cart rows.
func (r *RecipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.ShoppingCartItem{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
