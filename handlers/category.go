package handlers

import (
	"errors"
	"net/http"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Title *string `json:"title" binding:"required,min=1,max=255"`
	Slug  *string `json:"slug" binding:"required,min=1,max=50,slug"`
}

var categoryOrdering = newOrderFields("slug", "slug", "title", "title")

// ListCategories returns the paginated categories, searchable by slug
func ListCategories(c *gin.Context) {
	order, errs := categoryOrdering.orderClause(c, "id")
	if errs != nil {
		respondInvalid(c, errs)
		return
	}
	query := searchTerms(config.DB.Model(&models.Category{}), "slug", c.Query("search")).Order(order)

	var categories []models.Category
	p, ok := paginate(c, query, &categories)
	if !ok {
		return
	}
	data := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		data = append(data, newCategoryResponse(c, &categories[i]))
	}
	respondPage(c, categoryResource.listed(), p, data)
}

func GetCategory(c *gin.Context) {
	category, ok := findCategory(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, categoryResource.retrieved(), newCategoryResponse(c, category))
}

func CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}
	category := models.Category{IsDemo: demoMode()}
	if !applyCategory(c, &category, &req) {
		return
	}
	if err := config.DB.Create(&category).Error; err != nil {
		respondServerError(c, "create category", err)
		return
	}
	respond(c, http.StatusCreated, categoryResource.created(), newCategoryResponse(c, &category))
}

// UpdateCategory handles both PUT and PATCH
func UpdateCategory(c *gin.Context) {
	category, ok := findCategory(c)
	if !ok {
		return
	}
	partial := c.Request.Method == http.MethodPatch

	var req CategoryRequest
	if _, ok := bindJSON(c, &req, bindOptions{Partial: partial}); !ok {
		return
	}
	if !applyCategory(c, category, &req) {
		return
	}
	if !canModify(c, category.IsDemo) {
		return
	}
	if err := config.DB.Save(category).Error; err != nil {
		respondServerError(c, "update category", err)
		return
	}
	respond(c, http.StatusOK, categoryResource.updated(partial), newCategoryResponse(c, category))
}

// DeleteCategory refuses while menu items still reference the category
func DeleteCategory(c *gin.Context) {
	category, ok := findCategory(c)
	if !ok {
		return
	}
	if !canDelete(c, category.IsDemo) {
		return
	}

	var inUse int64
	if err := config.DB.Model(&models.MenuItem{}).Where("category_id = ?", category.ID).Count(&inUse).Error; err != nil {
		respondServerError(c, "count category items", err)
		return
	}
	if inUse > 0 {
		respondError(c, http.StatusConflict, "Cannot delete a category that still has menu items.")
		return
	}
	if err := config.DB.Delete(category).Error; err != nil {
		respondServerError(c, "delete category", err)
		return
	}
	respond(c, http.StatusOK, categoryResource.deleted(), nil)
}

func findCategory(c *gin.Context) (*models.Category, bool) {
	var category models.Category
	if err := config.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			respondServerError(c, "load category", err)
		}
		return nil, false
	}
	return &category, true
}

func applyCategory(c *gin.Context, category *models.Category, req *CategoryRequest) bool {
	errs := FieldErrors{}
	unique := map[string]*string{"slug": req.Slug, "title": req.Title}
	for _, column := range []string{"slug", "title"} {
		value := unique[column]
		if value == nil {
			continue
		}
		var count int64
		if err := config.DB.Model(&models.Category{}).
			Where(column+" = ? AND id <> ?", *value, category.ID).Count(&count).Error; err != nil {
			respondServerError(c, "check category "+column, err)
			return false
		}
		if count > 0 {
			errs.Add(column, "category with this "+column+" already exists.")
		}
	}
	if len(errs) > 0 {
		respondInvalid(c, errs)
		return false
	}

	if req.Title != nil {
		category.Title = *req.Title
	}
	if req.Slug != nil {
		category.Slug = *req.Slug
	}
	return true
}
