package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuItemRequest struct {
	Title    *string       `json:"title" binding:"required,min=1,max=255"`
	Price    *models.Money `json:"price" binding:"required"`
	Featured *bool         `json:"featured"`
	Category *uint         `json:"category" binding:"required"`
}

var menuItemOrdering = newOrderFields("id", "id", "title", "title", "price", "price")

// ListMenuItems returns the paginated menu with price, featured and category filters
func ListMenuItems(c *gin.Context) {
	query := config.DB.Model(&models.MenuItem{})

	errs := FieldErrors{}
	if v := c.Query("price__lte"); v != "" {
		price, err := models.ParseMoney(v)
		if err != nil {
			errs.Add("price__lte", "Enter a number.")
		} else {
			query = query.Where("price <= ?", price)
		}
	}
	if v := c.Query("featured"); v != "" {
		featured, ok := parseBoolParam(v)
		if !ok {
			errs.Add("featured", "Must be a valid boolean.")
		} else {
			query = query.Where("featured = ?", featured)
		}
	}
	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs.Add("category", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			query = query.Where("category_id = ?", id)
		}
	}
	order, orderErrs := menuItemOrdering.orderClause(c, "id")
	for field, msgs := range orderErrs {
		errs[field] = msgs
	}
	if len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}
	query = searchTerms(query, "title", c.Query("search")).Order(order)

	var items []models.MenuItem
	p, ok := paginate(c, query, &items, preload("Category"))
	if !ok {
		return
	}
	data := make([]menuItemResponse, 0, len(items))
	for i := range items {
		data = append(data, newMenuItemResponse(c, &items[i]))
	}
	respondPage(c, menuItemResource.listed(), p, data)
}

// GetMenuItem returns one menu item
func GetMenuItem(c *gin.Context) {
	item, ok := findMenuItem(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, menuItemResource.retrieved(), newMenuItemResponse(c, item))
}

// CreateMenuItem adds an item to the menu (manager only)
func CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}

	item := models.MenuItem{IsDemo: demoMode()}
	if !applyMenuItem(c, &item, &req) {
		return
	}
	if err := config.DB.Omit("Category").Create(&item).Error; err != nil {
		respondServerError(c, "create menu item", err)
		return
	}
	respond(c, http.StatusCreated, menuItemResource.created(), newMenuItemResponse(c, &item))
}

// UpdateMenuItem handles both PUT and PATCH
func UpdateMenuItem(c *gin.Context) {
	item, ok := findMenuItem(c)
	if !ok {
		return
	}
	partial := c.Request.Method == http.MethodPatch

	var req MenuItemRequest
	if _, ok := bindJSON(c, &req, bindOptions{Partial: partial}); !ok {
		return
	}
	if !applyMenuItem(c, item, &req) {
		return
	}
	if !canModify(c, item.IsDemo) {
		return
	}
	if err := config.DB.Omit("Category").Save(item).Error; err != nil {
		respondServerError(c, "update menu item", err)
		return
	}
	respond(c, http.StatusOK, menuItemResource.updated(partial), newMenuItemResponse(c, item))
}

// DeleteMenuItem removes the item together with the cart lines that hold it.
// Order history keeps its snapshot with the item reference cleared.
func DeleteMenuItem(c *gin.Context) {
	item, ok := findMenuItem(c)
	if !ok {
		return
	}
	if !canDelete(c, item.IsDemo) {
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menuitem_id = ?", item.ID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("menuitem_id = ?", item.ID).
			Update("menuitem_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
	if err != nil {
		respondServerError(c, "delete menu item", err)
		return
	}
	respond(c, http.StatusOK, menuItemResource.deleted(), nil)
}

func findMenuItem(c *gin.Context) (*models.MenuItem, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var item models.MenuItem
	if err := config.DB.Preload("Category").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			respondServerError(c, "load menu item", err)
		}
		return nil, false
	}
	return &item, true
}

// applyMenuItem copies the sent fields onto item and checks the rules that need
// the database: price range, unique title and an existing category.
func applyMenuItem(c *gin.Context, item *models.MenuItem, req *MenuItemRequest) bool {
	errs := FieldErrors{}
	if req.Title != nil {
		var count int64
		if err := config.DB.Model(&models.MenuItem{}).
			Where("title = ? AND id <> ?", *req.Title, item.ID).Count(&count).Error; err != nil {
			respondServerError(c, "check menu item title", err)
			return false
		}
		if count > 0 {
			errs.Add("title", "menu item with this title already exists.")
		}
		item.Title = *req.Title
	}
	if req.Price != nil {
		switch {
		case *req.Price <= 0:
			errs.Add("price", "Must be a positive number.")
		case *req.Price > models.MaxMenuItemPrice:
			errs.Add("price", "Must not exceed 100.00.")
		}
		item.Price = *req.Price
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}
	if req.Category != nil {
		var category models.Category
		err := config.DB.First(&category, *req.Category).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs.Add("category", fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *req.Category))
		case err != nil:
			respondServerError(c, "load category", err)
			return false
		}
		item.CategoryID = category.ID
		item.Category = category
	}

	if len(errs) > 0 {
		respondInvalid(c, errs)
		return false
	}
	return true
}
