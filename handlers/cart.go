package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"restaurant-api/config"
	"restaurant-api/middleware"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CartCreateRequest struct {
	MenuItemID *uint `json:"menuitem_id" binding:"required"`
	Quantity   *int  `json:"quantity" binding:"required,min=1,max=99"`
}

// CartUpdateRequest requires quantity even on PATCH
type CartUpdateRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=1,max=99"`
}

type cartResponse struct {
	ID        uint         `json:"id"`
	MenuItem  *menuItemRef `json:"menuitem"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
	Price     models.Money `json:"price"`
}

func newCartResponse(line *models.Cart) cartResponse {
	return cartResponse{
		ID:        line.ID,
		MenuItem:  newMenuItemRef(&line.MenuItem),
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Price:     line.Price,
	}
}

const msgItemInCart = "This item is already in your cart."

// GetCart lists the caller's cart lines
func GetCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	query := config.DB.Model(&models.Cart{}).Where("user_id = ?", user.ID).Order("id")

	var lines []models.Cart
	p, ok := paginate(c, query, &lines, preload("MenuItem"))
	if !ok {
		return
	}
	data := make([]cartResponse, 0, len(lines))
	for i := range lines {
		data = append(data, newCartResponse(&lines[i]))
	}
	respondPage(c, fmt.Sprintf("%s in the cart for user '%s'.", cartResource.Plural, user.Username), p, data)
}

func GetCartItem(c *gin.Context) {
	line, ok := findCartLine(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, cartResource.retrieved(), newCartResponse(line))
}

// AddToCart adds a menu item to the caller's cart at the item's current price
func AddToCart(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req CartCreateRequest
	if _, ok := bindJSON(c, &req, bindOptions{Strict: true}); !ok {
		return
	}

	var item models.MenuItem
	if err := config.DB.First(&item, *req.MenuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFieldError(c, "menuitem_id", fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *req.MenuItemID))
		} else {
			respondServerError(c, "load menu item", err)
		}
		return
	}

	var existing int64
	if err := config.DB.Model(&models.Cart{}).
		Where("user_id = ? AND menuitem_id = ?", user.ID, item.ID).Count(&existing).Error; err != nil {
		respondServerError(c, "check cart", err)
		return
	}
	if existing > 0 {
		respondFieldError(c, "menuitem_id", msgItemInCart)
		return
	}

	line := models.Cart{
		UserID:     user.ID,
		MenuItemID: item.ID,
		Quantity:   *req.Quantity,
		UnitPrice:  item.Price,
		Price:      item.Price.Times(*req.Quantity),
		IsDemo:     demoMode(),
	}
	if err := config.DB.Omit("User", "MenuItem").Create(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondFieldError(c, "menuitem_id", msgItemInCart)
			return
		}
		respondServerError(c, "create cart line", err)
		return
	}
	line.MenuItem = item
	respond(c, http.StatusCreated, "Item added to cart successfully.", newCartResponse(&line))
}

// UpdateCartItem changes the quantity and recalculates the line price
func UpdateCartItem(c *gin.Context) {
	line, ok := findCartLine(c)
	if !ok {
		return
	}
	var req CartUpdateRequest
	if _, ok := bindJSON(c, &req, bindOptions{Strict: true}); !ok {
		return
	}
	if !canModify(c, line.IsDemo) {
		return
	}

	line.Quantity = *req.Quantity
	line.Price = line.UnitPrice.Times(line.Quantity)
	if err := config.DB.Model(line).Updates(map[string]any{
		"quantity": line.Quantity,
		"price":    line.Price,
	}).Error; err != nil {
		respondServerError(c, "update cart line", err)
		return
	}
	partial := c.Request.Method == http.MethodPatch
	respond(c, http.StatusOK, cartResource.updated(partial), newCartResponse(line))
}

func RemoveFromCart(c *gin.Context) {
	line, ok := findCartLine(c)
	if !ok {
		return
	}
	if !canDelete(c, line.IsDemo) {
		return
	}
	if err := config.DB.Delete(line).Error; err != nil {
		respondServerError(c, "delete cart line", err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart successfully.", nil)
}

// ClearCart empties the caller's cart
func ClearCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	result := config.DB.Where("user_id = ?", user.ID).Delete(&models.Cart{})
	if result.Error != nil {
		respondServerError(c, "clear cart", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respond(c, http.StatusOK, "No items in cart. Nothing to clear.", nil)
		return
	}
	respond(c, http.StatusOK, "Cart cleared successfully.", nil)
}

// findCartLine loads one of the caller's cart lines; other users' lines are not found
func findCartLine(c *gin.Context) (*models.Cart, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var line models.Cart
	err := config.DB.Preload("MenuItem").
		Where("id = ? AND user_id = ?", id, middleware.GetUserID(c)).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			respondServerError(c, "load cart line", err)
		}
		return nil, false
	}
	return &line, true
}
