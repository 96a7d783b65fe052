package handlers

import (
	"fmt"
	"net/url"

	"restaurant-api/models"

	"github.com/gin-gonic/gin"
)

const restaurantPrefix = "/api/v1/restaurant"

type links struct {
	Self string `json:"self"`
}

func menuItemLinks(c *gin.Context, id uint) links {
	return links{Self: absoluteURL(c, fmt.Sprintf("%s/items/%d", restaurantPrefix, id))}
}

func categoryLinks(c *gin.Context, slug string) links {
	return links{Self: absoluteURL(c, restaurantPrefix+"/categories/"+url.PathEscape(slug))}
}

type categoryResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Links links  `json:"links"`
}

type categoryRef struct {
	Title string `json:"title"`
	Links links  `json:"links"`
}

type menuItemResponse struct {
	ID       uint         `json:"id"`
	Title    string       `json:"title"`
	Price    models.Money `json:"price"`
	Featured bool         `json:"featured"`
	Category categoryRef  `json:"category"`
	Links    links        `json:"links"`
}

// menuItemRef is the short form of a menu item embedded in cart and order lines
type menuItemRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newCategoryResponse(c *gin.Context, cat *models.Category) categoryResponse {
	return categoryResponse{ID: cat.ID, Title: cat.Title, Slug: cat.Slug, Links: categoryLinks(c, cat.Slug)}
}

func newMenuItemResponse(c *gin.Context, item *models.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:       item.ID,
		Title:    item.Title,
		Price:    item.Price,
		Featured: item.Featured,
		Category: categoryRef{Title: item.Category.Title, Links: categoryLinks(c, item.Category.Slug)},
		Links:    menuItemLinks(c, item.ID),
	}
}

func newMenuItemRef(item *models.MenuItem) *menuItemRef {
	if item == nil || item.ID == 0 {
		return nil
	}
	return &menuItemRef{ID: item.ID, Name: item.Title}
}
