package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant-api/config"
	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OrderUpdateRequest carries every writable order field. Which of them an
// actor may send is decided by the order state machine.
type OrderUpdateRequest struct {
	Status       *bool `json:"status"`
	DeliveryCrew *uint `json:"delivery_crew"`
}

type orderItemResponse struct {
	ID        uint         `json:"id"`
	MenuItem  *menuItemRef `json:"menuitem"`
	ItemTitle string       `json:"item_title"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	Price     models.Money `json:"price"`
}

type orderResponse struct {
	ID     uint                `json:"id"`
	Date   models.Date         `json:"date"`
	Status bool                `json:"status"`
	Total  models.Money        `json:"total"`
	Items  []orderItemResponse `json:"order_items"`
}

type userRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// managerOrderResponse adds who placed the order and who delivers it
type managerOrderResponse struct {
	orderResponse
	User         userRef  `json:"user"`
	DeliveryCrew *userRef `json:"delivery_crew"`
}

var orderOrdering = newOrderFields("id", "id", "date", "date", "status", "status", "total", "total")

var errEmptyCart = errors.New("cart is empty")

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemResponse{
			ID:        it.ID,
			MenuItem:  newMenuItemRef(it.MenuItem),
			ItemTitle: it.ItemTitle,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return orderResponse{ID: order.ID, Date: order.Date, Status: order.Status, Total: order.Total, Items: items}
}

// renderOrder picks the representation for the caller's role
func renderOrder(role models.UserRole, order *models.Order) any {
	if role != models.RoleManager {
		return newOrderResponse(order)
	}
	resp := managerOrderResponse{
		orderResponse: newOrderResponse(order),
		User:          userRef{ID: order.User.ID, Username: order.User.Username},
	}
	if order.DeliveryCrew != nil {
		resp.DeliveryCrew = &userRef{ID: order.DeliveryCrew.ID, Username: order.DeliveryCrew.Username}
	}
	return resp
}

// scopedOrders limits orders to what the caller may see: managers see all,
// delivery crew their assigned orders and customers their own.
func scopedOrders(db *gorm.DB, user *models.User) *gorm.DB {
	query := db.Model(&models.Order{})
	switch user.Role() {
	case models.RoleManager:
		return query
	case models.RoleDeliveryCrew:
		return query.Where("delivery_crew_id = ?", user.ID)
	}
	return query.Where("user_id = ?", user.ID)
}

// orderDetails preloads what renderOrder needs for role
func orderDetails(role models.UserRole) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Preload("Items.MenuItem")
		if role == models.RoleManager {
			db = db.Preload("User").Preload("DeliveryCrew")
		}
		return db
	}
}

func orderListMessage(user *models.User) string {
	switch user.Role() {
	case models.RoleDeliveryCrew:
		return fmt.Sprintf("Orders assigned to delivery crew '%s'.", user.Username)
	case models.RoleCustomer:
		return fmt.Sprintf("Orders for user '%s'.", user.Username)
	}
	return orderResource.listed()
}

// ListOrders returns the caller's visible orders with filters
func ListOrders(c *gin.Context) {
	user := middleware.CurrentUser(c)
	query, errs := filterOrders(c, scopedOrders(config.DB, user), user)
	order, orderErrs := orderOrdering.orderClause(c, "date DESC, id DESC")
	for field, msgs := range orderErrs {
		errs[field] = msgs
	}
	if len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	var orders []models.Order
	p, ok := paginate(c, query.Order(order), &orders, orderDetails(user.Role()))
	if !ok {
		return
	}
	role := user.Role()
	data := make([]any, 0, len(orders))
	for i := range orders {
		data = append(data, renderOrder(role, &orders[i]))
	}
	respondPage(c, orderListMessage(user), p, data)
}

func filterOrders(c *gin.Context, query *gorm.DB, user *models.User) (*gorm.DB, FieldErrors) {
	errs := FieldErrors{}

	dates := []struct{ param, op string }{
		{"date", "="}, {"date_before", "<="}, {"date_after", ">="},
	}
	for _, f := range dates {
		v := c.Query(f.param)
		if v == "" {
			continue
		}
		d, err := models.ParseDate(strings.TrimSpace(v))
		if err != nil {
			errs.Add(f.param, "Please use the date format YYYY-MM-DD.")
			continue
		}
		query = query.Where("date "+f.op+" ?", d)
	}

	totals := []struct{ param, op string }{
		{"total", "="}, {"min_total", ">="}, {"max_total", "<="},
	}
	for _, f := range totals {
		v := c.Query(f.param)
		if v == "" {
			continue
		}
		amount, err := models.ParseMoney(v)
		switch {
		case err != nil:
			errs.Add(f.param, "Enter a number.")
		case amount < 0:
			errs.Add(f.param, "Price cannot be negative.")
		default:
			query = query.Where("total "+f.op+" ?", amount)
		}
	}

	if v := c.Query("status"); v != "" {
		status, ok := parseBoolParam(v)
		if !ok {
			errs.Add("status", "Must be one of: 1, 0, true, false (case-insensitive)")
		} else {
			query = query.Where("status = ?", status)
		}
	}

	// user filters only narrow a manager's view
	if user.Role() == models.RoleManager {
		query = filterByUser(query, "user_id", c.Query("user"))
		query = filterByUser(query, "delivery_crew_id", c.Query("delivery_crew"))
	}
	return query, errs
}

// filterByUser matches column by id, by username (case-insensitive) or, for "null", by absence.
func filterByUser(query *gorm.DB, column, value string) *gorm.DB {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return query
	}
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		return query.Where(column+" = ?", id)
	}
	if value == "null" {
		return query.Where(column + " IS NULL")
	}
	usernames := config.DB.Model(&models.User{}).Select("id").Where("LOWER(username) = ?", value)
	return query.Where(column+" IN (?)", usernames)
}

func GetOrder(c *gin.Context) {
	user := middleware.CurrentUser(c)
	order, ok := findOrder(c, user)
	if !ok {
		return
	}
	respond(c, http.StatusOK, orderResource.retrieved(), renderOrder(user.Role(), order))
}

// PlaceOrder turns the caller's cart into an order and empties the cart, atomically.
func PlaceOrder(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var orderID uint
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var lines []models.Cart
		if err := tx.Preload("MenuItem").Where("user_id = ?", user.ID).Order("id").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return errEmptyCart
		}

		order := models.Order{
			UserID: user.ID,
			Date:   models.Today(time.Now()),
			IsDemo: demoMode(),
		}
		for _, line := range lines {
			menuItemID := line.MenuItemID
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: &menuItemID,
				ItemTitle:  line.MenuItem.Title,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				Price:      line.Price,
			})
			order.Total += line.Price
		}
		if err := tx.Omit("User", "DeliveryCrew").Create(&order).Error; err != nil {
			return err
		}
		orderID = order.ID
		return tx.Where("user_id = ?", user.ID).Delete(&models.Cart{}).Error
	})
	if errors.Is(err, errEmptyCart) {
		respondError(c, http.StatusBadRequest, "Your cart is empty. Add items to your cart before placing an order.")
		return
	}
	if err != nil {
		respondServerError(c, "place order", err)
		return
	}

	var order models.Order
	if err := scopedOrders(config.DB, user).Scopes(orderDetails(user.Role())).First(&order, orderID).Error; err != nil {
		respondServerError(c, "reload order", err)
		return
	}
	middleware.Logger(c).Info("order placed", "order_id", order.ID, "user_id", user.ID, "total", order.Total.String())
	respond(c, http.StatusCreated, orderResource.created(), renderOrder(user.Role(), &order))
}

// UpdateOrder lets managers set status and delivery crew, and delivery crew set status.
func UpdateOrder(c *gin.Context) {
	user := middleware.CurrentUser(c)
	role := user.Role()
	order, ok := findOrder(c, user)
	if !ok {
		return
	}

	var req OrderUpdateRequest
	data, ok := bindJSON(c, &req, bindOptions{Partial: true})
	if !ok {
		return
	}
	errs := FieldErrors{}
	for _, key := range statemachine.UnexpectedFields(role, data.keys()) {
		errs.Add(key, "Unexpected field.")
	}
	if len(errs) > 0 {
		respondInvalid(c, errs)
		return
	}

	updates := map[string]any{}
	switch role {
	case models.RoleDeliveryCrew:
		if !data.has(statemachine.FieldStatus) || req.Status == nil {
			respondFieldError(c, statemachine.FieldStatus, "This field is required.")
			return
		}
	case models.RoleManager:
		if !data.has(statemachine.FieldStatus) && !data.has(statemachine.FieldDeliveryCrew) {
			respondFieldError(c, "non_field_errors", "Provide at least one of 'status' or 'delivery_crew'.")
			return
		}
		if data.has(statemachine.FieldDeliveryCrew) {
			crew, ok := resolveDeliveryCrew(c, req.DeliveryCrew)
			if !ok {
				return
			}
			updates["delivery_crew_id"] = crew
		}
	}

	if data.has(statemachine.FieldStatus) {
		if req.Status == nil {
			respondFieldError(c, statemachine.FieldStatus, "This field may not be null.")
			return
		}
		from, to := statemachine.StatusOf(order.Status), statemachine.StatusOf(*req.Status)
		if err := statemachine.CanTransition(from, to, role); err != nil {
			respondFieldError(c, statemachine.FieldStatus, err.Error())
			return
		}
		updates["status"] = *req.Status
	}

	if !canModify(c, order.IsDemo) {
		return
	}
	if err := config.DB.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		respondServerError(c, "update order", err)
		return
	}
	var updated models.Order
	if err := scopedOrders(config.DB, user).Scopes(orderDetails(user.Role())).First(&updated, order.ID).Error; err != nil {
		respondServerError(c, "reload order", err)
		return
	}
	partial := c.Request.Method == http.MethodPatch
	respond(c, http.StatusOK, orderResource.updated(partial), renderOrder(role, &updated))
}

// resolveDeliveryCrew checks that id names a member of the Delivery crew group.
// A nil id unassigns the order.
func resolveDeliveryCrew(c *gin.Context, id *uint) (*uint, bool) {
	if id == nil {
		return nil, true
	}
	var count int64
	err := config.DB.Model(&models.User{}).
		Where("id = ? AND id IN (?)", *id, groupMemberIDs(config.DB, models.GroupDeliveryCrew)).
		Count(&count).Error
	if err != nil {
		respondServerError(c, "check delivery crew", err)
		return nil, false
	}
	if count == 0 {
		respondFieldError(c, statemachine.FieldDeliveryCrew, fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *id))
		return nil, false
	}
	return id, true
}

// DeleteOrder removes an order and its items (manager only)
func DeleteOrder(c *gin.Context) {
	user := middleware.CurrentUser(c)
	order, ok := findOrder(c, user)
	if !ok {
		return
	}
	if !canDelete(c, order.IsDemo) {
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
	if err != nil {
		respondServerError(c, "delete order", err)
		return
	}
	respond(c, http.StatusOK, orderResource.deleted(), nil)
}

func findOrder(c *gin.Context, user *models.User) (*models.Order, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var order models.Order
	if err := scopedOrders(config.DB, user).Scopes(orderDetails(user.Role())).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			respondServerError(c, "load order", err)
		}
		return nil, false
	}
	return &order, true
}
