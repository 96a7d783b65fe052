package statemachine

import (
	"errors"
	"fmt"
	"sort"

	"restaurant-api/models"
)

// OrderStatus names the two states carried by an order's delivered flag
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusDelivered OrderStatus = "delivered"
)

// StatusOf maps the stored flag to a state
func StatusOf(delivered bool) OrderStatus {
	if delivered {
		return StatusDelivered
	}
	return StatusPending
}

// Order fields that may be written after creation
const (
	FieldStatus       = "status"
	FieldDeliveryCrew = "delivery_crew"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  OrderStatus
	To    OrderStatus
	Actor models.UserRole
}

var validTransitions = []Transition{
	// Delivery crew marks their order delivered, or reopens it after a mistake
	{From: StatusPending, To: StatusDelivered, Actor: models.RoleDeliveryCrew},
	{From: StatusDelivered, To: StatusPending, Actor: models.RoleDeliveryCrew},
	// Managers may toggle any order
	{From: StatusPending, To: StatusDelivered, Actor: models.RoleManager},
	{From: StatusDelivered, To: StatusPending, Actor: models.RoleManager},
}

// writableFields lists what each actor may change on an existing order
var writableFields = map[models.UserRole][]string{
	models.RoleManager:      {FieldStatus, FieldDeliveryCrew},
	models.RoleDeliveryCrew: {FieldStatus},
}

type transitionKey struct {
	From  OrderStatus
	To    OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ErrNotPermitted is returned when an actor may not change an order at all
var ErrNotPermitted = errors.New("actor may not update orders")

// CanTransition checks if an actor can move an order between states.
// Setting the current state again is always a no-op for actors that may update orders.
func CanTransition(from, to OrderStatus, actor models.UserRole) error {
	if _, ok := writableFields[actor]; !ok {
		return ErrNotPermitted
	}
	if from == to || transitionMap[transitionKey{from, to, actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s -> %s is not allowed for %s", from, to, actor)
}

// UnexpectedFields returns the submitted keys the actor may not write, sorted.
func UnexpectedFields(actor models.UserRole, keys []string) []string {
	allowed := map[string]bool{}
	for _, f := range writableFields[actor] {
		allowed[f] = true
	}
	var unexpected []string
	for _, k := range keys {
		if !allowed[k] {
			unexpected = append(unexpected, k)
		}
	}
	sort.Strings(unexpected)
	return unexpected
}
