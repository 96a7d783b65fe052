package handlers

import "fmt"

// resource names a collection in success messages
type resource struct {
	Name   string
	Plural string
}

func newResource(name string) resource {
	return resource{Name: name, Plural: name + "s"}
}

func (r resource) listed() string    { return r.Plural }
func (r resource) retrieved() string { return r.Name + " details" }
func (r resource) created() string   { return r.Name + " created successfully." }
func (r resource) deleted() string   { return r.Name + " deleted successfully." }

func (r resource) updated(partial bool) string {
	if partial {
		return r.Name + " partially updated successfully."
	}
	return r.Name + " updated successfully."
}

var (
	menuItemResource     = newResource("Menu item")
	categoryResource     = resource{Name: "Menu category", Plural: "Menu categories"}
	cartResource         = newResource("Item")
	orderResource        = newResource("Order")
	managerResource      = newResource("Manager")
	deliveryCrewResource = newResource("Delivery crew member")
	customerResource     = newResource("Customer")
)

func memberAdded(username, group string) string {
	return fmt.Sprintf("User '%s' successfully added to the %s group.", username, group)
}

func memberRemoved(username, group string) string {
	return fmt.Sprintf("User '%s' successfully removed from the %s group.", username, group)
}

func memberExists(username, group string) string {
	return fmt.Sprintf("User '%s' is already in the %s group.", username, group)
}
