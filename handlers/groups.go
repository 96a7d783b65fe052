package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"restaurant-api/config"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UsernameRequest struct {
	Username *string `json:"username" binding:"required,min=1"`
}

// GroupMembership serves the membership endpoints of one role group
type GroupMembership struct {
	group    string
	resource resource
	// unassignOrders clears the delivery assignments of a removed member
	unassignOrders bool
}

var (
	ManagerGroup      = &GroupMembership{group: models.GroupManager, resource: managerResource}
	DeliveryCrewGroup = &GroupMembership{group: models.GroupDeliveryCrew, resource: deliveryCrewResource, unassignOrders: true}
)

// groupMemberIDs selects the ids of the users in the named group
func groupMemberIDs(db *gorm.DB, name string) *gorm.DB {
	groupIDs := db.Model(&models.Group{}).Select("id").Where("name = ?", name)
	return db.Table("user_groups").Select("user_id").Where("group_id IN (?)", groupIDs)
}

func newUserRefs(users []models.User) []userRef {
	refs := make([]userRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, userRef{ID: u.ID, Username: u.Username})
	}
	return refs
}

func (g *GroupMembership) members() *gorm.DB {
	return config.DB.Model(&models.User{}).Where("id IN (?)", groupMemberIDs(config.DB, g.group))
}

func (g *GroupMembership) List(c *gin.Context) {
	var users []models.User
	p, ok := paginate(c, g.members().Order("id"), &users)
	if !ok {
		return
	}
	respondPage(c, g.resource.listed(), p, newUserRefs(users))
}

func (g *GroupMembership) Retrieve(c *gin.Context) {
	user, ok := g.findMember(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, g.resource.retrieved(), userRef{ID: user.ID, Username: user.Username})
}

// Add puts an existing user into the group by username
func (g *GroupMembership) Add(c *gin.Context) {
	var req UsernameRequest
	if _, ok := bindJSON(c, &req, bindOptions{}); !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Groups").Where("username = ?", *req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFieldError(c, "non_field_errors", fmt.Sprintf("User '%s' does not exist.", *req.Username))
		} else {
			respondServerError(c, "load user", err)
		}
		return
	}
	if demoMode() && !user.IsDemo {
		respondError(c, http.StatusForbidden, "Demo users can only add other demo users.")
		return
	}
	if user.InGroup(g.group) {
		respondError(c, http.StatusConflict, memberExists(user.Username, g.group))
		return
	}

	group, err := g.load()
	if err != nil {
		respondServerError(c, "load group", err)
		return
	}
	if err := config.DB.Model(&user).Association("Groups").Append(group); err != nil {
		respondServerError(c, "add group member", err)
		return
	}
	respond(c, http.StatusCreated, memberAdded(user.Username, g.group), nil)
}

// Remove takes a member out of the group by user id
func (g *GroupMembership) Remove(c *gin.Context) {
	user, ok := g.findMember(c)
	if !ok {
		return
	}
	if demoMode() && !user.IsDemo {
		respondError(c, http.StatusForbidden, "Demo users can only remove other demo users.")
		return
	}
	group, err := g.load()
	if err != nil {
		respondServerError(c, "load group", err)
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if g.unassignOrders {
			if err := tx.Model(&models.Order{}).Where("delivery_crew_id = ?", user.ID).
				Update("delivery_crew_id", nil).Error; err != nil {
				return err
			}
		}
		return tx.Model(user).Association("Groups").Delete(group)
	})
	if err != nil {
		respondServerError(c, "remove group member", err)
		return
	}
	respond(c, http.StatusOK, memberRemoved(user.Username, g.group), nil)
}

func (g *GroupMembership) load() (*models.Group, error) {
	var group models.Group
	if err := config.DB.Where("name = ?", g.group).First(&group).Error; err != nil {
		return nil, fmt.Errorf("group %q: %w", g.group, err)
	}
	return &group, nil
}

func (g *GroupMembership) findMember(c *gin.Context) (*models.User, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	if err := g.members().First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			respondServerError(c, "load group member", err)
		}
		return nil, false
	}
	return &user, true
}

// ListCustomers returns users outside every group, superusers excluded
func ListCustomers(c *gin.Context) {
	query := config.DB.Model(&models.User{}).
		Where("id NOT IN (?)", config.DB.Table("user_groups").Select("user_id")).
		Where("is_superuser = ?", false).
		Order("id")

	var users []models.User
	p, ok := paginate(c, query, &users)
	if !ok {
		return
	}
	respondPage(c, customerResource.listed(), p, newUserRefs(users))
}
