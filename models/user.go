package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the role derived from a user's group membership
type UserRole string

const (
	RoleManager      UserRole = "manager"
	RoleDeliveryCrew UserRole = "delivery_crew"
	RoleCustomer     UserRole = "customer"
)

// Group names as stored in the groups table
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

// Roles lists the valid role slugs in display order
var Roles = []UserRole{RoleManager, RoleDeliveryCrew, RoleCustomer}

// ParseRole normalises user input such as "Delivery-Crew" into a role slug.
func ParseRole(s string) (UserRole, bool) {
	normalized := UserRole(normalizeRole(s))
	for _, r := range Roles {
		if r == normalized {
			return r, true
		}
	}
	return "", false
}

// GroupName returns the group backing a role. Customers have no group.
func (r UserRole) GroupName() string {
	switch r {
	case RoleManager:
		return GroupManager
	case RoleDeliveryCrew:
		return GroupDeliveryCrew
	}
	return ""
}

type Group struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:150;not null"`
}

type User struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UUID          string     `json:"-" gorm:"uniqueIndex;size:36;not null"`
	Username      string     `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-" gorm:"not null"`
	IsActive      bool       `json:"-" gorm:"not null;default:true"`
	IsStaff       bool       `json:"-" gorm:"not null;default:false"`
	IsSuperuser   bool       `json:"-" gorm:"not null;default:false"`
	IsDemo        bool       `json:"-" gorm:"index;not null;default:false"`
	DemoExpiresAt *time.Time `json:"-" gorm:"index"`
	Groups        []Group    `json:"-" gorm:"many2many:user_groups"`
	DateJoined    time.Time  `json:"-" gorm:"autoCreateTime"`
}

// BeforeCreate assigns the public identifier carried in tokens
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	return nil
}

// InGroup reports whether the preloaded groups contain name
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Role resolves the user's role from group membership; managers win over delivery crew.
func (u *User) Role() UserRole {
	if u.InGroup(GroupManager) {
		return RoleManager
	}
	if u.InGroup(GroupDeliveryCrew) {
		return RoleDeliveryCrew
	}
	return RoleCustomer
}

// IsAdmin is true for staff and superusers
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// DemoExpired reports whether a demo account has passed its expiry
func (u *User) DemoExpired(now time.Time) bool {
	return u.IsDemo && u.DemoExpiresAt != nil && !u.DemoExpiresAt.After(now)
}

// DemoActive reports whether the user is a demo account that has not expired
func (u *User) DemoActive(now time.Time) bool {
	return u.IsDemo && u.DemoExpiresAt != nil && u.DemoExpiresAt.After(now)
}

func normalizeRole(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
