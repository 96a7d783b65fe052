package policy

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"restaurant-api/models"
)

// Subjects that are not roles
const (
	SubjectAuthenticated = "authenticated"
	SubjectAdmin         = "admin"
)

// Actions
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

//go:embed policy.csv
var defaultPolicy string

// modelConfig is an RBAC model: a subject may inherit permissions through g.
const modelConfig = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Authorizer answers whether a user may perform an action on a resource.
type Authorizer struct {
	enforcer casbin.IEnforcer
}

// NewAuthorizer builds an Authorizer over any casbin policy adapter.
func NewAuthorizer(adapter persist.Adapter) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelConfig)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}

	return &Authorizer{enforcer: enforcer}, nil
}

// NewDefaultAuthorizer serves the built-in policy from memory.
func NewDefaultAuthorizer() (*Authorizer, error) {
	return NewAuthorizer(stringadapter.NewAdapter(defaultPolicy))
}

// NewGormAuthorizer keeps the policy in the casbin_rule table, seeding it with the
// built-in rules when the table is empty.
func NewGormAuthorizer(db *gorm.DB) (*Authorizer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("policy: create gorm adapter: %w", err)
	}

	var count int64
	if err := db.Table("casbin_rule").Count(&count).Error; err != nil {
		return nil, fmt.Errorf("policy: count rules: %w", err)
	}
	if count == 0 {
		rules, err := DefaultRules()
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			if err := adapter.AddPolicy(rule[0], rule[0], rule[1:]); err != nil {
				return nil, fmt.Errorf("policy: seed rule %v: %w", rule, err)
			}
		}
	}

	return NewAuthorizer(adapter)
}

// DefaultRules returns the built-in policy lines, each starting with its ptype.
func DefaultRules() ([][]string, error) {
	r := csv.NewReader(strings.NewReader(defaultPolicy))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rules, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("policy: parse built-in rules: %w", err)
	}
	return rules, nil
}

// Subjects lists the policy subjects a user acts as.
func Subjects(user *models.User) []string {
	subjects := []string{SubjectAuthenticated, string(user.Role())}
	if user.IsAdmin() {
		subjects = append(subjects, SubjectAdmin)
	}
	return subjects
}

// Allowed reports whether any of the user's subjects may act on resource.
func (a *Authorizer) Allowed(user *models.User, resource, action string) (bool, error) {
	for _, sub := range Subjects(user) {
		ok, err := a.enforcer.Enforce(sub, resource, action)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
