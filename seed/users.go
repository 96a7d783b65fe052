// Package seed creates the fixed local accounts used for manual testing.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"restaurant-api/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestUser is one fixed account per role
type TestUser struct {
	Role     models.UserRole
	Username string
}

var TestUsers = []TestUser{
	{Role: models.RoleManager, Username: "alexisrog"},
	{Role: models.RoleDeliveryCrew, Username: "brendagiz"},
	{Role: models.RoleCustomer, Username: "amyccala"},
}

// PasswordUnchanged is reported for existing accounts whose password was kept
const PasswordUnchanged = "unchanged"

type Options struct {
	// Reset sets a new password on accounts that already exist.
	Reset bool
	// Password is used for every account instead of a random one.
	Password string
}

// Credential is one row of the printed credentials table
type Credential struct {
	Role     string
	Username string
	Password string
}

// CreateTestUsers creates or updates the test accounts. They are always
// regular accounts: demo flags are cleared and staff roles get their group.
func CreateTestUsers(ctx context.Context, db *gorm.DB, opts Options) ([]Credential, error) {
	var creds []Credential
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tu := range TestUsers {
			cred, err := upsertTestUser(tx, tu, opts)
			if err != nil {
				return fmt.Errorf("test user %s: %w", tu.Username, err)
			}
			creds = append(creds, cred)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func upsertTestUser(tx *gorm.DB, tu TestUser, opts Options) (Credential, error) {
	password := opts.Password
	if password == "" {
		password = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}

	user := models.User{Username: tu.Username}
	result := tx.Where("username = ?", tu.Username).
		Attrs(models.User{Email: tu.Username + "@example.com", IsActive: true}).
		FirstOrInit(&user)
	if result.Error != nil {
		return Credential{}, result.Error
	}
	created := user.ID == 0

	if created || opts.Reset {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return Credential{}, err
		}
		user.PasswordHash = string(hash)
	} else {
		password = PasswordUnchanged
	}
	user.IsDemo = false
	user.DemoExpiresAt = nil
	if err := tx.Omit("Groups").Save(&user).Error; err != nil {
		return Credential{}, err
	}

	if name := tu.Role.GroupName(); name != "" {
		group := models.Group{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&group).Error; err != nil {
			return Credential{}, err
		}
		if err := tx.Model(&user).Association("Groups").Append(&group); err != nil {
			return Credential{}, err
		}
	}
	return Credential{Role: string(tu.Role), Username: tu.Username, Password: password}, nil
}

// PrintTable writes credentials as aligned Role/Username/Password columns
func PrintTable(w io.Writer, creds []Credential) {
	headers := Credential{Role: "Role", Username: "Username", Password: "Password"}
	widths := [3]int{len(headers.Role), len(headers.Username), len(headers.Password)}
	for _, c := range creds {
		widths[0] = max(widths[0], len(c.Role))
		widths[1] = max(widths[1], len(c.Username))
		widths[2] = max(widths[2], len(c.Password))
	}

	row := func(c Credential) {
		line := fmt.Sprintf("%-*s  %-*s  %-*s", widths[0], c.Role, widths[1], c.Username, widths[2], c.Password)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	row(headers)
	row(Credential{
		Role:     strings.Repeat("-", widths[0]),
		Username: strings.Repeat("-", widths[1]),
		Password: strings.Repeat("-", widths[2]),
	})
	for _, c := range creds {
		row(c)
	}
}
