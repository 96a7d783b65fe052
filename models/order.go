package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day stored and rendered as YYYY-MM-DD.
type Date struct {
	time.Time
}

// Today returns the current UTC date
func Today(now time.Time) Date {
	y, m, d := now.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Today(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("models: cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("models: scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Order status is a delivered flag: false while pending, true once delivered.
type Order struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	UserID         uint        `json:"user_id" gorm:"index;not null"`
	User           User        `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	DeliveryCrewID *uint       `json:"delivery_crew_id" gorm:"index"`
	DeliveryCrew   *User       `json:"delivery_crew" gorm:"foreignKey:DeliveryCrewID;constraint:OnDelete:SET NULL"`
	Status         bool        `json:"status" gorm:"index;not null;default:false"`
	Total          Money       `json:"total" gorm:"not null"`
	Date           Date        `json:"date" gorm:"type:date;index;not null"`
	Items          []OrderItem `json:"order_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	IsDemo         bool        `json:"-" gorm:"index;not null;default:false"`
}

// OrderItem snapshots a cart line. The menu item reference is cleared when the item is deleted.
type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;uniqueIndex:idx_orderitem_order_menuitem"`
	MenuItemID *uint     `json:"menuitem_id" gorm:"column:menuitem_id;uniqueIndex:idx_orderitem_order_menuitem"`
	MenuItem   *MenuItem `json:"menuitem" gorm:"foreignKey:MenuItemID;constraint:OnDelete:SET NULL"`
	ItemTitle  string    `json:"item_title" gorm:"size:255;not null"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	UnitPrice  Money     `json:"unit_price" gorm:"not null"`
	Price      Money     `json:"price" gorm:"not null"`
}
