package models

// Cart is one line of a customer's cart. A user holds at most one line per menu item.
type Cart struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	UserID     uint     `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_menuitem"`
	User       User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	MenuItemID uint     `json:"menuitem_id" gorm:"column:menuitem_id;not null;uniqueIndex:idx_cart_user_menuitem"`
	MenuItem   MenuItem `json:"menuitem" gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	Quantity   int      `json:"quantity" gorm:"not null"`
	UnitPrice  Money    `json:"unit_price" gorm:"not null"`
	Price      Money    `json:"price" gorm:"not null"`
	IsDemo     bool     `json:"-" gorm:"index;not null;default:false"`
}

const (
	MinCartQuantity = 1
	MaxCartQuantity = 99
)
