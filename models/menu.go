package models

type Category struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Slug   string `json:"slug" gorm:"uniqueIndex;size:50;not null"`
	Title  string `json:"title" gorm:"uniqueIndex;size:255;not null"`
	IsDemo bool   `json:"-" gorm:"index;not null;default:false"`
}

type MenuItem struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	Title      string   `json:"title" gorm:"uniqueIndex;size:255;not null"`
	Price      Money    `json:"price" gorm:"index;not null"`
	Featured   bool     `json:"featured" gorm:"index;not null;default:false"`
	CategoryID uint     `json:"category_id" gorm:"index;not null"`
	Category   Category `json:"category" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	IsDemo     bool     `json:"-" gorm:"index;not null;default:false"`
}

// MaxMenuItemPrice is the highest price a menu item may carry
const MaxMenuItemPrice Money = 100_00
