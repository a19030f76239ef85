package model

import (
	"time"

	"gorm.io/datatypes"
)

// OpeningHours 营业时间，存 JSON 列
type OpeningHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
	Days  []int  `json:"days"`
}

// Business 商户模型
type Business struct {
	ID           string                          `gorm:"primaryKey;column:business_id;size:64"`
	OwnerID      string                          `gorm:"column:owner_id;size:64;index;not null"`
	Name         string                          `gorm:"column:name;size:255;not null"`
	Category     string                          `gorm:"column:category;size:32;index;not null"`
	Description  string                          `gorm:"column:description;type:text"`
	Address      string                          `gorm:"column:address;size:255"`
	Latitude     float64                         `gorm:"column:latitude"`
	Longitude    float64                         `gorm:"column:longitude"`
	Phone        string                          `gorm:"column:phone;size:32"`
	OpeningHours datatypes.JSONType[OpeningHours] `gorm:"column:opening_hours"`
	IsOpen       bool                            `gorm:"column:is_open"`
	Images       datatypes.JSONSlice[string]     `gorm:"column:images"`
	ViewCount    int64                           `gorm:"column:view_count;default:0;index"`
	Rating       float64                         `gorm:"column:rating;default:0"`
	Products     []Product                       `gorm:"foreignKey:BusinessID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time                       `gorm:"column:created_at;index"`
	UpdatedAt    time.Time                       `gorm:"column:updated_at"`
}

func (Business) TableName() string { return "business" }

// Product 商户商品模型
type Product struct {
	ID          string  `gorm:"primaryKey;column:product_id;size:64"`
	BusinessID  string  `gorm:"column:business_id;size:64;index;not null"`
	Name        string  `gorm:"column:name;size:255;not null"`
	Description string  `gorm:"column:description;type:text"`
	Price       float64 `gorm:"column:price"`
	Image       string  `gorm:"column:image;size:512"`
	IsAvailable bool    `gorm:"column:is_available"`
}

func (Product) TableName() string { return "product" }
