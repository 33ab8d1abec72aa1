package models

import "time"

// StoreInfoKey is the single row key holding stall details.
const StoreInfoKey = "store_info"

// StoreSettings holds the stall's public details shown on the menu page.
type StoreSettings struct {
	Key            string    `gorm:"column:key;primaryKey"`
	OpeningHours   string    `gorm:"column:opening_hours;not null;default:''"`
	ClosedDay      string    `gorm:"column:closed_day;not null;default:''"`
	WhatsAppNumber string    `gorm:"column:whatsapp_number;not null;default:''"`
	Address        string    `gorm:"column:address;not null;default:''"`
	PromoLines     []string  `gorm:"column:promo_lines;type:jsonb;serializer:json"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StoreSettings) TableName() string { return "store_settings" }
