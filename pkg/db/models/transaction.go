package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionItem is the frozen copy of a cart line stored with a sale.
type TransactionItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category,omitempty"`
}

// Transaction is a completed checkout.
type Transaction struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNo       string            `gorm:"column:invoice_no;not null;uniqueIndex"`
	UserID          string            `gorm:"column:user_id;not null"`
	Items           []TransactionItem `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal        int64             `gorm:"column:subtotal;not null"`
	DeliveryFee     int64             `gorm:"column:delivery_fee;not null;default:0"`
	FinalTotal      int64             `gorm:"column:final_total;not null"`
	CashTendered    int64             `gorm:"column:cash_tendered;not null"`
	ChangeAmount    int64             `gorm:"column:change_amount;not null;default:0"`
	CustomerName    *string           `gorm:"column:customer_name"`
	CustomerAddress *string           `gorm:"column:customer_address"`
	CreatedAt       time.Time         `gorm:"column:created_at;not null;index"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
