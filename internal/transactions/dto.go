package transactions

import (
	"time"

	"github.com/angelmondragon/warung-pos/internal/receipt"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	"github.com/google/uuid"
)

// ItemDTO is one sold line.
type ItemDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	Category  string `json:"category,omitempty"`
}

// TransactionDTO is the sale payload returned to clients.
type TransactionDTO struct {
	ID              uuid.UUID `json:"id"`
	InvoiceNo       string    `json:"invoice_no"`
	UserID          string    `json:"user_id"`
	Items           []ItemDTO `json:"items"`
	ItemCount       int       `json:"item_count"`
	Subtotal        int64     `json:"subtotal"`
	DeliveryFee     int64     `json:"delivery_fee"`
	FinalTotal      int64     `json:"final_total"`
	CashTendered    int64     `json:"cash_tendered"`
	Change          int64     `json:"change"`
	CustomerName    *string   `json:"customer_name,omitempty"`
	CustomerAddress *string   `json:"customer_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CheckoutResult bundles the recorded sale with the optional print outcome.
type CheckoutResult struct {
	Transaction    *TransactionDTO      `json:"transaction"`
	Print          *receipt.PrintResult `json:"print,omitempty"`
	PrintError     string               `json:"print_error,omitempty"`
	// PrintRetryable tells the till a reprint may succeed without changes.
	PrintRetryable bool                 `json:"print_retryable,omitempty"`
}

// FromModel maps a transaction row to its DTO.
func FromModel(m *models.Transaction) *TransactionDTO {
	if m == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(m.Items))
	count := 0
	for _, it := range m.Items {
		items = append(items, ItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: int64(it.Quantity) * it.Price,
			Category:  it.Category,
		})
		count += it.Quantity
	}
	return &TransactionDTO{
		ID:              m.ID,
		InvoiceNo:       m.InvoiceNo,
		UserID:          m.UserID,
		Items:           items,
		ItemCount:       count,
		Subtotal:        m.Subtotal,
		DeliveryFee:     m.DeliveryFee,
		FinalTotal:      m.FinalTotal,
		CashTendered:    m.CashTendered,
		Change:          m.ChangeAmount,
		CustomerName:    m.CustomerName,
		CustomerAddress: m.CustomerAddress,
		CreatedAt:       m.CreatedAt,
	}
}

// ToReceipt converts a stored sale into receipt input.
func ToReceipt(m *models.Transaction) *receipt.Transaction {
	if m == nil {
		return nil
	}
	items := make([]receipt.Item, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, receipt.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	out := &receipt.Transaction{
		InvoiceNo:    m.InvoiceNo,
		Items:        items,
		DeliveryFee:  m.DeliveryFee,
		TotalAmount:  m.FinalTotal,
		CashAmount:   m.CashTendered,
		ChangeAmount: m.ChangeAmount,
		CreatedAt:    m.CreatedAt,
	}
	if m.CustomerName != nil {
		out.CustomerName = *m.CustomerName
	}
	if m.CustomerAddress != nil {
		out.CustomerAddress = *m.CustomerAddress
	}
	return out
}
