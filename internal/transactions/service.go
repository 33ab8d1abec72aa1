package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/warung-pos/internal/cart"
	"github.com/angelmondragon/warung-pos/internal/events"
	"github.com/angelmondragon/warung-pos/internal/pricing"
	"github.com/angelmondragon/warung-pos/internal/receipt"
	"github.com/angelmondragon/warung-pos/pkg/db"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/angelmondragon/warung-pos/pkg/metrics"
	"github.com/angelmondragon/warung-pos/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = pagination.DefaultLimit
	MaxListLimit     = pagination.MaxLimit

	invoiceAttempts = 5
)

// Service records sales and serves the history screen.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	List(ctx context.Context, input ListInput) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	Receipt(ctx context.Context, id uuid.UUID) (*receipt.Document, error)
	Reprint(ctx context.Context, id uuid.UUID) (*receipt.PrintResult, error)
}

// CheckoutInput carries the payment form. Money fields accept anything the
// price normalizer does; a zero cash amount means exact cash.
type CheckoutInput struct {
	SessionID       string
	UserID          string
	DeliveryFee     any
	CashTendered    any
	CustomerName    string
	CustomerAddress string
	Print           bool
}

// ListInput narrows the history to one local calendar day when Date is set.
// Cursor is the next_cursor token of a previous page.
type ListInput struct {
	Date   *time.Time
	Limit  int
	Cursor string
}

// Page is one newest-first slice of the history.
type Page = pagination.Page[TransactionDTO]

type repository interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
}

type cartRegistry interface {
	Get(ctx context.Context, sessionID string) *cart.Store
}

type printer interface {
	Render(tx *receipt.Transaction) (*receipt.Document, error)
	Print(ctx context.Context, tx *receipt.Transaction) (*receipt.PrintResult, error)
}

type checkoutRecorder interface {
	IncCheckout(status string)
}

type emitter interface {
	Emit(ctx context.Context, typ, subjectID string, payload any)
}

// Deps groups the collaborators of the transaction service.
type Deps struct {
	Repo     repository
	Carts    cartRegistry
	Printer  printer
	Metrics  checkoutRecorder
	Feed     emitter
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo    repository
	carts   cartRegistry
	printer printer
	metrics checkoutRecorder
	feed    emitter
	logg    *logger.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService validates deps and builds the transaction service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if deps.Printer == nil {
		return nil, fmt.Errorf("receipt printer required")
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    deps.Repo,
		carts:   deps.Carts,
		printer: deps.Printer,
		metrics: deps.Metrics,
		feed:    deps.Feed,
		logg:    deps.Logger,
		loc:     loc,
		now:     now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	store := s.carts.Get(ctx, input.SessionID)

	var recorded *models.Transaction
	err := store.Commit(ctx, func(items []cart.LineItem) error {
		record, err := s.buildRecord(items, input)
		if err != nil {
			return err
		}
		recorded, err = s.insert(ctx, record)
		return err
	})
	if err != nil {
		s.countCheckout(err)
		return nil, err
	}
	s.countCheckout(nil)

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"transaction_id": recorded.ID.String(),
			"invoice_no":     recorded.InvoiceNo,
			"final_total":    recorded.FinalTotal,
		})
		s.logg.Info(ctx, "transaction recorded")
	}

	dto := FromModel(recorded)
	if s.feed != nil {
		s.feed.Emit(ctx, events.TypeTransactionRecorded, dto.ID.String(), dto)
	}

	result := &CheckoutResult{Transaction: dto}
	if input.Print {
		printed, err := s.printer.Print(ctx, ToReceipt(recorded))
		result.Print = printed
		if err != nil {
			result.PrintError = err.Error()
			result.PrintRetryable = pkgerrors.IsRetryable(err)
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "receipt print failed after checkout")
			}
		}
	}
	return result, nil
}

func (s *service) buildRecord(items []cart.LineItem, input CheckoutInput) (*models.Transaction, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	sold := make([]models.TransactionItem, 0, len(items))
	var subtotal int64
	for _, it := range items {
		sold = append(sold, models.TransactionItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Category:  it.Category,
		})
		subtotal += it.LineTotal()
	}

	fee, err := parseAmount(input.DeliveryFee, "delivery_fee")
	if err != nil {
		return nil, err
	}
	final := subtotal + fee

	cash, err := parseAmount(input.CashTendered, "cash_tendered")
	if err != nil {
		return nil, err
	}
	if cash == 0 {
		cash = final
	}
	if cash < final {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash tendered is less than the total").
			WithDetails(map[string]any{"final_total": final, "cash_tendered": cash})
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = cart.GuestSession
	}

	return &models.Transaction{
		UserID:          userID,
		Items:           sold,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		FinalTotal:      final,
		CashTendered:    cash,
		ChangeAmount:    cash - final,
		CustomerName:    optional(input.CustomerName),
		CustomerAddress: optional(input.CustomerAddress),
		CreatedAt:       s.now().UTC(),
	}, nil
}

// insert stores the record, drawing a fresh invoice number whenever the
// previous one collides.
func (s *service) insert(ctx context.Context, record *models.Transaction) (*models.Transaction, error) {
	at := record.CreatedAt
	for attempt := 0; attempt < invoiceAttempts; attempt++ {
		record.InvoiceNo = InvoiceNumber(at.Add(time.Duration(attempt) * time.Millisecond))
		created, err := s.repo.Create(ctx, record)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate invoice number")
}

func (s *service) countCheckout(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.IncCheckout(metrics.CheckoutRecorded)
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation):
		s.metrics.IncCheckout(metrics.CheckoutRejected)
	default:
		s.metrics.IncCheckout(metrics.CheckoutFailed)
	}
}

func (s *service) List(ctx context.Context, input ListInput) (*Page, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter := ListFilter{Cursor: cursor, Limit: pagination.NormalizeLimit(input.Limit)}
	if input.Date != nil {
		start, end := DayBounds(*input.Date, s.loc)
		filter.From, filter.To = &start, &end
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	rows, next := pagination.Trim(rows, filter.Limit, func(row models.Transaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})

	page := &Page{Items: make([]TransactionDTO, 0, len(rows)), NextCursor: pagination.EncodeCursor(next)}
	for i := range rows {
		page.Items = append(page.Items, *FromModel(&rows[i]))
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

func (s *service) Receipt(ctx context.Context, id uuid.UUID) (*receipt.Document, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.printer.Render(ToReceipt(row))
}

func (s *service) Reprint(ctx context.Context, id uuid.UUID) (*receipt.PrintResult, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.printer.Print(ctx, ToReceipt(row))
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return row, nil
}

// InvoiceNumber derives the printed invoice number from the sale time.
func InvoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%06d", at.UnixMilli()%1_000_000)
}

// DayBounds returns the UTC half-open range covering day's calendar date in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

func parseAmount(raw any, field string) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return 0, nil
	}
	res := pricing.Parse(raw)
	if !res.OK {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a number").
			WithDetails(map[string]any{"field": field, "reason": string(res.Reason)})
	}
	if res.Value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be negative")
	}
	return res.Value, nil
}

func optional(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
