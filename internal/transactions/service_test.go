package transactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/warung-pos/internal/cart"
	"github.com/angelmondragon/warung-pos/internal/receipt"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

type stubFeed struct {
	types []string
}

func (s *stubFeed) Emit(_ context.Context, typ, _ string, _ any) {
	s.types = append(s.types, typ)
}

type stubCounter struct {
	statuses []string
}

func (s *stubCounter) IncCheckout(status string) { s.statuses = append(s.statuses, status) }

type failingSink struct{}

func (failingSink) Name() string { return "network" }
func (failingSink) Send(context.Context, []byte) (receipt.Delivery, error) {
	return receipt.Delivery{Sink: "network"}, errors.New("printer offline")
}

type fixture struct {
	svc     Service
	carts   *cart.Registry
	repo    *Repository
	feed    *stubFeed
	counter *stubCounter
	clock   *time.Time
}

func newFixture(t *testing.T, sink receipt.Sink) *fixture {
	t.Helper()

	printer, err := receipt.NewPrinter(receipt.NewFormatter("WARUNG MAKAN", "Jl. Melati 1", receipt.DefaultWidth, jakarta), sink, nil, nil)
	require.NoError(t, err)

	clock := time.Date(2026, 10, 19, 12, 30, 0, 0, jakarta)
	f := &fixture{
		carts:   cart.NewRegistry(nil, nil),
		repo:    NewRepository(openTestDB(t)),
		feed:    &stubFeed{},
		counter: &stubCounter{},
		clock:   &clock,
	}
	f.svc, err = NewService(Deps{
		Repo:     f.repo,
		Carts:    f.carts,
		Printer:  printer,
		Metrics:  f.counter,
		Feed:     f.feed,
		Location: jakarta,
		Now:      func() time.Time { return *f.clock },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) ring(session string) {
	ctx := context.Background()
	store := f.carts.Get(ctx, session)
	store.Add(ctx, cart.Product{ID: "p1", Name: "Nasi Goreng", Price: "Rp. 15.000", Category: "Makanan"})
	store.Add(ctx, cart.Product{ID: "p1", Name: "Nasi Goreng", Price: 15000, Category: "Makanan"})
	store.Add(ctx, cart.Product{ID: "p2", Name: "Es Teh", Price: 5000, Category: "Minuman"})
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(Deps{})
	require.Error(t, err)
}

func TestCheckoutRecordsSaleAndClearsCart(t *testing.T) {
	f := newFixture(t, receipt.NewRawBTSink())
	ctx := context.Background()
	f.ring("kasir-1")

	result, err := f.svc.Checkout(ctx, CheckoutInput{
		SessionID:    "kasir-1",
		UserID:       "kasir-1",
		CashTendered: "50.000",
		CustomerName: " Budi ",
	})
	require.NoError(t, err)

	tx := result.Transaction
	assert.Equal(t, int64(35000), tx.Subtotal)
	assert.Equal(t, int64(35000), tx.FinalTotal)
	assert.Equal(t, int64(50000), tx.CashTendered)
	assert.Equal(t, int64(15000), tx.Change)
	assert.Equal(t, 3, tx.ItemCount)
	require.NotNil(t, tx.CustomerName)
	assert.Equal(t, "Budi", *tx.CustomerName)
	assert.Nil(t, tx.CustomerAddress)
	assert.Regexp(t, `^INV-\d{6}$`, tx.InvoiceNo)
	assert.Nil(t, result.Print)

	assert.Empty(t, f.carts.Get(ctx, "kasir-1").Items())
	assert.Equal(t, []string{"transaction.recorded"}, f.feed.types)
	assert.Equal(t, []string{metrics.CheckoutRecorded}, f.counter.statuses)

	stored, err := f.svc.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.InvoiceNo, stored.InvoiceNo)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, int64(30000), stored.Items[0].LineTotal)
}

func TestCheckoutZeroCashMeansExact(t *testing.T) {
	f := newFixture(t, nil)
	f.ring(cart.GuestSession)

	result, err := f.svc.Checkout(context.Background(), CheckoutInput{DeliveryFee: "Rp 5.000"})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.Transaction.DeliveryFee)
	assert.Equal(t, int64(40000), result.Transaction.FinalTotal)
	assert.Equal(t, int64(40000), result.Transaction.CashTendered)
	assert.Equal(t, int64(0), result.Transaction.Change)
	assert.Equal(t, cart.GuestSession, result.Transaction.UserID)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{SessionID: "kasir-1"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, []string{metrics.CheckoutRejected}, f.counter.statuses)
	assert.Empty(t, f.feed.types)
}

func TestCheckoutRejectsShortCashAndKeepsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.ring("kasir-1")

	_, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir-1", CashTendered: 20000})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 3, f.carts.Get(ctx, "kasir-1").TotalItemCount())

	_, err = f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir-1", CashTendered: "abc"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir-1", DeliveryFee: -1000})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 3, f.carts.Get(ctx, "kasir-1").TotalItemCount())
}

func TestCheckoutRetriesInvoiceCollision(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.ring("a")
	first, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "a"})
	require.NoError(t, err)

	f.ring("b")
	second, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "b"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Transaction.InvoiceNo, second.Transaction.InvoiceNo)
	assert.Equal(t, InvoiceNumber(f.clock.Add(time.Millisecond)), second.Transaction.InvoiceNo)
}

func TestCheckoutPrintFailureStillRecords(t *testing.T) {
	f := newFixture(t, failingSink{})
	ctx := context.Background()
	f.ring("kasir-1")

	result, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir-1", Print: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.PrintError)
	assert.True(t, result.PrintRetryable, "a sink failure is a dependency error")
	require.NotNil(t, result.Print)
	assert.Contains(t, result.Print.Document.Text, result.Transaction.InvoiceNo)

	_, err = f.svc.Get(ctx, result.Transaction.ID)
	require.NoError(t, err)
}

func TestCheckoutPrintsThroughRawBT(t *testing.T) {
	f := newFixture(t, receipt.NewRawBTSink())
	f.ring("kasir-1")

	result, err := f.svc.Checkout(context.Background(), CheckoutInput{SessionID: "kasir-1", CashTendered: 50000, Print: true})
	require.NoError(t, err)
	require.NotNil(t, result.Print)
	assert.Empty(t, result.PrintError)
	assert.Equal(t, "rawbt", result.Print.Delivery.Sink)
	assert.Empty(t, result.Print.Document.Warnings)
	assert.Contains(t, result.Print.Document.Text, "Kembali")
}

func TestListFiltersByLocalDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 23:30 WIB on the 18th is 16:30 UTC the same day; 00:30 WIB on the 19th
	// is 17:30 UTC on the 18th.
	days := []time.Time{
		time.Date(2026, 10, 18, 23, 30, 0, 0, jakarta),
		time.Date(2026, 10, 19, 0, 30, 0, 0, jakarta),
		time.Date(2026, 10, 19, 18, 0, 0, 0, jakarta),
	}
	for i, at := range days {
		*f.clock = at
		f.ring("kasir")
		_, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir"})
		require.NoError(t, err, "checkout %d", i)
	}

	day := time.Date(2026, 10, 19, 9, 0, 0, 0, jakarta)
	page, err := f.svc.List(ctx, ListInput{Date: &day})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))
	assert.Empty(t, page.NextCursor)

	all, err := f.svc.List(ctx, ListInput{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
}

func TestListPagesWithCursor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	start := time.Date(2026, 10, 19, 8, 0, 0, 0, jakarta)
	for i := 0; i < 3; i++ {
		*f.clock = start.Add(time.Duration(i) * time.Minute)
		f.ring("kasir")
		_, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir"})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	cursor := ""
	for pageNo := 0; pageNo < 3; pageNo++ {
		page, err := f.svc.List(ctx, ListInput{Limit: 1, Cursor: cursor})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "page %d", pageNo)
		seen[page.Items[0].InvoiceNo] = true
		cursor = page.NextCursor
		if pageNo < 2 {
			require.NotEmpty(t, cursor, "page %d", pageNo)
		}
	}
	assert.Empty(t, cursor)
	assert.Len(t, seen, 3)

	_, err := f.svc.List(ctx, ListInput{Cursor: "***"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetUnknownTransaction(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestReceiptAndReprint(t *testing.T) {
	f := newFixture(t, receipt.NewRawBTSink())
	ctx := context.Background()
	f.ring("kasir-1")

	result, err := f.svc.Checkout(ctx, CheckoutInput{SessionID: "kasir-1", CashTendered: 50000, CustomerAddress: "Gang Mawar 3"})
	require.NoError(t, err)

	doc, err := f.svc.Receipt(ctx, result.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35000), doc.ComputedTotal)
	assert.Contains(t, doc.Text, "Gang Mawar 3")
	assert.Contains(t, doc.Text, "19/10/2026 12.30.00")

	printed, err := f.svc.Reprint(ctx, result.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, printed.Document.Text)
	assert.Equal(t, receipt.RawBTURL([]byte(doc.Text)), printed.Delivery.URL)
}

func TestDayBoundsUsesLocation(t *testing.T) {
	start, end := DayBounds(time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC), jakarta)
	assert.Equal(t, time.Date(2026, 10, 18, 17, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC), end)
}

func TestToReceiptCopiesCustomer(t *testing.T) {
	name := "Sari"
	rx := ToReceipt(&models.Transaction{
		InvoiceNo:    "INV-000001",
		Items:        []models.TransactionItem{{Name: "Es Teh", Price: 5000, Quantity: 2}},
		FinalTotal:   10000,
		CashTendered: 10000,
		CustomerName: &name,
	})
	assert.Equal(t, "Sari", rx.CustomerName)
	assert.Equal(t, "", rx.CustomerAddress)
	require.Len(t, rx.Items, 1)
	assert.Equal(t, 2, rx.Items[0].Quantity)
}
