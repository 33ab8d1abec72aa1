// Package receipt renders fixed-width thermal receipts and hands them to a
// print sink.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/warung-pos/internal/pricing"
	"github.com/angelmondragon/warung-pos/pkg/money"
)

const (
	DefaultWidth     = 32
	customerFieldMax = 24
	timestampLayout  = "02/01/2006 15.04.05"
	feed             = "\n\n\n"
	fallbackItemName = "Item"
	fallbackInvoice  = "N/A"
)

// Warning codes attached to a rendered document.
const (
	WarningTotalMismatch = "total_mismatch"
	WarningTotalFallback = "total_fallback"
)

// Item is one receipt line. Price is normalized before use.
type Item struct {
	Name     string
	Quantity int
	Price    any
}

// Transaction is the data a receipt is rendered from.
type Transaction struct {
	InvoiceNo       string
	Items           []Item
	DeliveryFee     any
	TotalAmount     any
	CashAmount      any
	ChangeAmount    any
	CustomerName    string
	CustomerAddress string
	CreatedAt       time.Time
}

// Document is a rendered receipt plus the totals it was built from.
// ComputedTotal is the sum of the item lines only.
type Document struct {
	Text           string   `json:"text"`
	Warnings       []string `json:"warnings,omitempty"`
	ComputedTotal  int64    `json:"computed_total"`
	DisplayedTotal int64    `json:"displayed_total"`
}

// Formatter lays out receipts for a fixed character width.
type Formatter struct {
	Width        int
	StoreName    string
	Subtitle     string
	ClosingLines [2]string
	Now          func() time.Time
	Location     *time.Location
}

// NewFormatter returns a formatter with the stall's default header and footer.
func NewFormatter(storeName, subtitle string, width int, loc *time.Location) *Formatter {
	return &Formatter{
		Width:        width,
		StoreName:    storeName,
		Subtitle:     subtitle,
		ClosingLines: [2]string{"Terima Kasih", "Selamat Belanja Kembali"},
		Now:          time.Now,
		Location:     loc,
	}
}

// Format renders tx into receipt text.
func (f *Formatter) Format(tx *Transaction) (string, error) {
	doc, err := f.Render(tx)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// Render validates tx and builds the receipt document. A panic while
// assembling is returned as a KindFormatFailure error.
func (f *Formatter) Render(tx *Transaction) (doc *Document, err error) {
	if tx == nil {
		return nil, newFormatError(KindMissingData, "no transaction data", nil)
	}
	if len(tx.Items) == 0 {
		return nil, newFormatError(KindEmptyCart, "transaction has no items", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = newFormatError(KindFormatFailure, "receipt assembly failed", fmt.Errorf("%v", r))
		}
	}()

	return f.render(tx), nil
}

func (f *Formatter) render(tx *Transaction) *Document {
	w := f.width()
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	dashes := strings.Repeat("-", w)

	line(center(f.StoreName, w))
	line(center(f.Subtitle, w))
	line(dashes)

	line("Tgl: " + f.timestamp(tx.CreatedAt))
	invoice := strings.TrimSpace(tx.InvoiceNo)
	if invoice == "" {
		invoice = fallbackInvoice
	}
	line("No : " + invoice)
	if name := strings.TrimSpace(tx.CustomerName); name != "" {
		line("Nama  : " + truncate(name, customerFieldMax))
	}
	if addr := strings.TrimSpace(tx.CustomerAddress); addr != "" {
		line("Alamat: " + truncate(addr, customerFieldMax))
	}
	line(dashes)

	var computed int64
	for _, it := range tx.Items {
		name := it.Name
		if name == "" {
			name = fallbackItemName
		}
		price := pricing.Normalize(it.Price)
		lineTotal := int64(it.Quantity) * price
		computed += lineTotal

		for _, part := range wrap(name, w) {
			line(part)
		}
		line(row(fmt.Sprintf("%d x %s", it.Quantity, money.FormatRupiah(price)), money.FormatRupiah(lineTotal), w))
	}
	line(dashes)

	// the stated total includes the fee; the fallback is the item lines only
	fee := pricing.Normalize(tx.DeliveryFee)
	if fee > 0 {
		line(row("Ongkir", money.FormatRupiah(fee), w))
	}

	stated := pricing.Normalize(tx.TotalAmount)
	displayed := stated
	var warnings []string
	if stated <= 0 {
		displayed = computed
		warnings = append(warnings, WarningTotalFallback)
	} else if stated != computed+fee {
		warnings = append(warnings, WarningTotalMismatch)
	}

	line(row("Total", money.FormatRupiah(displayed), w))
	line(row("Tunai", money.FormatRupiah(pricing.Normalize(tx.CashAmount)), w))
	line(row("Kembali", money.FormatRupiah(pricing.Normalize(tx.ChangeAmount)), w))
	line(dashes)

	line(center(f.ClosingLines[0], w))
	line(center(f.ClosingLines[1], w))
	b.WriteString(feed)

	return &Document{
		Text:           b.String(),
		Warnings:       warnings,
		ComputedTotal:  computed,
		DisplayedTotal: displayed,
	}
}

func (f *Formatter) width() int {
	if f.Width <= 0 {
		return DefaultWidth
	}
	return f.Width
}

func (f *Formatter) timestamp(at time.Time) string {
	if at.IsZero() {
		now := time.Now
		if f.Now != nil {
			now = f.Now
		}
		at = now()
	}
	if f.Location != nil {
		at = at.In(f.Location)
	}
	return at.Format(timestampLayout)
}

func center(text string, width int) string {
	pad := (width - utf8.RuneCountInString(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func row(left, right string, width int) string {
	space := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if space < 0 {
		space = 0
	}
	return left + strings.Repeat(" ", space) + right
}

// wrap splits s into lines of at most width runes, breaking after the last
// space that fits and mid-word only when a word is longer than width.
func wrap(s string, width int) []string {
	rs := []rune(s)
	var out []string
	for len(rs) > width {
		cut := width
		for i := width; i > 0; i-- {
			if rs[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimRight(string(rs[:cut]), " "))
		rs = []rune(strings.TrimLeft(string(rs[cut:]), " "))
	}
	return append(out, string(rs))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
