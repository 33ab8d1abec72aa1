// Package money renders integer rupiah amounts for screens and receipts.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prefix precedes every rendered amount. A plain ASCII space is used so
// thermal printers never receive a non-breaking space.
const Prefix = "Rp. "

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders amount as "Rp. 12.500": Indonesian grouping, no decimals.
func FormatRupiah(amount int64) string {
	return Prefix + Group(amount)
}

// Group renders amount with Indonesian thousands separators only.
func Group(amount int64) string {
	return printer.Sprintf("%d", amount)
}
