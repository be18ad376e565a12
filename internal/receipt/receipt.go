// Package receipt renders the printable confirmation of a single stock
// issuance. Rendering is a pure function of its inputs.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	fileStampLayout = "20060102_150405"

	nameColumnWidth = 24
	lineHeight      = 6.0
)

// Document is a rendered receipt ready to hand to the caller.
type Document struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Render produces a PDF receipt. Identical arguments always yield identical
// bytes: document dates are pinned to timestamp and the catalog is sorted.
func Render(productName string, quantity int, unitPrice decimal.Decimal, timestamp time.Time) ([]byte, error) {
	name := Transliterate(productName)
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetCreationDate(timestamp)
	pdf.SetModificationDate(timestamp)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Stock issue receipt", false)
	pdf.SetCreator("warehouse_service", false)
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 10, "STOCK ISSUE RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(0, lineHeight, "Issued at: "+timestamp.Format(TimestampLayout), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Courier", "B", 9)
	pdf.CellFormat(0, lineHeight, tableRow("Product", "Qty", "Unit price", "Total"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	for i, chunk := range wrap(name, nameColumnWidth) {
		if i == 0 {
			pdf.CellFormat(0, lineHeight, tableRow(chunk, fmt.Sprint(quantity), unitPrice.StringFixed(2), lineTotal.StringFixed(2)), "", 1, "L", false, 0, "")
			continue
		}
		pdf.CellFormat(0, lineHeight, tableRow(chunk, "", "", ""), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Courier", "B", 9)
	pdf.CellFormat(0, lineHeight, tableRow("TOTAL", "", "", lineTotal.StringFixed(2)), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("could not render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName is the download name for a receipt: receipt_<product>_<stamp>.pdf.
func FileName(productName string, timestamp time.Time) string {
	return fmt.Sprintf("receipt_%s_%s.pdf", slug(productName), timestamp.Format(fileStampLayout))
}

// New renders a receipt and wraps it with its file name.
func New(productName string, quantity int, unitPrice decimal.Decimal, timestamp time.Time) (*Document, error) {
	data, err := Render(productName, quantity, unitPrice, timestamp)
	if err != nil {
		return nil, err
	}
	return &Document{
		FileName:    FileName(productName, timestamp),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func tableRow(product, qty, price, total string) string {
	return fmt.Sprintf("%-*s %5s %11s %11s", nameColumnWidth, product, qty, price, total)
}

func wrap(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	var chunks []string
	for len(s) > width {
		chunks = append(chunks, s[:width])
		s = s[width:]
	}
	return append(chunks, s)
}

func slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(Transliterate(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "product"
	}
	return out
}
