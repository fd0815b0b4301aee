package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// Item is one stored document as seen by the exporters.
type Item struct {
	ID       string
	Name     string // original upload name
	Document *freight.Document
}

// Ready reports whether the item may be exported.
func (it Item) Ready() bool {
	return it.Document != nil && it.Document.ReadyForExport
}

var extensions = map[constants.ExportFormat]string{
	constants.ExportCSV:        "csv",
	constants.ExportJSON:       "json",
	constants.ExportQuickBooks: "iif",
	constants.ExportXLSX:       "xlsx",
}

var contentTypes = map[constants.ExportFormat]string{
	constants.ExportCSV:        "text/csv",
	constants.ExportJSON:       "application/json",
	constants.ExportQuickBooks: "text/plain",
	constants.ExportXLSX:       "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (constants.ExportFormat, error) {
	f := constants.ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := extensions[f]; !ok {
		return "", fmt.Errorf("%q: %w", s, common.ErrUnsupportedFormat)
	}
	return f, nil
}

// Extension returns the file extension for a format, without the dot.
func Extension(format constants.ExportFormat) string {
	return extensions[format]
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format constants.ExportFormat) string {
	return contentTypes[format]
}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName derives "<stem>-extracted.<ext>" from an upload name.
func FileName(name string, format constants.ExportFormat) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(reUnsafeName.ReplaceAllString(stem, "_"), "._-")
	if stem == "" {
		stem = "document"
	}
	return stem + "-extracted." + Extension(format)
}

// Render renders items in one format. CSV, XLSX and IIF produce one row or
// transaction block per item; JSON produces an object for one item and an
// array otherwise.
func Render(format constants.ExportFormat, items []Item) ([]byte, error) {
	switch format {
	case constants.ExportCSV:
		return renderCSV(items)
	case constants.ExportJSON:
		return renderJSON(items)
	case constants.ExportQuickBooks:
		return renderIIF(items)
	case constants.ExportXLSX:
		return renderXLSX(items)
	default:
		return nil, fmt.Errorf("%q: %w", format, common.ErrUnsupportedFormat)
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) string {
	if p == nil {
		return ""
	}
	return decimal.NewFromFloat(*p).String()
}

func billTo(d *freight.Document) freight.Party {
	if d.BillTo == nil {
		return freight.Party{}
	}
	return *d.BillTo
}

// columns is the CSV header; row renders one document in the same order.
var columns = []string{
	"document_type", "shipper_name", "shipper_address",
	"consignee_name", "consignee_address",
	"bill_to_name", "bill_to_address",
	"bol", "pro", "po",
	"pickup_date", "delivery_date",
	"weight_lbs", "quantity", "pieces",
	"handwritten_notes", "ready_for_export",
}

func row(d *freight.Document) []string {
	bt := billTo(d)
	ready := "false"
	if d.ReadyForExport {
		ready = "true"
	}
	return []string{
		string(d.DocumentType), str(d.Shipper.Name), str(d.Shipper.Address),
		str(d.Consignee.Name), str(d.Consignee.Address),
		str(bt.Name), str(bt.Address),
		str(d.References.BOL), str(d.References.PRO), str(d.References.PO),
		str(d.Dates.Pickup), str(d.Dates.Delivery),
		num(d.WeightLbs), num(d.Quantity), num(d.Pieces),
		str(d.HandwrittenNotes), ready,
	}
}
