package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	iifExpenseAccount = "Freight Exp"
	iifPayableAccount = "Accounts Payable"
	iifTxnType        = "GENERAL JOURNAL"
)

var iifHeader = []string{
	"!TRNS\tTRNSID\tTRNSTYPE\tDATE\tACCNT\tNAME\tAMOUNT\tDOCNUM\tMEMO",
	"!SPL\tSPLID\tTRNSTYPE\tDATE\tACCNT\tNAME\tAMOUNT\tDOCNUM\tMEMO",
	"!ENDTRNS",
}

// renderIIF writes a QuickBooks import file with one balanced zero-amount
// journal block per document. Amounts are not extracted, so the blocks carry
// the shipment identity and weight only.
func renderIIF(items []Item) ([]byte, error) {
	var b strings.Builder
	for _, h := range iifHeader {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	zero := decimal.Zero.StringFixed(2)
	for i, it := range items {
		d := it.Document
		if d == nil {
			continue
		}
		id := it.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		date := iifDate(str(d.Dates.Pickup))
		if date == "" {
			date = iifDate(str(d.Dates.Delivery))
		}
		docNum := str(d.References.PRO)
		if docNum == "" {
			docNum = str(d.References.BOL)
		}
		memo := iifMemo(it)

		writeIIFLine(&b, "TRNS", id, iifTxnType, date, iifExpenseAccount, str(d.Shipper.Name), zero, docNum, memo)
		writeIIFLine(&b, "SPL", id, iifTxnType, date, iifPayableAccount, str(d.Consignee.Name), zero, docNum, memo)
		b.WriteString("ENDTRNS\r\n")
	}
	return []byte(b.String()), nil
}

func writeIIFLine(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(iifClean(f))
	}
	b.WriteString("\r\n")
}

func iifClean(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ", `"`, "'").Replace(s)
}

// iifDate converts a canonical YYYY-MM-DD date to MM/DD/YYYY.
func iifDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return ""
	}
	return t.Format("01/02/2006")
}

func iifMemo(it Item) string {
	d := it.Document
	parts := make([]string, 0, 5)
	for _, ref := range []struct {
		label string
		val   *string
	}{{"BOL", d.References.BOL}, {"PRO", d.References.PRO}, {"PO", d.References.PO}} {
		if ref.val != nil {
			parts = append(parts, ref.label+" "+*ref.val)
		}
	}
	weight := "n/a"
	if d.WeightLbs != nil {
		weight = decimal.NewFromFloat(*d.WeightLbs).Round(2).String()
	}
	parts = append(parts, "Weight: "+weight+" lbs")
	if d.Pieces != nil {
		parts = append(parts, "Pieces: "+decimal.NewFromFloat(*d.Pieces).String())
	}
	return strings.Join(parts, "; ")
}
