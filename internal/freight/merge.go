package freight

import (
	"bytes"
	"encoding/json"

	"github.com/mohae/deepcopy"
)

// Optional is one user-supplied field in an edit. Set distinguishes "leave as
// is" from "clear"; a Set Optional with a nil Value clears the field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some sets a field to v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Clear sets a field to nil.
func Clear[T any]() Optional[T] { return Optional[T]{Set: true} }

func (o Optional[T]) apply(current *T) *T {
	if !o.Set {
		return current
	}
	if o.Value == nil {
		return nil
	}
	v := *o.Value
	return &v
}

// UnmarshalJSON marks the field as set whenever its key is present, including
// an explicit null.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// PartyOverrides edits a party key by key.
type PartyOverrides struct {
	Name    Optional[string] `json:"name"`
	Address Optional[string] `json:"address"`
}

// ReferenceOverrides edits reference numbers key by key.
type ReferenceOverrides struct {
	BOL Optional[string] `json:"bol"`
	PRO Optional[string] `json:"pro"`
	PO  Optional[string] `json:"po"`
}

// DateOverrides edits dates key by key.
type DateOverrides struct {
	Pickup   Optional[string] `json:"pickup"`
	Delivery Optional[string] `json:"delivery"`
}

// Overrides is a partial Document submitted by a user. Nested groups that
// are nil leave the current group untouched; present groups are merged key
// by key so that siblings survive.
type Overrides struct {
	DocumentType     Optional[DocumentType] `json:"documentType"`
	Shipper          *PartyOverrides        `json:"shipper,omitempty"`
	Consignee        *PartyOverrides        `json:"consignee,omitempty"`
	BillTo           *PartyOverrides        `json:"billTo,omitempty"`
	References       *ReferenceOverrides    `json:"references,omitempty"`
	Dates            *DateOverrides         `json:"dates,omitempty"`
	WeightLbs        Optional[float64]      `json:"weightLbs"`
	Quantity         Optional[float64]      `json:"quantity"`
	Pieces           Optional[float64]      `json:"pieces"`
	HandwrittenNotes Optional[string]       `json:"handwrittenNotes"`
}

func (p *PartyOverrides) mergeInto(current Party) Party {
	if p == nil {
		return current
	}
	return Party{
		Name:    p.Name.apply(current.Name),
		Address: p.Address.apply(current.Address),
	}
}

// Merge applies overrides to a copy of current. The copy's issues and
// readiness are stale until it is normalized again; use Revalidate.
func Merge(current *Document, o Overrides) *Document {
	merged := copyDocument(current)

	if o.DocumentType.Set {
		merged.DocumentType = DocumentTypeUnknown
		if o.DocumentType.Value != nil {
			merged.DocumentType = *o.DocumentType.Value
		}
	}
	merged.Shipper = o.Shipper.mergeInto(merged.Shipper)
	merged.Consignee = o.Consignee.mergeInto(merged.Consignee)

	switch {
	case merged.BillTo != nil:
		billTo := o.BillTo.mergeInto(*merged.BillTo)
		merged.BillTo = &billTo
	case o.BillTo != nil:
		billTo := o.BillTo.mergeInto(Party{})
		merged.BillTo = &billTo
	}

	if r := o.References; r != nil {
		merged.References = References{
			BOL: r.BOL.apply(merged.References.BOL),
			PRO: r.PRO.apply(merged.References.PRO),
			PO:  r.PO.apply(merged.References.PO),
		}
	}
	if d := o.Dates; d != nil {
		merged.Dates = Dates{
			Pickup:   d.Pickup.apply(merged.Dates.Pickup),
			Delivery: d.Delivery.apply(merged.Dates.Delivery),
		}
	}

	merged.WeightLbs = o.WeightLbs.apply(merged.WeightLbs)
	merged.Quantity = o.Quantity.apply(merged.Quantity)
	merged.Pieces = o.Pieces.apply(merged.Pieces)
	merged.HandwrittenNotes = o.HandwrittenNotes.apply(merged.HandwrittenNotes)
	return merged
}

// SyntheticPage renders a canonical record back into the raw page shape so
// it can be fed through Normalize.
func SyntheticPage(d *Document) RawPageExtraction {
	page := RawPageExtraction{
		Page:             1,
		DocumentType:     String(string(d.DocumentType)),
		ShipperName:      StringPtr(d.Shipper.Name),
		ShipperAddress:   StringPtr(d.Shipper.Address),
		ConsigneeName:    StringPtr(d.Consignee.Name),
		ConsigneeAddress: StringPtr(d.Consignee.Address),
		BillToName:       Null(),
		BillToAddress:    Null(),
		BOLNumber:        StringPtr(d.References.BOL),
		PRONumber:        StringPtr(d.References.PRO),
		PONumber:         StringPtr(d.References.PO),
		PickupDate:       StringPtr(d.Dates.Pickup),
		DeliveryDate:     StringPtr(d.Dates.Delivery),
		TotalWeightLbs:   NumberPtr(d.WeightLbs),
		Quantity:         NumberPtr(d.Quantity),
		Pieces:           NumberPtr(d.Pieces),
		HandwrittenNotes: StringPtr(d.HandwrittenNotes),
	}
	if d.BillTo != nil {
		page.BillToName = StringPtr(d.BillTo.Name)
		page.BillToAddress = StringPtr(d.BillTo.Address)
	}
	return page
}

// Revalidate applies a user edit and re-runs Normalize on the merged state,
// so edits are judged by exactly the same rules as the first pass. The
// previous issues and readiness are discarded; the source pages of current
// are carried over.
func Revalidate(current *Document, o Overrides) *Document {
	merged := Merge(current, o)
	out := Normalize([]RawPageExtraction{SyntheticPage(merged)})
	out.RawPages = merged.RawPages
	if out.RawPages == nil {
		out.RawPages = []RawPageExtraction{}
	}
	return out
}

func copyDocument(d *Document) *Document {
	if d == nil {
		return &Document{DocumentType: DocumentTypeUnknown}
	}
	cp, ok := deepcopy.Copy(*d).(Document)
	if !ok {
		return &Document{DocumentType: DocumentTypeUnknown}
	}
	return &cp
}
