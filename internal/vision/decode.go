package vision

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// DecodeRawPage reads model output into a RawPageExtraction without trusting
// its shape: each field keeps whatever JSON kind it arrived as. Any "page" key
// in the body is ignored in favour of page.
func DecodeRawPage(page int, raw []byte) (freight.RawPageExtraction, error) {
	raw = StripCodeFence(raw)
	if !gjson.ValidBytes(raw) {
		return freight.RawPageExtraction{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return freight.RawPageExtraction{}, ErrNotObject
	}
	field := func(name string) freight.Value { return freight.ValueOf(root.Get(name)) }

	return freight.RawPageExtraction{
		Page:             page,
		DocumentType:     field("document_type"),
		ShipperName:      field("shipper_name"),
		ShipperAddress:   field("shipper_address"),
		ConsigneeName:    field("consignee_name"),
		ConsigneeAddress: field("consignee_address"),
		BillToName:       field("bill_to_name"),
		BillToAddress:    field("bill_to_address"),
		BOLNumber:        field("bol_number"),
		PRONumber:        field("pro_number"),
		PONumber:         field("po_number"),
		PickupDate:       field("pickup_date"),
		DeliveryDate:     field("delivery_date"),
		TotalWeightLbs:   field("total_weight_lbs"),
		Quantity:         field("quantity"),
		Pieces:           field("pieces"),
		HandwrittenNotes: field("handwritten_notes"),
	}, nil
}

// StripCodeFence removes a surrounding markdown ```json fence, which models
// add despite being told not to.
func StripCodeFence(raw []byte) []byte {
	s := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	s = s[3:]
	if nl := bytes.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return raw
	}
	s = bytes.TrimSpace(s)
	s = bytes.TrimSuffix(s, []byte("```"))
	return bytes.TrimSpace(s)
}
