package freight

import "fmt"

// SanityMinWeightLbs is the lowest plausible total weight for a shipment of
// more than one unit.
const SanityMinWeightLbs = 50

type requiredField struct {
	field string
	label string
	ok    func(*Document) bool
}

var requiredFields = []requiredField{
	{FieldDocumentType, "Document type", func(d *Document) bool { return d.DocumentType != DocumentTypeUnknown }},
	{FieldShipperName, "Shipper name", func(d *Document) bool { return d.Shipper.Name != nil }},
	{FieldConsigneeName, "Consignee name", func(d *Document) bool { return d.Consignee.Name != nil }},
}

type referenceField struct {
	field string
	label string
	get   func(*References) *string
}

// Order matters: format warnings are reported PRO, BOL, PO.
var referenceFields = []referenceField{
	{FieldReferencePRO, "PRO / tracking", func(r *References) *string { return r.PRO }},
	{FieldReferenceBOL, "BOL number", func(r *References) *string { return r.BOL }},
	{FieldReferencePO, "PO number", func(r *References) *string { return r.PO }},
}

// Normalize builds the canonical record from the raw pages of one document.
//
// The primary page is chosen by PickPrimaryPage and every canonical field is
// coerced from it. All checks always run, so the returned issue list is
// complete. An empty input yields an all-nil record carrying every "missing"
// error; that record is how a failed extraction is represented.
func Normalize(pages []RawPageExtraction) *Document {
	var primary RawPageExtraction
	if p := PickPrimaryPage(pages); p != nil {
		primary = *p
	}

	doc := &Document{
		DocumentType: NormalizeDocumentType(primary.DocumentType),
		Shipper: Party{
			Name:    TextOrNil(primary.ShipperName),
			Address: TextOrNil(primary.ShipperAddress),
		},
		Consignee: Party{
			Name:    TextOrNil(primary.ConsigneeName),
			Address: TextOrNil(primary.ConsigneeAddress),
		},
		References: References{
			BOL: SanitizeID(primary.BOLNumber),
			PRO: SanitizeID(primary.PRONumber),
			PO:  SanitizeID(primary.PONumber),
		},
		Dates: Dates{
			Pickup:   ToISODate(primary.PickupDate),
			Delivery: ToISODate(primary.DeliveryDate),
		},
		WeightLbs:        ToNumber(primary.TotalWeightLbs),
		Quantity:         ToNumber(primary.Quantity),
		Pieces:           ToNumber(primary.Pieces),
		HandwrittenNotes: TextOrNil(primary.HandwrittenNotes),
		RawPages:         retainPages(pages),
	}

	// An address alone does not make a bill-to party.
	if name := TextOrNil(primary.BillToName); name != nil {
		doc.BillTo = &Party{Name: name, Address: TextOrNil(primary.BillToAddress)}
	}

	doc.Issues = validate(doc)
	doc.ReadyForExport = IsReady(doc.Issues)
	return doc
}

func validate(doc *Document) []ValidationIssue {
	issues := make([]ValidationIssue, 0, 8)

	for _, rf := range requiredFields {
		if !rf.ok(doc) {
			issues = append(issues, ValidationIssue{
				Field:    rf.field,
				Severity: SeverityError,
				Reason:   ReasonMissing,
				Message:  fmt.Sprintf("%s is required.", rf.label),
			})
		}
	}

	hasReference := false
	for _, ref := range referenceFields {
		if ref.get(&doc.References) != nil {
			hasReference = true
			break
		}
	}
	if !hasReference {
		issues = append(issues, ValidationIssue{
			Field:    FieldReferences,
			Severity: SeverityError,
			Reason:   ReasonMissing,
			Message:  "At least one reference number (BOL/PRO/PO) is required.",
		})
	}

	for _, ref := range referenceFields {
		if v := ref.get(&doc.References); v != nil && !reReference.MatchString(*v) {
			issues = append(issues, ValidationIssue{
				Field:    ref.field,
				Severity: SeverityWarning,
				Reason:   ReasonFormat,
				Message:  fmt.Sprintf("%s format looks unusual.", ref.label),
			})
		}
	}

	if doc.Quantity != nil && *doc.Quantity > 1 && doc.WeightLbs != nil && *doc.WeightLbs < SanityMinWeightLbs {
		issues = append(issues, ValidationIssue{
			Field:    FieldWeightLbs,
			Severity: SeverityWarning,
			Reason:   ReasonSanity,
			Message:  fmt.Sprintf("Quantity is greater than 1 but weight is under %d lbs.", SanityMinWeightLbs),
		})
	}

	issues = append(issues, CheckAddress(doc.Shipper.Address, FieldShipperAddress)...)
	issues = append(issues, CheckAddress(doc.Consignee.Address, FieldConsigneeAddress)...)
	return issues
}

// retainPages copies the raw pages for audit, numbering any page that
// arrived without an index by its position.
func retainPages(pages []RawPageExtraction) []RawPageExtraction {
	out := make([]RawPageExtraction, len(pages))
	for i, page := range pages {
		if page.Page <= 0 {
			page.Page = i + 1
		}
		out[i] = page
	}
	return out
}
