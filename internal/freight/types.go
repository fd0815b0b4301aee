// Package freight turns untrusted per-page field extractions of freight paperwork
// (bills of lading, proofs of delivery, rate confirmations) into one canonical,
// validated document record.
//
// Everything in this package is pure: no I/O, no logging, no shared state.
// Problems with the input are reported as ValidationIssues on the returned
// Document, never as Go errors.
package freight

// DocumentType is the resolved kind of freight document.
type DocumentType string

const (
	DocumentTypeBOL              DocumentType = "BOL"
	DocumentTypePOD              DocumentType = "POD"
	DocumentTypeRateConfirmation DocumentType = "RATE_CONFIRMATION"
	DocumentTypeUnknown          DocumentType = "UNKNOWN"
)

// Severity decides whether an issue blocks export.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Reason classifies an issue.
type Reason string

const (
	ReasonMissing Reason = "missing" // required field or group absent
	ReasonFormat  Reason = "format"  // present but structurally suspicious
	ReasonSanity  Reason = "sanity"  // well-formed but numerically implausible
)

// Canonical field paths used in issues.
const (
	FieldDocumentType     = "documentType"
	FieldShipperName      = "shipper.name"
	FieldShipperAddress   = "shipper.address"
	FieldConsigneeName    = "consignee.name"
	FieldConsigneeAddress = "consignee.address"
	FieldReferences       = "references"
	FieldReferenceBOL     = "references.bol"
	FieldReferencePRO     = "references.pro"
	FieldReferencePO      = "references.po"
	FieldWeightLbs        = "weightLbs"
)

// ValidationIssue is one problem found while normalizing a document.
type ValidationIssue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Reason   Reason   `json:"reason"`
	Message  string   `json:"message"`
}

// RawPageExtraction is one page of model output, kept exactly as received.
// Every field is a Value because nothing about its shape can be trusted.
type RawPageExtraction struct {
	Page             int   `json:"page"`
	DocumentType     Value `json:"document_type"`
	ShipperName      Value `json:"shipper_name"`
	ShipperAddress   Value `json:"shipper_address"`
	ConsigneeName    Value `json:"consignee_name"`
	ConsigneeAddress Value `json:"consignee_address"`
	BillToName       Value `json:"bill_to_name"`
	BillToAddress    Value `json:"bill_to_address"`
	BOLNumber        Value `json:"bol_number"`
	PRONumber        Value `json:"pro_number"`
	PONumber         Value `json:"po_number"`
	PickupDate       Value `json:"pickup_date"`
	DeliveryDate     Value `json:"delivery_date"`
	TotalWeightLbs   Value `json:"total_weight_lbs"`
	Quantity         Value `json:"quantity"`
	Pieces           Value `json:"pieces"`
	HandwrittenNotes Value `json:"handwritten_notes"`
}

// Party is a named participant on the paperwork.
type Party struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// References holds the sanitized reference numbers.
type References struct {
	BOL *string `json:"bol"`
	PRO *string `json:"pro"`
	PO  *string `json:"po"`
}

// Dates holds ISO (YYYY-MM-DD) pickup and delivery dates.
type Dates struct {
	Pickup   *string `json:"pickup"`
	Delivery *string `json:"delivery"`
}

// Document is the canonical record for one uploaded document.
//
// ReadyForExport is derived from Issues and is recomputed by Normalize and
// Revalidate; callers must not set it.
type Document struct {
	DocumentType     DocumentType        `json:"documentType"`
	Shipper          Party               `json:"shipper"`
	Consignee        Party               `json:"consignee"`
	BillTo           *Party              `json:"billTo"`
	References       References          `json:"references"`
	Dates            Dates               `json:"dates"`
	WeightLbs        *float64            `json:"weightLbs"`
	Quantity         *float64            `json:"quantity"`
	Pieces           *float64            `json:"pieces"`
	HandwrittenNotes *string             `json:"handwrittenNotes"`
	Issues           []ValidationIssue   `json:"issues"`
	ReadyForExport   bool                `json:"readyForExport"`
	RawPages         []RawPageExtraction `json:"rawPages"`
}

// IsReady reports whether a set of issues permits export: true iff no issue
// has error severity.
func IsReady(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the blocking issues.
func (d *Document) Errors() []ValidationIssue {
	return d.filter(SeverityError)
}

// Warnings returns the non-blocking issues.
func (d *Document) Warnings() []ValidationIssue {
	return d.filter(SeverityWarning)
}

func (d *Document) filter(sev Severity) []ValidationIssue {
	out := make([]ValidationIssue, 0, len(d.Issues))
	for _, issue := range d.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}
