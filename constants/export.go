package constants

// ExportFormat names a supported export rendering.
type ExportFormat string

const (
	ExportCSV        ExportFormat = "csv"
	ExportJSON       ExportFormat = "json"
	ExportQuickBooks ExportFormat = "quickbooks"
	ExportXLSX       ExportFormat = "xlsx"
)

var allExportFormats = []ExportFormat{ExportCSV, ExportJSON, ExportQuickBooks, ExportXLSX}

// ExportFormatsAsStrings lists the supported formats in display order.
func ExportFormatsAsStrings() []string {
	result := make([]string, len(allExportFormats))
	for i, f := range allExportFormats {
		result[i] = string(f)
	}
	return result
}
