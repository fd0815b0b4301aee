package constants

// DocumentStatus is the lifecycle state of a stored intake record.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusProcessing DocumentStatus = "PROCESSING" // extraction in flight
	StatusDone       DocumentStatus = "DONE"       // canonical record available
	StatusFailed     DocumentStatus = "FAILED"     // terminal failure before a record existed
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}
