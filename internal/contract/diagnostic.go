package contract

type DiagnosticCode string

const (
	DiagPartialData     DiagnosticCode = "partial_data"
	DiagOverrideDropped DiagnosticCode = "override_dropped"
	DiagIntegrityDrift  DiagnosticCode = "integrity_drift"
)

// Diagnostic is a non-fatal note attached to a run or an override update.
// Field names the override field involved, if any.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return string(d.Code) + ": " + d.Message
}
