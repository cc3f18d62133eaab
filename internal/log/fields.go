package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldUID       = "uid"
	FieldReceiptID = "receipt_id"
	FieldMonth     = "month"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldPath      = "path"
	FieldMethod    = "method"
	FieldStatus    = "status"
)
