package logging

// Standardized attribute keys. Keep these stable: log consumers key off them.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldFile      = "file"
	FieldCategory  = "category"
	FieldMode      = "mode"
	FieldHash      = "content_hash"
	FieldRunID     = "run_id"
	FieldAttempt   = "attempt"
	FieldDirectory = "directory"
	FieldThreadKey = "thread_key"
)
