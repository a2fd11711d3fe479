package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for catalog item identifiers.
	FieldItemID = "item_id"
	// FieldItemName is the standardized structured logging key for catalog item names.
	FieldItemName = "item_name"
	// FieldStage is the standardized structured logging key for pipeline step names.
	FieldStage = "stage"
	// FieldPassID is the standardized structured logging key for pass correlation identifiers.
	FieldPassID = "pass_id"
	// FieldCategory is the standardized structured logging key for announcement categories.
	FieldCategory = "category"
	// FieldChannel is the standardized structured logging key for the destination thread or channel id.
	FieldChannel = "channel"
	// FieldMessageID is the standardized structured logging key for delivered message identifiers.
	FieldMessageID = "message_id"
	// FieldEventType names the event so log queries can match on it.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the failure class from services.Classify.
	FieldErrorKind = "error_kind"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
