package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldUserID        = "user_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTemplateID    = "template_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldFrequency     = "frequency"
	FieldNextTrigger   = "next_trigger_date"
	FieldOccurrences   = "occurrences"
	FieldAmountCents   = "amount_cents"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentRecurring = "recurring"
	ComponentBudget    = "budget"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentAuth      = "auth"
	ComponentBackend   = "backend"
)

const (
	OpCreate      = "create"
	OpRead        = "read"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpList        = "list"
	OpMaterialize = "materialize"
	OpAdvance     = "advance"
	OpExport      = "export"
	OpShutdown    = "shutdown"
	OpStartup     = "startup"
)
