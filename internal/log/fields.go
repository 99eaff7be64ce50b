package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldEntity        = "entity"
	FieldDebtID        = "debt_id"
	FieldPaymentID     = "payment_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldWalletID      = "wallet_id"
	FieldAmount        = "amount"
	FieldStatus        = "status"
	FieldPage          = "page"
	FieldSize          = "size"
	FieldTotal         = "total"
	FieldAppend        = "append"
	FieldSeverity      = "severity"
	FieldFormat        = "format"
	FieldFile          = "file"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentAPI          = "api"
	ComponentCollection   = "collection"
	ComponentLedger       = "ledger"
	ComponentCategory     = "category"
	ComponentTransactions = "transactions"
	ComponentWallet       = "wallet"
	ComponentReports      = "reports"
	ComponentSubscription = "subscription"
	ComponentExport       = "export"
	ComponentSheets       = "sheets"
	ComponentReminder     = "reminder"
	ComponentAMQP         = "amqp"
	ComponentStorage      = "storage"
	ComponentEmulator     = "emulator"
	ComponentCache        = "cache"
	ComponentUI           = "ui"
	ComponentCLI          = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLoadMore = "load_more"
	OpPay      = "add_payment"
	OpMarkPaid = "mark_paid"
	OpExport   = "export"
	OpRemind   = "remind"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity tags the record with the entity kind and, when known, its id.
func (f LogFields) WithEntity(entity, id string) LogFields {
	f[FieldEntity] = entity
	if id != "" {
		f["id"] = id
	}
	return f
}

// WithPage adds pagination fields
func (f LogFields) WithPage(page, size int, appendMode bool) LogFields {
	f[FieldPage] = page
	f[FieldSize] = size
	f[FieldAppend] = appendMode
	return f
}

// WithHTTP adds request/response fields
func (f LogFields) WithHTTP(method, path string, status int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
