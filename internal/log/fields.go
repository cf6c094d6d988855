package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldSession     = "session"
	FieldUserID      = "user_id"
	FieldDBName      = "dbname"
	FieldProcedure   = "procedure"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldKeys        = "keys"
	FieldKeyCount    = "key_count"
	FieldStale       = "stale"
	FieldOrigin      = "origin"
	FieldAction      = "action"
	FieldVersion     = "version"
	FieldEntityID    = "entity_id"
	FieldPartitionID = "partition_id"
	FieldCategoryID  = "category_id"
	FieldAmount      = "amount"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentRPC       = "rpc"
	ComponentTracker   = "tracker"
	ComponentFilter    = "filter"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentRedis     = "redis"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentBroadcast = "broadcast"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpInvalidate = "invalidate"
	OpPublish    = "publish"
	OpRestore    = "restore"
	OpSnapshot   = "snapshot"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
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

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithSession adds the session and its tenant
func (f LogFields) WithSession(session, userID, dbname string) LogFields {
	f[FieldSession] = session
	f[FieldUserID] = userID
	f[FieldDBName] = dbname
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f["error_type"] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the id of the entity an operation touched
func (f LogFields) WithEntity(id string) LogFields {
	if id != "" {
		f[FieldEntityID] = id
	}
	return f
}

// WithKeys adds invalidation keys in canonical form
func (f LogFields) WithKeys(keys []string) LogFields {
	f[FieldKeys] = keys
	f[FieldKeyCount] = len(keys)
	return f
}

// WithRPCCall adds the fields of one remote procedure call
func (f LogFields) WithRPCCall(procedure string, statusCode int, durationMs int64) LogFields {
	f[FieldProcedure] = procedure
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode > 0 && statusCode < 400
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
