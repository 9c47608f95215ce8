package types

// Status is the outcome code of a write operation on the record store.
// The numeric values are part of the public contract.
type Status int

// Status codes.
const (
	StatusOK            Status = 0
	StatusTableNotFound Status = 1
	StatusInvalidRecord Status = 2
	StatusDuplicateID   Status = 3
	StatusNotFound      Status = 4
)

// Status messages.
const (
	MsgTableNotFound = "Table not found."
	MsgInvalidRecord = "Invalid record."
	MsgDuplicateID   = "Id with duplicity."
	MsgNotFound      = "Record not found."
)

// Result is the tagged outcome of Insert, Update and Delete.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// String returns the status label used in logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTableNotFound:
		return "table_not_found"
	case StatusInvalidRecord:
		return "invalid_record"
	case StatusDuplicateID:
		return "duplicate_id"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
