package enums

import "fmt"

// StoreRequestType distinguishes requests that ask for a new store from
// requests that ask to change an existing one.
type StoreRequestType string

const (
	StoreRequestTypeInsert StoreRequestType = "insert"
	StoreRequestTypeUpdate StoreRequestType = "update"
)

var validStoreRequestTypes = []StoreRequestType{
	StoreRequestTypeInsert,
	StoreRequestTypeUpdate,
}

// String implements fmt.Stringer.
func (t StoreRequestType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known StoreRequestType.
func (t StoreRequestType) IsValid() bool {
	for _, candidate := range validStoreRequestTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStoreRequestType converts raw input into a StoreRequestType.
func ParseStoreRequestType(value string) (StoreRequestType, error) {
	for _, candidate := range validStoreRequestTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store request type %q", value)
}

// StoreRequestStatus captures the request lifecycle. Pending is the only
// state transitions leave from; approved and rejected are terminal.
type StoreRequestStatus string

const (
	StoreRequestStatusPending  StoreRequestStatus = "pending"
	StoreRequestStatusApproved StoreRequestStatus = "approved"
	StoreRequestStatusRejected StoreRequestStatus = "rejected"
)

var validStoreRequestStatuses = []StoreRequestStatus{
	StoreRequestStatusPending,
	StoreRequestStatusApproved,
	StoreRequestStatusRejected,
}

// String implements fmt.Stringer.
func (s StoreRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StoreRequestStatus.
func (s StoreRequestStatus) IsValid() bool {
	for _, candidate := range validStoreRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s StoreRequestStatus) IsTerminal() bool {
	return s == StoreRequestStatusApproved || s == StoreRequestStatusRejected
}

// ParseStoreRequestStatus converts raw input into a StoreRequestStatus.
func ParseStoreRequestStatus(value string) (StoreRequestStatus, error) {
	for _, candidate := range validStoreRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store request status %q", value)
}
