package models

// Attendance request kinds, matching the /flutter/<kind>/ endpoints
const (
	RequestLeave = "leave"
	RequestLate  = "late"
	RequestEarly = "early"
)

// Request statuses used by the list filter
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// AttendanceRequest is the union of leave, late-arrival and early-departure
// request fields. Leave uses FromDate/ToDate/LeaveType; late and early use Date/Time.
type AttendanceRequest struct {
	ID        string `json:"id,omitempty"`
	Kind      string `json:"kind"`
	FromDate  string `json:"from_date,omitempty"`
	ToDate    string `json:"to_date,omitempty"`
	LeaveType string `json:"leave_type,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Reason    string `json:"reason"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// IsValidRequestKind reports whether kind names a supported request endpoint
func IsValidRequestKind(kind string) bool {
	switch kind {
	case RequestLeave, RequestLate, RequestEarly:
		return true
	}
	return false
}
