package dto

// ScanRequest is a QR check-in: the scanned payload is the member ID.
type ScanRequest struct {
	MemberID string `json:"member_id" binding:"required,uuid"`
}

// ScanResponse reports the outcome of a scan.
// AlreadyRegistered means the pair had a record and nothing changed.
type ScanResponse struct {
	AlreadyRegistered bool               `json:"already_registered"`
	Record            AttendanceResponse `json:"record"`
}

// SetStatusRequest is the explicit management override path.
type SetStatusRequest struct {
	MemberID     string   `json:"member_id" binding:"required,uuid"`
	Status       string   `json:"status" binding:"required,oneof=present absent justified"`
	HeightPreCm  *float64 `json:"height_pre_cm"`
	HeightPostCm *float64 `json:"height_post_cm"`
}

// CloseEventResponse reports how many absences a closure inserted and
// the event's resulting absence total (prior marks included).
type CloseEventResponse struct {
	MarkedAbsent int   `json:"marked_absent"`
	TotalAbsent  int64 `json:"total_absent"`
}

// AttendanceResponse describes one attendance record.
type AttendanceResponse struct {
	ID           string   `json:"id"`
	EventID      string   `json:"event_id"`
	MemberID     string   `json:"member_id"`
	Status       string   `json:"status"`
	MarkedAt     string   `json:"marked_at"`
	MemberName   string   `json:"member_name"`
	Trabajadera  int      `json:"trabajadera"`
	HeightPreCm  *float64 `json:"height_pre_cm,omitempty"`
	HeightPostCm *float64 `json:"height_post_cm,omitempty"`
}

// AttendanceGroup is one trabajadera bucket of an event roll.
type AttendanceGroup struct {
	Trabajadera int                  `json:"trabajadera"`
	Records     []AttendanceResponse `json:"records"`
}

// EventRollResponse is the grouped attendance list for an event,
// including members with no record yet (status "unregistered").
type EventRollResponse struct {
	EventID string            `json:"event_id"`
	Groups  []AttendanceGroup `json:"groups"`
}
