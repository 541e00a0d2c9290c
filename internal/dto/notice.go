package dto

// CreateNoticeRequest is the costalero's absence pre-notification.
type CreateNoticeRequest struct {
	EventID string `json:"event_id" binding:"required,uuid"`
	Reason  string `json:"reason" binding:"required"`
	Message string `json:"message"`
}

// ResolveNoticeRequest is management's decision on a notice.
type ResolveNoticeRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=justified absent"`
}

// NoticeResponse describes an absence notice.
type NoticeResponse struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`
	EventID    string `json:"event_id"`
	EventName  string `json:"event_name,omitempty"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message,omitempty"`
	Reason     string `json:"reason"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}
