package domain

// NotificationEvent is derived from a freshly written record.
type NotificationEvent struct {
	UserDid       string             `json:"userDid"`
	RecordURI     string             `json:"recordUri"`
	Author        string             `json:"author"`
	Reason        NotificationReason `json:"reason"`
	ReasonSubject *string            `json:"reasonSubject,omitempty"`
	IndexedAt     string             `json:"indexedAt"`
}

// Notification is a stored event as seen by its recipient.
type Notification struct {
	NotificationEvent
	Record map[string]any `json:"record"`
	IsRead bool           `json:"isRead"`
	Cursor string         `json:"cursor"`
}
