package httptransport

type NotificationResponse struct {
	NotificationID string `json:"notification_id"`
	Type           string `json:"type"`
	ActorID        string `json:"actor_id"`
	PostID         string `json:"post_id,omitempty"`
	QuestionID     string `json:"question_id,omitempty"`
	Message        string `json:"message"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
	ReadAt         string `json:"read_at,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
