package entities

import "time"

type NotificationType string

const (
	NotificationTypeVote    NotificationType = "vote"
	NotificationTypeAnswer  NotificationType = "answer"
	NotificationTypeAccept  NotificationType = "accept"
	NotificationTypeComment NotificationType = "comment"
)

// Notification is stored per recipient. EventID is the id of the bus event
// that produced it and is unique across the store.
type Notification struct {
	NotificationID string
	RecipientID    string
	ActorID        string
	Type           NotificationType
	PostID         string
	QuestionID     string
	Message        string
	IsRead         bool
	EventID        string
	CreatedAt      time.Time
	ReadAt         *time.Time
}
