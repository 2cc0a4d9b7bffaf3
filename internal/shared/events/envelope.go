package events

import (
	"encoding/json"
	"time"
)

// Envelope is the shared event shape carried on the bus and stored in
// outbox payloads. Data holds the event-specific JSON body.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Q&A event types. Topics on the bus use the event type verbatim.
const (
	TypeVoteAdded      = "qa.vote.added"
	TypeAnswerAccepted = "qa.answer.accepted"
	TypeAnswerPosted   = "qa.answer.posted"
	TypeCommentAdded   = "qa.comment.added"
)

// NotifiablePayload is the Data body of every event a notifier consumes.
type NotifiablePayload struct {
	PostID      string    `json:"post_id"`
	QuestionID  string    `json:"question_id"`
	ActorID     string    `json:"actor_id"`
	RecipientID string    `json:"recipient_id"`
	Excerpt     string    `json:"excerpt,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
