package ports

import (
	"context"
	"time"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	"stackit/internal/shared/events"
	"stackit/internal/shared/outbox"
)

// PostRepository persists ledger posts with optimistic concurrency.
// SavePost succeeds only when the stored version equals expectedVersion and
// stores the post with version expectedVersion+1; otherwise it returns
// domainerrors.ErrVersionConflict.
//
// ApplyAcceptance runs the whole acceptance of one answer as a single
// atomic unit claimed on the question: see Acceptance.
type PostRepository interface {
	GetPost(ctx context.Context, postID string) (entities.Post, error)
	ListPosts(ctx context.Context, postIDs []string) ([]entities.Post, error)
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]entities.Post, error)
	CreatePost(ctx context.Context, post entities.Post) error
	SavePost(ctx context.Context, post entities.Post, expectedVersion int64) error
	ApplyAcceptance(ctx context.Context, acceptance Acceptance) (AcceptanceResult, error)
}

// Acceptance moves the accepted answer of a question. It is applied only
// while the question still carries ExpectedQuestionVersion, otherwise
// domainerrors.ErrVersionConflict. Every other accepted answer of the
// question is cleared, the target is set and the question pointer moves in
// the same unit, and the question version is always bumped.
type Acceptance struct {
	QuestionID              string
	AnswerID                string
	ExpectedQuestionVersion int64
	At                      time.Time
}

type AcceptanceResult struct {
	Question         entities.Post
	Answer           entities.Post
	ClearedAnswerIDs []string
}

type EventEnvelope = events.Envelope

type NotifiablePayload = events.NotifiablePayload

type OutboxMessage = outbox.Message

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// LedgerMetrics records operation outcomes; a nil value disables recording.
type LedgerMetrics interface {
	ObserveLedgerOperation(operation string, outcome string)
	ObserveLedgerRetry(operation string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

const (
	EventTypeVoteAdded      = events.TypeVoteAdded
	EventTypeAnswerAccepted = events.TypeAnswerAccepted
)
