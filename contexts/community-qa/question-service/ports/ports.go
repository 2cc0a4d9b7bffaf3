package ports

import (
	"context"
	"time"

	"stackit/contexts/community-qa/question-service/domain/entities"
	"stackit/internal/shared/events"
	"stackit/internal/shared/outbox"
)

const (
	SortRecent  = "recent"
	SortPopular = "popular"
	SortVotes   = "votes"

	DefaultListLimit = 20
	MaxListLimit     = 50
	PopularTagsLimit = 20
)

func NormalizeSort(value string) string {
	switch value {
	case SortPopular, SortVotes:
		return value
	default:
		return SortRecent
	}
}

func ClampLimit(limit int, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type QuestionFilter struct {
	Keyword string
	Tag     string
	Sort    string
	// Limit of zero returns every match.
	Limit int
}

type AuthorStats struct {
	UserID    string
	Questions int
	Answers   int
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question entities.Question) error
	// GetQuestion returns the question whether or not it is active.
	GetQuestion(ctx context.Context, questionID string) (entities.Question, error)
	UpdateQuestion(ctx context.Context, question entities.Question) error
	// ListQuestions returns active questions matching the filter. Recent and
	// popular orderings are applied by the repository.
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]entities.Question, error)
	IncrementViews(ctx context.Context, questionID string) (int64, error)
	CountByAuthor(ctx context.Context, userID string) (AuthorStats, error)
}

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer entities.Answer) error
	GetAnswer(ctx context.Context, answerID string) (entities.Answer, error)
	UpdateAnswer(ctx context.Context, answer entities.Answer) error
	// ListAnswers returns active answers with their comments, oldest first.
	ListAnswers(ctx context.Context, questionID string) ([]entities.Answer, error)
	CountAnswers(ctx context.Context, questionIDs []string) (map[string]int, error)
	AddComment(ctx context.Context, answerID string, comment entities.Comment) error
	DeleteComment(ctx context.Context, answerID string, commentID string) error
}

type TagRepository interface {
	// AdjustTagCounts creates missing added tags with the default color and
	// recounts the active questions of every added or removed tag.
	AdjustTagCounts(ctx context.Context, added []string, removed []string, now time.Time) error
	GetTag(ctx context.Context, name string) (entities.Tag, error)
	ListTags(ctx context.Context, search string, minCount int, limit int) ([]entities.Tag, error)
	CreateTag(ctx context.Context, tag entities.Tag) error
	UpdateTag(ctx context.Context, tag entities.Tag) error
	DeleteTag(ctx context.Context, name string) error
}

// LedgerPostState is the vote and acceptance view of one post.
type LedgerPostState struct {
	PostID           string
	VoteScore        int
	ViewerVote       string
	IsAccepted       bool
	AcceptedAnswerID string
}

// Ledger is the vote and acceptance authority for questions and answers.
type Ledger interface {
	RegisterQuestion(ctx context.Context, questionID string, authorID string) error
	RegisterAnswer(ctx context.Context, answerID string, questionID string, authorID string) error
	DeactivatePost(ctx context.Context, postID string) error
	PostStates(ctx context.Context, postIDs []string, viewerID string) (map[string]LedgerPostState, error)
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

const (
	EventTypeAnswerPosted = events.TypeAnswerPosted
	EventTypeCommentAdded = events.TypeCommentAdded
)
