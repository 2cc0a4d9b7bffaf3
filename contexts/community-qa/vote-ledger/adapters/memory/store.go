package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-process ledger backend. Every call runs under one mutex,
// which makes SavePost a true compare-and-swap on the version token.
type Store struct {
	mu sync.RWMutex

	posts  map[string]entities.Post
	outbox map[string]outboxRecord
}

func NewStore(seed []entities.Post) *Store {
	posts := make(map[string]entities.Post, len(seed))
	for _, post := range seed {
		if post.Version == 0 {
			post.Version = 1
		}
		post.RecomputeScore()
		posts[post.PostID] = post.Clone()
	}
	return &Store{
		posts:  posts,
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) GetPost(_ context.Context, postID string) (entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[strings.TrimSpace(postID)]
	if !ok {
		return entities.Post{}, domainerrors.ErrNotFound
	}
	return post.Clone(), nil
}

func (s *Store) ListPosts(_ context.Context, postIDs []string) ([]entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Post, 0, len(postIDs))
	for _, postID := range lo.Uniq(postIDs) {
		if post, ok := s.posts[strings.TrimSpace(postID)]; ok {
			items = append(items, post.Clone())
		}
	}
	return items, nil
}

func (s *Store) ListAnswersByQuestion(_ context.Context, questionID string) ([]entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questionID = strings.TrimSpace(questionID)
	items := lo.FilterMap(lo.Values(s.posts), func(post entities.Post, _ int) (entities.Post, bool) {
		return post.Clone(), post.IsAnswer() && post.QuestionID == questionID
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PostID < items[j].PostID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreatePost(_ context.Context, post entities.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	postID := strings.TrimSpace(post.PostID)
	if _, exists := s.posts[postID]; exists {
		return domainerrors.ErrConflict
	}
	post.PostID = postID
	if post.Version == 0 {
		post.Version = 1
	}
	post.RecomputeScore()
	s.posts[postID] = post.Clone()
	return nil
}

func (s *Store) SavePost(_ context.Context, post entities.Post, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	postID := strings.TrimSpace(post.PostID)
	current, ok := s.posts[postID]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrVersionConflict
	}
	post.PostID = postID
	post.Kind = current.Kind
	post.AuthorID = current.AuthorID
	post.QuestionID = current.QuestionID
	post.CreatedAt = current.CreatedAt
	post.Version = expectedVersion + 1
	post.RecomputeScore()
	s.posts[postID] = post.Clone()
	return nil
}

func (s *Store) ApplyAcceptance(_ context.Context, acceptance ports.Acceptance) (ports.AcceptanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.posts[strings.TrimSpace(acceptance.QuestionID)]
	if !ok || !question.IsQuestion() || !question.IsActive {
		return ports.AcceptanceResult{}, domainerrors.ErrNotFound
	}
	if question.Version != acceptance.ExpectedQuestionVersion {
		return ports.AcceptanceResult{}, domainerrors.ErrVersionConflict
	}
	answer, ok := s.posts[strings.TrimSpace(acceptance.AnswerID)]
	if !ok || !answer.IsAnswer() || !answer.IsActive {
		return ports.AcceptanceResult{}, domainerrors.ErrNotFound
	}
	if answer.QuestionID != question.PostID {
		return ports.AcceptanceResult{}, domainerrors.ErrMismatch
	}

	at := acceptance.At.UTC()
	var cleared []string
	for id, sibling := range s.posts {
		if !sibling.IsAnswer() || sibling.QuestionID != question.PostID || id == answer.PostID || !sibling.IsAccepted {
			continue
		}
		sibling.IsAccepted = false
		sibling.UpdatedAt = at
		sibling.Version++
		s.posts[id] = sibling
		cleared = append(cleared, id)
	}
	sort.Strings(cleared)

	if !answer.IsAccepted {
		answer.IsAccepted = true
		answer.UpdatedAt = at
		answer.Version++
		s.posts[answer.PostID] = answer
	}
	question.AcceptedAnswerID = answer.PostID
	question.UpdatedAt = at
	question.Version++
	s.posts[question.PostID] = question

	return ports.AcceptanceResult{
		Question:         question.Clone(),
		Answer:           answer.Clone(),
		ClearedAnswerIDs: cleared,
	}, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := lo.FilterMap(lo.Values(s.outbox), func(record outboxRecord, _ int) (ports.OutboxMessage, bool) {
		return record.message, !record.published
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

// PendingEvents decodes unpublished outbox rows; used by tests and the
// in-process development wiring.
func (s *Store) PendingEvents() []ports.EventEnvelope {
	pending, _ := s.ListPendingOutbox(context.Background(), 1<<20)
	return lo.FilterMap(pending, func(row ports.OutboxMessage, _ int) (ports.EventEnvelope, bool) {
		var event ports.EventEnvelope
		err := json.Unmarshal(row.Payload, &event)
		return event, err == nil
	})
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.PostRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
