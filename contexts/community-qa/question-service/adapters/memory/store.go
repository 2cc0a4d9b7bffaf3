package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/domain/services"
	"stackit/contexts/community-qa/question-service/ports"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	questions map[string]entities.Question
	answers   map[string]entities.Answer
	tags      map[string]entities.Tag
	outbox    map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		questions: make(map[string]entities.Question),
		answers:   make(map[string]entities.Answer),
		tags:      make(map[string]entities.Tag),
		outbox:    make(map[string]outboxRecord),
	}
}

func (s *Store) CreateQuestion(_ context.Context, question entities.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.questions[question.QuestionID]; exists {
		return domainerrors.ErrConflict
	}
	s.questions[question.QuestionID] = question.Clone()
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[strings.TrimSpace(questionID)]
	if !ok {
		return entities.Question{}, domainerrors.ErrQuestionNotFound
	}
	return question.Clone(), nil
}

func (s *Store) UpdateQuestion(_ context.Context, question entities.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.questions[question.QuestionID]
	if !ok {
		return domainerrors.ErrQuestionNotFound
	}
	question.AuthorID = current.AuthorID
	question.CreatedAt = current.CreatedAt
	question.Views = current.Views
	s.questions[question.QuestionID] = question.Clone()
	return nil
}

func (s *Store) ListQuestions(_ context.Context, filter ports.QuestionFilter) ([]entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	tag := strings.ToLower(strings.TrimSpace(filter.Tag))

	items := lo.FilterMap(lo.Values(s.questions), func(q entities.Question, _ int) (entities.Question, bool) {
		if !q.IsActive {
			return q, false
		}
		if tag != "" && !slices.Contains(q.Tags, tag) {
			return q, false
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(q.Title), keyword) &&
			!strings.Contains(strings.ToLower(q.Description), keyword) {
			return q, false
		}
		return q.Clone(), true
	})
	sort.Slice(items, func(i, j int) bool {
		if filter.Sort == ports.SortPopular && items[i].Views != items[j].Views {
			return items[i].Views > items[j].Views
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].QuestionID < items[j].QuestionID
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) IncrementViews(_ context.Context, questionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return 0, domainerrors.ErrQuestionNotFound
	}
	question.Views++
	s.questions[questionID] = question
	return question.Views, nil
}

func (s *Store) CountByAuthor(_ context.Context, userID string) (ports.AuthorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.AuthorStats{
		UserID: userID,
		Questions: lo.CountBy(lo.Values(s.questions), func(q entities.Question) bool {
			return q.IsActive && q.AuthorID == userID
		}),
		Answers: lo.CountBy(lo.Values(s.answers), func(a entities.Answer) bool {
			return a.IsActive && a.AuthorID == userID
		}),
	}, nil
}

func (s *Store) CreateAnswer(_ context.Context, answer entities.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.answers[answer.AnswerID]; exists {
		return domainerrors.ErrConflict
	}
	s.answers[answer.AnswerID] = answer.Clone()
	return nil
}

func (s *Store) GetAnswer(_ context.Context, answerID string) (entities.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answers[strings.TrimSpace(answerID)]
	if !ok {
		return entities.Answer{}, domainerrors.ErrAnswerNotFound
	}
	return answer.Clone(), nil
}

// UpdateAnswer writes content and status only; comments are managed through
// AddComment and DeleteComment.
func (s *Store) UpdateAnswer(_ context.Context, answer entities.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.answers[answer.AnswerID]
	if !ok {
		return domainerrors.ErrAnswerNotFound
	}
	current.Content = answer.Content
	current.IsActive = answer.IsActive
	current.UpdatedAt = answer.UpdatedAt
	s.answers[answer.AnswerID] = current
	return nil
}

func (s *Store) ListAnswers(_ context.Context, questionID string) ([]entities.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := lo.FilterMap(lo.Values(s.answers), func(a entities.Answer, _ int) (entities.Answer, bool) {
		return a.Clone(), a.IsActive && a.QuestionID == questionID
	})
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].AnswerID < items[j].AnswerID
	})
	return items, nil
}

func (s *Store) CountAnswers(_ context.Context, questionIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := lo.Associate(questionIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	counts := make(map[string]int, len(questionIDs))
	for _, answer := range s.answers {
		if _, ok := wanted[answer.QuestionID]; ok && answer.IsActive {
			counts[answer.QuestionID]++
		}
	}
	return counts, nil
}

func (s *Store) AddComment(_ context.Context, answerID string, comment entities.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return domainerrors.ErrAnswerNotFound
	}
	answer.Comments = append(slices.Clone(answer.Comments), comment)
	s.answers[answerID] = answer
	return nil
}

func (s *Store) DeleteComment(_ context.Context, answerID string, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return domainerrors.ErrAnswerNotFound
	}
	remaining := lo.Reject(answer.Comments, func(c entities.Comment, _ int) bool { return c.CommentID == commentID })
	if len(remaining) == len(answer.Comments) {
		return domainerrors.ErrCommentNotFound
	}
	answer.Comments = remaining
	s.answers[answerID] = answer
	return nil
}

func (s *Store) AdjustTagCounts(_ context.Context, added []string, removed []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range added {
		if _, ok := s.tags[name]; !ok {
			s.tags[name] = entities.Tag{Name: name, Color: services.DefaultTagColor, CreatedAt: now}
		}
	}
	for _, name := range lo.Uniq(append(slices.Clone(added), removed...)) {
		tag, ok := s.tags[name]
		if !ok {
			continue
		}
		tag.QuestionsCount = lo.CountBy(lo.Values(s.questions), func(q entities.Question) bool {
			return q.IsActive && slices.Contains(q.Tags, name)
		})
		s.tags[name] = tag
	}
	return nil
}

func (s *Store) GetTag(_ context.Context, name string) (entities.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[name]
	if !ok {
		return entities.Tag{}, domainerrors.ErrTagNotFound
	}
	return tag, nil
}

func (s *Store) ListTags(_ context.Context, search string, minCount int, limit int) ([]entities.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search = strings.ToLower(strings.TrimSpace(search))
	items := lo.Filter(lo.Values(s.tags), func(tag entities.Tag, _ int) bool {
		return tag.QuestionsCount >= minCount && (search == "" || strings.Contains(tag.Name, search))
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].QuestionsCount != items[j].QuestionsCount {
			return items[i].QuestionsCount > items[j].QuestionsCount
		}
		return items[i].Name < items[j].Name
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CreateTag(_ context.Context, tag entities.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tags[tag.Name]; exists {
		return domainerrors.ErrConflict
	}
	s.tags[tag.Name] = tag
	return nil
}

func (s *Store) UpdateTag(_ context.Context, tag entities.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tags[tag.Name]
	if !ok {
		return domainerrors.ErrTagNotFound
	}
	current.Description = tag.Description
	current.Color = tag.Color
	s.tags[tag.Name] = current
	return nil
}

func (s *Store) DeleteTag(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[name]; !ok {
		return domainerrors.ErrTagNotFound
	}
	delete(s.tags, name)
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := envelope.EventID
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{message: ports.OutboxMessage{
		OutboxID:     outboxID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := lo.FilterMap(lo.Values(s.outbox), func(record outboxRecord, _ int) (ports.OutboxMessage, bool) {
		return record.message, !record.published
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrNotFound
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

// PendingEvents decodes unpublished outbox rows.
func (s *Store) PendingEvents() []ports.EventEnvelope {
	pending, _ := s.ListPendingOutbox(context.Background(), 0)
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

var _ ports.QuestionRepository = (*Store)(nil)
var _ ports.AnswerRepository = (*Store)(nil)
var _ ports.TagRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
