package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/ports"
)

const sourceService = "question-service"

// Service owns question, answer, comment and tag content. Votes and the
// accepted answer live in the Ledger; the service registers posts there and
// joins ledger state into its read views.
type Service struct {
	Questions ports.QuestionRepository
	Answers   ports.AnswerRepository
	Tags      ports.TagRepository
	Ledger    ports.Ledger
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

type QuestionView struct {
	Question    entities.Question
	Ledger      ports.LedgerPostState
	AnswerCount int
}

type AnswerView struct {
	Answer entities.Answer
	Ledger ports.LedgerPostState
}

type QuestionDetail struct {
	QuestionView
	Answers []AnswerView
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func requireActor(actor entities.Actor) (entities.Actor, error) {
	actor.UserID = strings.TrimSpace(actor.UserID)
	if actor.UserID == "" {
		return actor, domainerrors.ErrUnauthorized
	}
	return actor, nil
}

func (s Service) activeQuestion(ctx context.Context, questionID string) (entities.Question, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return entities.Question{}, domainerrors.ErrInvalidRequest
	}
	question, err := s.Questions.GetQuestion(ctx, questionID)
	if err != nil {
		return entities.Question{}, err
	}
	if !question.IsActive {
		return entities.Question{}, domainerrors.ErrQuestionNotFound
	}
	return question, nil
}

func (s Service) activeAnswer(ctx context.Context, answerID string) (entities.Answer, error) {
	answerID = strings.TrimSpace(answerID)
	if answerID == "" {
		return entities.Answer{}, domainerrors.ErrInvalidRequest
	}
	answer, err := s.Answers.GetAnswer(ctx, answerID)
	if err != nil {
		return entities.Answer{}, err
	}
	if !answer.IsActive {
		return entities.Answer{}, domainerrors.ErrAnswerNotFound
	}
	return answer, nil
}

func (s Service) ledgerStates(ctx context.Context, postIDs []string, viewerID string) (map[string]ports.LedgerPostState, error) {
	if s.Ledger == nil || len(postIDs) == 0 {
		return map[string]ports.LedgerPostState{}, nil
	}
	return s.Ledger.PostStates(ctx, postIDs, viewerID)
}

// notify appends a notifier event unless the recipient is the actor. Failures
// are logged since the content write has already committed.
func (s Service) notify(ctx context.Context, eventType string, payload ports.NotifiablePayload) string {
	if s.Outbox == nil || payload.RecipientID == "" || payload.RecipientID == payload.ActorID {
		return ""
	}
	eventID, err := s.appendEvent(ctx, eventType, payload)
	if err != nil {
		ResolveLogger(s.Logger).Error("question event append failed",
			"event", "question_event_append_failed",
			"module", "community-qa/question-service",
			"layer", "application",
			"event_type", eventType,
			"post_id", payload.PostID,
			"error", err.Error(),
		)
		return ""
	}
	return eventID
}

func (s Service) appendEvent(ctx context.Context, eventType string, payload ports.NotifiablePayload) (string, error) {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	payload.OccurredAt = s.now()
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	err = s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       payload.OccurredAt,
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "question_id",
		PartitionKey:     payload.QuestionID,
		Data:             data,
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}
