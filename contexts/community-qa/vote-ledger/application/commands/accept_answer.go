package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "stackit/contexts/community-qa/vote-ledger/application"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

type AcceptAnswerCommand struct {
	QuestionID string
	AnswerID   string
	ActorID    string
}

type AcceptAnswerResult struct {
	Answer entities.Post
	// PreviousAnswerIDs lists answers whose acceptance was cleared.
	PreviousAnswerIDs []string
	AlreadyAccepted   bool
	EventID           string
}

// AcceptAnswerUseCase marks one answer as the accepted solution of its
// question. The clear, set and pointer writes are one repository unit
// claimed on the question version read at the start of the attempt, so two
// acceptances of the same question never both commit. Locks only spares
// local accepts from retrying on each other.
type AcceptAnswerUseCase struct {
	Posts   ports.PostRepository
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.LedgerMetrics
	Retry   RetryPolicy
	Locks   *KeyedMutex
	Logger  *slog.Logger
}

func (uc AcceptAnswerUseCase) Execute(ctx context.Context, cmd AcceptAnswerCommand) (AcceptAnswerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	questionID := strings.TrimSpace(cmd.QuestionID)
	answerID := strings.TrimSpace(cmd.AnswerID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if questionID == "" || answerID == "" || actorID == "" {
		observe(uc.Metrics, "accept_answer", domainerrors.ErrInvalidRequest)
		return AcceptAnswerResult{}, domainerrors.ErrInvalidRequest
	}

	unlock := uc.Locks.Lock(questionID)
	defer unlock()

	var result AcceptAnswerResult
	err := runOptimistic(ctx, uc.Retry, uc.Metrics, "accept_answer", func(attempt int) error {
		out, err := uc.attempt(ctx, questionID, answerID, actorID)
		if err != nil {
			if isConflict(err) {
				logger.Debug("accept answer version conflict",
					"event", "ledger_accept_answer_conflict",
					"module", "community-qa/vote-ledger",
					"layer", "application",
					"question_id", questionID,
					"answer_id", answerID,
					"attempt", attempt,
				)
			}
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		observe(uc.Metrics, "accept_answer", err)
		logger.Warn("accept answer failed",
			"event", "ledger_accept_answer_failed",
			"module", "community-qa/vote-ledger",
			"layer", "application",
			"question_id", questionID,
			"answer_id", answerID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return AcceptAnswerResult{}, err
	}

	if !result.AlreadyAccepted && actorID != result.Answer.AuthorID {
		eventID, err := appendLedgerEvent(ctx, uc.Outbox, uc.IDGen, ports.EventTypeAnswerAccepted, result.Answer.UpdatedAt, ports.NotifiablePayload{
			PostID:      result.Answer.PostID,
			QuestionID:  questionID,
			ActorID:     actorID,
			RecipientID: result.Answer.AuthorID,
		})
		if err != nil {
			logger.Error("answer accepted event append failed",
				"event", "ledger_answer_accepted_append_failed",
				"module", "community-qa/vote-ledger",
				"layer", "application",
				"question_id", questionID,
				"answer_id", answerID,
				"error", err.Error(),
			)
		}
		result.EventID = eventID
	}

	observe(uc.Metrics, "accept_answer", nil)
	logger.Info("answer accepted",
		"event", "ledger_answer_accepted",
		"module", "community-qa/vote-ledger",
		"layer", "application",
		"question_id", questionID,
		"answer_id", answerID,
		"actor_id", actorID,
		"cleared_answers", len(result.PreviousAnswerIDs),
		"already_accepted", result.AlreadyAccepted,
	)
	return result, nil
}

func (uc AcceptAnswerUseCase) attempt(
	ctx context.Context,
	questionID string,
	answerID string,
	actorID string,
) (AcceptAnswerResult, error) {
	question, err := uc.activePost(ctx, questionID, entities.PostKindQuestion)
	if err != nil {
		return AcceptAnswerResult{}, err
	}
	answer, err := uc.activePost(ctx, answerID, entities.PostKindAnswer)
	if err != nil {
		return AcceptAnswerResult{}, err
	}
	if answer.QuestionID != question.PostID {
		return AcceptAnswerResult{}, domainerrors.ErrMismatch
	}
	if actorID != question.AuthorID {
		return AcceptAnswerResult{}, domainerrors.ErrForbidden
	}

	siblings, err := uc.Posts.ListAnswersByQuestion(ctx, question.PostID)
	if err != nil {
		return AcceptAnswerResult{}, err
	}
	othersAccepted := false
	for _, sibling := range siblings {
		if sibling.PostID != answer.PostID && sibling.IsAccepted {
			othersAccepted = true
			break
		}
	}
	if question.AcceptedAnswerID == answer.PostID && answer.IsAccepted && !othersAccepted {
		return AcceptAnswerResult{Answer: answer, AlreadyAccepted: true}, nil
	}

	applied, err := uc.Posts.ApplyAcceptance(ctx, ports.Acceptance{
		QuestionID:              question.PostID,
		AnswerID:                answer.PostID,
		ExpectedQuestionVersion: question.Version,
		At:                      uc.now(),
	})
	if err != nil {
		return AcceptAnswerResult{}, err
	}
	return AcceptAnswerResult{Answer: applied.Answer, PreviousAnswerIDs: applied.ClearedAnswerIDs}, nil
}

func (uc AcceptAnswerUseCase) activePost(ctx context.Context, postID string, kind entities.PostKind) (entities.Post, error) {
	post, err := uc.Posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return entities.Post{}, domainerrors.ErrNotFound
		}
		return entities.Post{}, err
	}
	if !post.IsActive || post.Kind != kind {
		return entities.Post{}, domainerrors.ErrNotFound
	}
	return post, nil
}

func (uc AcceptAnswerUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
