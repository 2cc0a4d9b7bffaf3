package application

import (
	"context"
	"fmt"
	"strings"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/domain/services"
	"stackit/contexts/community-qa/question-service/ports"
)

func (s Service) CreateAnswer(ctx context.Context, actor entities.Actor, questionID string, content string) (AnswerView, error) {
	actor, err := requireActor(actor)
	if err != nil {
		return AnswerView{}, err
	}
	question, err := s.activeQuestion(ctx, questionID)
	if err != nil {
		return AnswerView{}, err
	}
	content, err = services.ValidateAnswerContent(content)
	if err != nil {
		return AnswerView{}, err
	}

	answerID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return AnswerView{}, err
	}
	now := s.now()
	answer := entities.Answer{
		AnswerID:   answerID,
		QuestionID: question.QuestionID,
		AuthorID:   actor.UserID,
		Content:    content,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Answers.CreateAnswer(ctx, answer); err != nil {
		return AnswerView{}, err
	}
	if s.Ledger != nil {
		if err := s.Ledger.RegisterAnswer(ctx, answerID, question.QuestionID, actor.UserID); err != nil {
			s.rollbackAnswer(ctx, answer)
			return AnswerView{}, fmt.Errorf("%w: register answer: %w", domainerrors.ErrDependencyUnavailable, err)
		}
	}

	s.notify(ctx, ports.EventTypeAnswerPosted, ports.NotifiablePayload{
		PostID:      answerID,
		QuestionID:  question.QuestionID,
		ActorID:     actor.UserID,
		RecipientID: question.AuthorID,
		Excerpt:     question.Title,
	})
	ResolveLogger(s.Logger).Info("answer created",
		"event", "answer_created",
		"module", "community-qa/question-service",
		"layer", "application",
		"question_id", question.QuestionID,
		"answer_id", answerID,
		"author_id", actor.UserID,
	)
	return AnswerView{Answer: answer, Ledger: ports.LedgerPostState{PostID: answerID, ViewerVote: "none"}}, nil
}

func (s Service) UpdateAnswer(ctx context.Context, actor entities.Actor, answerID string, content string) (AnswerView, error) {
	actor, err := requireActor(actor)
	if err != nil {
		return AnswerView{}, err
	}
	answer, err := s.activeAnswer(ctx, answerID)
	if err != nil {
		return AnswerView{}, err
	}
	if !actor.CanModify(answer.AuthorID) {
		return AnswerView{}, domainerrors.ErrForbidden
	}
	if answer.Content, err = services.ValidateAnswerContent(content); err != nil {
		return AnswerView{}, err
	}
	answer.UpdatedAt = s.now()
	if err := s.Answers.UpdateAnswer(ctx, answer); err != nil {
		return AnswerView{}, err
	}
	states, err := s.ledgerStates(ctx, []string{answer.AnswerID}, actor.UserID)
	if err != nil {
		return AnswerView{}, err
	}
	return AnswerView{Answer: answer, Ledger: stateFor(states, answer.AnswerID)}, nil
}

func (s Service) DeleteAnswer(ctx context.Context, actor entities.Actor, answerID string) error {
	actor, err := requireActor(actor)
	if err != nil {
		return err
	}
	answer, err := s.activeAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	if !actor.CanModify(answer.AuthorID) {
		return domainerrors.ErrForbidden
	}
	answer.IsActive = false
	answer.UpdatedAt = s.now()
	if err := s.Answers.UpdateAnswer(ctx, answer); err != nil {
		return err
	}
	if err := s.deactivateInLedger(ctx, answer.AnswerID); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("answer deleted",
		"event", "answer_deleted",
		"module", "community-qa/question-service",
		"layer", "application",
		"answer_id", answer.AnswerID,
		"actor_id", actor.UserID,
	)
	return nil
}

func (s Service) rollbackAnswer(ctx context.Context, answer entities.Answer) {
	answer.IsActive = false
	answer.UpdatedAt = s.now()
	if err := s.Answers.UpdateAnswer(ctx, answer); err != nil {
		ResolveLogger(s.Logger).Error("answer rollback failed",
			"event", "answer_rollback_failed",
			"module", "community-qa/question-service",
			"layer", "application",
			"question_id", answer.QuestionID,
			"answer_id", answer.AnswerID,
			"error", err.Error(),
		)
	}
}

// AnswerQuestionID resolves the owning question of an active answer.
func (s Service) AnswerQuestionID(ctx context.Context, answerID string) (string, error) {
	answer, err := s.activeAnswer(ctx, answerID)
	if err != nil {
		return "", err
	}
	return answer.QuestionID, nil
}

func (s Service) AddComment(ctx context.Context, actor entities.Actor, answerID string, content string) (entities.Comment, error) {
	actor, err := requireActor(actor)
	if err != nil {
		return entities.Comment{}, err
	}
	answer, err := s.activeAnswer(ctx, answerID)
	if err != nil {
		return entities.Comment{}, err
	}
	content, err = services.ValidateCommentContent(content)
	if err != nil {
		return entities.Comment{}, err
	}
	commentID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	comment := entities.Comment{
		CommentID: commentID,
		AuthorID:  actor.UserID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.Answers.AddComment(ctx, answer.AnswerID, comment); err != nil {
		return entities.Comment{}, err
	}

	s.notify(ctx, ports.EventTypeCommentAdded, ports.NotifiablePayload{
		PostID:      answer.AnswerID,
		QuestionID:  answer.QuestionID,
		ActorID:     actor.UserID,
		RecipientID: answer.AuthorID,
		Excerpt:     excerpt(content, 80),
	})
	return comment, nil
}

func (s Service) DeleteComment(ctx context.Context, actor entities.Actor, answerID string, commentID string) error {
	actor, err := requireActor(actor)
	if err != nil {
		return err
	}
	answer, err := s.activeAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	commentID = strings.TrimSpace(commentID)
	for _, comment := range answer.Comments {
		if comment.CommentID != commentID {
			continue
		}
		if !actor.CanModify(comment.AuthorID) {
			return domainerrors.ErrForbidden
		}
		return s.Answers.DeleteComment(ctx, answer.AnswerID, commentID)
	}
	return domainerrors.ErrCommentNotFound
}

func excerpt(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
