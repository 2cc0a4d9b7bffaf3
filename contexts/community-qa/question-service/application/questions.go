package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/domain/services"
	"stackit/contexts/community-qa/question-service/ports"
)

type CreateQuestionInput struct {
	Title       string
	Description string
	Tags        []string
}

// UpdateQuestionInput leaves nil fields unchanged.
type UpdateQuestionInput struct {
	Title       *string
	Description *string
	Tags        []string
}

func (s Service) CreateQuestion(ctx context.Context, actor entities.Actor, input CreateQuestionInput) (QuestionView, error) {
	logger := ResolveLogger(s.Logger)
	actor, err := requireActor(actor)
	if err != nil {
		return QuestionView{}, err
	}
	title, err := services.ValidateTitle(input.Title)
	if err != nil {
		return QuestionView{}, err
	}
	description, err := services.ValidateDescription(input.Description)
	if err != nil {
		return QuestionView{}, err
	}
	tags, err := services.NormalizeQuestionTags(input.Tags)
	if err != nil {
		return QuestionView{}, err
	}

	questionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return QuestionView{}, err
	}
	now := s.now()
	question := entities.Question{
		QuestionID:  questionID,
		AuthorID:    actor.UserID,
		Title:       title,
		Description: description,
		Tags:        tags,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Questions.CreateQuestion(ctx, question); err != nil {
		return QuestionView{}, err
	}
	if err := s.Tags.AdjustTagCounts(ctx, tags, nil, now); err != nil {
		return QuestionView{}, err
	}
	if s.Ledger != nil {
		if err := s.Ledger.RegisterQuestion(ctx, questionID, actor.UserID); err != nil {
			s.rollbackQuestion(ctx, question)
			return QuestionView{}, fmt.Errorf("%w: register question: %w", domainerrors.ErrDependencyUnavailable, err)
		}
	}

	logger.Info("question created",
		"event", "question_created",
		"module", "community-qa/question-service",
		"layer", "application",
		"question_id", questionID,
		"author_id", actor.UserID,
		"tags", len(tags),
	)
	return QuestionView{Question: question}, nil
}

func (s Service) rollbackQuestion(ctx context.Context, question entities.Question) {
	question.IsActive = false
	question.UpdatedAt = s.now()
	if err := s.Questions.UpdateQuestion(ctx, question); err != nil {
		ResolveLogger(s.Logger).Error("question rollback failed",
			"event", "question_rollback_failed",
			"module", "community-qa/question-service",
			"layer", "application",
			"question_id", question.QuestionID,
			"error", err.Error(),
		)
		return
	}
	_ = s.Tags.AdjustTagCounts(ctx, nil, question.Tags, question.UpdatedAt)
}

// GetQuestion counts a view unless the viewer is the author and returns the
// active answers ordered accepted first, then by score, then oldest.
func (s Service) GetQuestion(ctx context.Context, questionID string, viewer entities.Actor) (QuestionDetail, error) {
	question, err := s.activeQuestion(ctx, questionID)
	if err != nil {
		return QuestionDetail{}, err
	}
	viewerID := strings.TrimSpace(viewer.UserID)
	if viewerID != question.AuthorID {
		views, err := s.Questions.IncrementViews(ctx, question.QuestionID)
		if err != nil {
			return QuestionDetail{}, err
		}
		question.Views = views
	}

	answers, err := s.Answers.ListAnswers(ctx, question.QuestionID)
	if err != nil {
		return QuestionDetail{}, err
	}
	postIDs := make([]string, 0, len(answers)+1)
	postIDs = append(postIDs, question.QuestionID)
	for _, answer := range answers {
		postIDs = append(postIDs, answer.AnswerID)
	}
	states, err := s.ledgerStates(ctx, postIDs, viewerID)
	if err != nil {
		return QuestionDetail{}, err
	}

	detail := QuestionDetail{
		QuestionView: QuestionView{
			Question:    question,
			Ledger:      stateFor(states, question.QuestionID),
			AnswerCount: len(answers),
		},
		Answers: make([]AnswerView, 0, len(answers)),
	}
	for _, answer := range answers {
		detail.Answers = append(detail.Answers, AnswerView{Answer: answer, Ledger: stateFor(states, answer.AnswerID)})
	}
	sortAnswers(detail.Answers)
	return detail, nil
}

func sortAnswers(answers []AnswerView) {
	sort.SliceStable(answers, func(i, j int) bool {
		a, b := answers[i], answers[j]
		if a.Ledger.IsAccepted != b.Ledger.IsAccepted {
			return a.Ledger.IsAccepted
		}
		if a.Ledger.VoteScore != b.Ledger.VoteScore {
			return a.Ledger.VoteScore > b.Ledger.VoteScore
		}
		return a.Answer.CreatedAt.Before(b.Answer.CreatedAt)
	})
}

func stateFor(states map[string]ports.LedgerPostState, postID string) ports.LedgerPostState {
	state, ok := states[postID]
	if !ok {
		return ports.LedgerPostState{PostID: postID, ViewerVote: "none"}
	}
	return state
}

func (s Service) ListQuestions(ctx context.Context, filter ports.QuestionFilter, viewerID string) ([]QuestionView, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	filter.Sort = ports.NormalizeSort(strings.TrimSpace(filter.Sort))
	limit := ports.ClampLimit(filter.Limit, ports.DefaultListLimit)

	query := filter
	query.Limit = limit
	if filter.Sort == ports.SortVotes {
		// Scores live in the ledger, so ordering happens after the join.
		query.Sort = ports.SortRecent
		query.Limit = 0
	}
	questions, err := s.Questions.ListQuestions(ctx, query)
	if err != nil {
		return nil, err
	}

	postIDs := make([]string, 0, len(questions))
	for _, question := range questions {
		postIDs = append(postIDs, question.QuestionID)
	}
	states, err := s.ledgerStates(ctx, postIDs, strings.TrimSpace(viewerID))
	if err != nil {
		return nil, err
	}
	if filter.Sort == ports.SortVotes {
		sort.SliceStable(questions, func(i, j int) bool {
			return stateFor(states, questions[i].QuestionID).VoteScore > stateFor(states, questions[j].QuestionID).VoteScore
		})
		if len(questions) > limit {
			questions = questions[:limit]
		}
	}

	counts, err := s.Answers.CountAnswers(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	out := make([]QuestionView, 0, len(questions))
	for _, question := range questions {
		out = append(out, QuestionView{
			Question:    question,
			Ledger:      stateFor(states, question.QuestionID),
			AnswerCount: counts[question.QuestionID],
		})
	}
	return out, nil
}

func (s Service) UpdateQuestion(ctx context.Context, actor entities.Actor, questionID string, input UpdateQuestionInput) (QuestionView, error) {
	actor, err := requireActor(actor)
	if err != nil {
		return QuestionView{}, err
	}
	question, err := s.activeQuestion(ctx, questionID)
	if err != nil {
		return QuestionView{}, err
	}
	if !actor.CanModify(question.AuthorID) {
		return QuestionView{}, domainerrors.ErrForbidden
	}

	if input.Title != nil {
		if question.Title, err = services.ValidateTitle(*input.Title); err != nil {
			return QuestionView{}, err
		}
	}
	if input.Description != nil {
		if question.Description, err = services.ValidateDescription(*input.Description); err != nil {
			return QuestionView{}, err
		}
	}
	var added, removed []string
	if input.Tags != nil {
		tags, err := services.NormalizeQuestionTags(input.Tags)
		if err != nil {
			return QuestionView{}, err
		}
		added, removed = services.TagDelta(question.Tags, tags)
		question.Tags = tags
	}
	question.UpdatedAt = s.now()

	if err := s.Questions.UpdateQuestion(ctx, question); err != nil {
		return QuestionView{}, err
	}
	if len(added) > 0 || len(removed) > 0 {
		if err := s.Tags.AdjustTagCounts(ctx, added, removed, question.UpdatedAt); err != nil {
			return QuestionView{}, err
		}
	}

	ResolveLogger(s.Logger).Info("question updated",
		"event", "question_updated",
		"module", "community-qa/question-service",
		"layer", "application",
		"question_id", question.QuestionID,
		"actor_id", actor.UserID,
	)
	states, err := s.ledgerStates(ctx, []string{question.QuestionID}, actor.UserID)
	if err != nil {
		return QuestionView{}, err
	}
	return QuestionView{Question: question, Ledger: stateFor(states, question.QuestionID)}, nil
}

// DeleteQuestion soft-deletes the question and its answers and closes their
// ledger entries.
func (s Service) DeleteQuestion(ctx context.Context, actor entities.Actor, questionID string) error {
	actor, err := requireActor(actor)
	if err != nil {
		return err
	}
	question, err := s.activeQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if !actor.CanModify(question.AuthorID) {
		return domainerrors.ErrForbidden
	}

	now := s.now()
	question.IsActive = false
	question.UpdatedAt = now
	if err := s.Questions.UpdateQuestion(ctx, question); err != nil {
		return err
	}
	if err := s.Tags.AdjustTagCounts(ctx, nil, question.Tags, now); err != nil {
		return err
	}

	answers, err := s.Answers.ListAnswers(ctx, question.QuestionID)
	if err != nil {
		return err
	}
	for _, answer := range answers {
		answer.IsActive = false
		answer.UpdatedAt = now
		if err := s.Answers.UpdateAnswer(ctx, answer); err != nil {
			return err
		}
		if err := s.deactivateInLedger(ctx, answer.AnswerID); err != nil {
			return err
		}
	}
	if err := s.deactivateInLedger(ctx, question.QuestionID); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Info("question deleted",
		"event", "question_deleted",
		"module", "community-qa/question-service",
		"layer", "application",
		"question_id", question.QuestionID,
		"actor_id", actor.UserID,
		"answers", len(answers),
	)
	return nil
}

func (s Service) deactivateInLedger(ctx context.Context, postID string) error {
	if s.Ledger == nil {
		return nil
	}
	err := s.Ledger.DeactivatePost(ctx, postID)
	switch {
	case err == nil, errors.Is(err, domainerrors.ErrNotFound):
		return nil
	case errors.Is(err, domainerrors.ErrContention):
		return err
	default:
		return fmt.Errorf("%w: deactivate post: %w", domainerrors.ErrDependencyUnavailable, err)
	}
}

func (s Service) UserStats(ctx context.Context, userID string) (ports.AuthorStats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.AuthorStats{}, domainerrors.ErrInvalidRequest
	}
	return s.Questions.CountByAuthor(ctx, userID)
}
