package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"stackit/contexts/community-qa/question-service/application"
	"stackit/contexts/community-qa/question-service/domain/entities"
	"stackit/contexts/community-qa/question-service/ports"
	httptransport "stackit/contexts/community-qa/question-service/transport/http"

	"github.com/samber/lo"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateQuestionHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.CreateQuestionRequest,
) (httptransport.QuestionResponse, error) {
	view, err := h.Service.CreateQuestion(ctx, actor, application.CreateQuestionInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return toQuestionResponse(view), nil
}

func (h Handler) GetQuestionHandler(
	ctx context.Context,
	questionID string,
	viewer entities.Actor,
) (httptransport.QuestionDetailResponse, error) {
	detail, err := h.Service.GetQuestion(ctx, strings.TrimSpace(questionID), viewer)
	if err != nil {
		return httptransport.QuestionDetailResponse{}, err
	}
	return httptransport.QuestionDetailResponse{
		QuestionResponse: toQuestionResponse(detail.QuestionView),
		Answers:          lo.Map(detail.Answers, func(a application.AnswerView, _ int) httptransport.AnswerResponse { return toAnswerResponse(a) }),
	}, nil
}

func (h Handler) ListQuestionsHandler(
	ctx context.Context,
	filter ports.QuestionFilter,
	viewerID string,
) (httptransport.ListQuestionsResponse, error) {
	views, err := h.Service.ListQuestions(ctx, filter, viewerID)
	if err != nil {
		return httptransport.ListQuestionsResponse{}, err
	}
	return httptransport.ListQuestionsResponse{
		Items: lo.Map(views, func(v application.QuestionView, _ int) httptransport.QuestionResponse { return toQuestionResponse(v) }),
	}, nil
}

func (h Handler) UpdateQuestionHandler(
	ctx context.Context,
	actor entities.Actor,
	questionID string,
	req httptransport.UpdateQuestionRequest,
) (httptransport.QuestionResponse, error) {
	view, err := h.Service.UpdateQuestion(ctx, actor, strings.TrimSpace(questionID), application.UpdateQuestionInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return toQuestionResponse(view), nil
}

func (h Handler) DeleteQuestionHandler(ctx context.Context, actor entities.Actor, questionID string) error {
	return h.Service.DeleteQuestion(ctx, actor, strings.TrimSpace(questionID))
}

func (h Handler) CreateAnswerHandler(
	ctx context.Context,
	actor entities.Actor,
	questionID string,
	req httptransport.AnswerRequest,
) (httptransport.AnswerResponse, error) {
	view, err := h.Service.CreateAnswer(ctx, actor, strings.TrimSpace(questionID), req.Content)
	if err != nil {
		return httptransport.AnswerResponse{}, err
	}
	return toAnswerResponse(view), nil
}

func (h Handler) UpdateAnswerHandler(
	ctx context.Context,
	actor entities.Actor,
	answerID string,
	req httptransport.AnswerRequest,
) (httptransport.AnswerResponse, error) {
	view, err := h.Service.UpdateAnswer(ctx, actor, strings.TrimSpace(answerID), req.Content)
	if err != nil {
		return httptransport.AnswerResponse{}, err
	}
	return toAnswerResponse(view), nil
}

func (h Handler) DeleteAnswerHandler(ctx context.Context, actor entities.Actor, answerID string) error {
	return h.Service.DeleteAnswer(ctx, actor, strings.TrimSpace(answerID))
}

func (h Handler) AddCommentHandler(
	ctx context.Context,
	actor entities.Actor,
	answerID string,
	req httptransport.CommentRequest,
) (httptransport.CommentResponse, error) {
	comment, err := h.Service.AddComment(ctx, actor, strings.TrimSpace(answerID), req.Content)
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return toCommentResponse(comment), nil
}

func (h Handler) DeleteCommentHandler(ctx context.Context, actor entities.Actor, answerID string, commentID string) error {
	return h.Service.DeleteComment(ctx, actor, strings.TrimSpace(answerID), strings.TrimSpace(commentID))
}

func (h Handler) ListTagsHandler(ctx context.Context, search string, limit int) (httptransport.ListTagsResponse, error) {
	tags, err := h.Service.ListTags(ctx, search, limit)
	if err != nil {
		return httptransport.ListTagsResponse{}, err
	}
	return httptransport.ListTagsResponse{Items: lo.Map(tags, func(t entities.Tag, _ int) httptransport.TagResponse { return toTagResponse(t) })}, nil
}

func (h Handler) PopularTagsHandler(ctx context.Context) (httptransport.ListTagsResponse, error) {
	tags, err := h.Service.PopularTags(ctx)
	if err != nil {
		return httptransport.ListTagsResponse{}, err
	}
	return httptransport.ListTagsResponse{Items: lo.Map(tags, func(t entities.Tag, _ int) httptransport.TagResponse { return toTagResponse(t) })}, nil
}

func (h Handler) CreateTagHandler(ctx context.Context, actor entities.Actor, req httptransport.TagRequest) (httptransport.TagResponse, error) {
	tag, err := h.Service.CreateTag(ctx, actor, application.TagInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return httptransport.TagResponse{}, err
	}
	return toTagResponse(tag), nil
}

func (h Handler) UpdateTagHandler(
	ctx context.Context,
	actor entities.Actor,
	name string,
	req httptransport.UpdateTagRequest,
) (httptransport.TagResponse, error) {
	tag, err := h.Service.UpdateTag(ctx, actor, name, application.UpdateTagInput{
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return httptransport.TagResponse{}, err
	}
	return toTagResponse(tag), nil
}

func (h Handler) DeleteTagHandler(ctx context.Context, actor entities.Actor, name string) error {
	return h.Service.DeleteTag(ctx, actor, name)
}

func (h Handler) UserStatsHandler(ctx context.Context, userID string) (httptransport.UserStatsResponse, error) {
	stats, err := h.Service.UserStats(ctx, userID)
	if err != nil {
		return httptransport.UserStatsResponse{}, err
	}
	return httptransport.UserStatsResponse{
		UserID:    stats.UserID,
		Questions: stats.Questions,
		Answers:   stats.Answers,
	}, nil
}

func toQuestionResponse(view application.QuestionView) httptransport.QuestionResponse {
	q := view.Question
	return httptransport.QuestionResponse{
		QuestionID:       q.QuestionID,
		AuthorID:         q.AuthorID,
		Title:            q.Title,
		Description:      q.Description,
		Tags:             q.Tags,
		Views:            q.Views,
		VoteScore:        view.Ledger.VoteScore,
		UserVote:         voteOrNone(view.Ledger.ViewerVote),
		AcceptedAnswerID: view.Ledger.AcceptedAnswerID,
		AnswerCount:      view.AnswerCount,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func toAnswerResponse(view application.AnswerView) httptransport.AnswerResponse {
	a := view.Answer
	return httptransport.AnswerResponse{
		AnswerID:   a.AnswerID,
		QuestionID: a.QuestionID,
		AuthorID:   a.AuthorID,
		Content:    a.Content,
		VoteScore:  view.Ledger.VoteScore,
		UserVote:   voteOrNone(view.Ledger.ViewerVote),
		IsAccepted: view.Ledger.IsAccepted,
		Comments:   lo.Map(a.Comments, func(c entities.Comment, _ int) httptransport.CommentResponse { return toCommentResponse(c) }),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toCommentResponse(c entities.Comment) httptransport.CommentResponse {
	return httptransport.CommentResponse{
		CommentID: c.CommentID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func toTagResponse(t entities.Tag) httptransport.TagResponse {
	return httptransport.TagResponse{
		Name:           t.Name,
		Description:    t.Description,
		Color:          t.Color,
		QuestionsCount: t.QuestionsCount,
		CreatedAt:      t.CreatedAt,
	}
}

func voteOrNone(vote string) string {
	if vote == "" {
		return "none"
	}
	return vote
}
