package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"stackit/contexts/community-qa/vote-ledger/application/commands"
	"stackit/contexts/community-qa/vote-ledger/application/queries"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	httptransport "stackit/contexts/community-qa/vote-ledger/transport/http"
)

type Handler struct {
	Votes      commands.CastVoteUseCase
	Acceptance commands.AcceptAnswerUseCase
	States     queries.VoteStateUseCase
	Logger     *slog.Logger
}

// CastVoteHandler godoc
// @Summary Vote on a post
// @Description Casts, switches or toggles off the caller's vote on a question or answer.
// @Tags vote-ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer id"
// @Param request body httptransport.CastVoteRequest true "Vote direction"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /answers/{answer_id}/vote [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterID string,
	postID string,
	kind entities.PostKind,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	direction, ok := parseDirection(req)
	if !ok {
		return httptransport.VoteResponse{}, domainerrors.ErrInvalidRequest
	}
	result, err := h.Votes.Execute(ctx, commands.CastVoteCommand{
		PostID:    postID,
		VoterID:   voterID,
		Direction: direction,
		Kind:      kind,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		PostID:    result.PostID,
		VoteScore: result.VoteScore,
		UserVote:  string(result.VoteState),
	}, nil
}

// AcceptAnswerHandler resolves the question from the answer when the request
// does not name one.
// @Summary Accept an answer
// @Tags vote-ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer id"
// @Param request body httptransport.AcceptAnswerRequest false "Optional owning question"
// @Success 200 {object} httptransport.AcceptAnswerResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /answers/{answer_id}/accept [post]
func (h Handler) AcceptAnswerHandler(
	ctx context.Context,
	actorID string,
	answerID string,
	req httptransport.AcceptAnswerRequest,
) (httptransport.AcceptAnswerResponse, error) {
	questionID := strings.TrimSpace(req.QuestionID)
	if questionID == "" {
		state, err := h.States.GetVoteState(ctx, answerID, actorID)
		if err != nil {
			return httptransport.AcceptAnswerResponse{}, err
		}
		if state.Kind != entities.PostKindAnswer {
			return httptransport.AcceptAnswerResponse{}, domainerrors.ErrNotFound
		}
		questionID = state.QuestionID
	}

	result, err := h.Acceptance.Execute(ctx, commands.AcceptAnswerCommand{
		QuestionID: questionID,
		AnswerID:   answerID,
		ActorID:    actorID,
	})
	if err != nil {
		return httptransport.AcceptAnswerResponse{}, err
	}
	return httptransport.AcceptAnswerResponse{
		AnswerID:         result.Answer.PostID,
		QuestionID:       result.Answer.QuestionID,
		IsAccepted:       result.Answer.IsAccepted,
		VoteScore:        result.Answer.VoteScore,
		AcceptedAnswerID: result.Answer.PostID,
		ClearedAnswerIDs: result.PreviousAnswerIDs,
		AlreadyAccepted:  result.AlreadyAccepted,
	}, nil
}

// VoteStateHandler godoc
// @Summary Get vote state
// @Tags vote-ledger
// @Produce json
// @Param post_id path string true "Post id"
// @Success 200 {object} httptransport.VoteStateResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /posts/{post_id}/votes [get]
func (h Handler) VoteStateHandler(ctx context.Context, postID string, viewerID string) (httptransport.VoteStateResponse, error) {
	state, err := h.States.GetVoteState(ctx, postID, viewerID)
	if err != nil {
		return httptransport.VoteStateResponse{}, err
	}
	return httptransport.VoteStateResponse{
		PostID:           state.PostID,
		Kind:             string(state.Kind),
		VoteScore:        state.VoteScore,
		Upvotes:          state.Upvotes,
		Downvotes:        state.Downvotes,
		UserVote:         string(state.ViewerVote),
		IsAccepted:       state.IsAccepted,
		AcceptedAnswerID: state.AcceptedAnswerID,
	}, nil
}

func parseDirection(req httptransport.CastVoteRequest) (entities.VoteDirection, bool) {
	raw := strings.ToLower(strings.TrimSpace(req.Direction))
	if raw == "" {
		raw = strings.ToLower(strings.TrimSpace(req.VoteType))
	}
	switch raw {
	case "up", "upvote":
		return entities.VoteUp, true
	case "down", "downvote":
		return entities.VoteDown, true
	default:
		return "", false
	}
}
