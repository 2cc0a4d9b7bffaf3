package httpadapter

import (
	"context"
	"errors"
	"testing"

	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/application/commands"
	"stackit/contexts/community-qa/vote-ledger/application/queries"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	httptransport "stackit/contexts/community-qa/vote-ledger/transport/http"
)

func newHandler() Handler {
	store := memory.NewStore([]entities.Post{
		{PostID: "q-1", Kind: entities.PostKindQuestion, AuthorID: "asker", IsActive: true},
		{PostID: "a-1", Kind: entities.PostKindAnswer, AuthorID: "helper", QuestionID: "q-1", IsActive: true},
	})
	return Handler{
		Votes:      commands.CastVoteUseCase{Posts: store, Outbox: store, Clock: store, IDGen: store},
		Acceptance: commands.AcceptAnswerUseCase{Posts: store, Outbox: store, Clock: store, IDGen: store, Locks: commands.NewKeyedMutex()},
		States:     queries.VoteStateUseCase{Posts: store},
	}
}

func TestCastVoteHandlerAcceptsBothDirectionSpellings(t *testing.T) {
	h := newHandler()
	ctx := context.Background()

	resp, err := h.CastVoteHandler(ctx, "voter", "q-1", entities.PostKindQuestion, httptransport.CastVoteRequest{VoteType: "upvote"})
	if err != nil {
		t.Fatalf("upvote failed: %v", err)
	}
	if resp.VoteScore != 1 || resp.UserVote != "up" {
		t.Fatalf("unexpected response %+v", resp)
	}
	resp, err = h.CastVoteHandler(ctx, "voter", "q-1", entities.PostKindQuestion, httptransport.CastVoteRequest{Direction: "DOWN"})
	if err != nil {
		t.Fatalf("downvote failed: %v", err)
	}
	if resp.VoteScore != -1 || resp.UserVote != "down" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, err := h.CastVoteHandler(ctx, "voter", "q-1", entities.PostKindQuestion, httptransport.CastVoteRequest{}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if _, err := h.CastVoteHandler(ctx, "voter", "a-1", entities.PostKindQuestion, httptransport.CastVoteRequest{Direction: "up"}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found for answer on question route, got %v", err)
	}
}

func TestAcceptAnswerHandlerResolvesQuestion(t *testing.T) {
	h := newHandler()
	resp, err := h.AcceptAnswerHandler(context.Background(), "asker", "a-1", httptransport.AcceptAnswerRequest{})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if !resp.IsAccepted || resp.QuestionID != "q-1" || resp.AcceptedAnswerID != "a-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	state, err := h.VoteStateHandler(context.Background(), "q-1", "asker")
	if err != nil {
		t.Fatalf("vote state failed: %v", err)
	}
	if state.AcceptedAnswerID != "a-1" || state.UserVote != "none" {
		t.Fatalf("unexpected state %+v", state)
	}
}
