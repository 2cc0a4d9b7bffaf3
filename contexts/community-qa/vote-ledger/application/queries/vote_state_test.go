package queries

import (
	"context"
	"errors"
	"testing"

	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
)

func newStates() VoteStateUseCase {
	return VoteStateUseCase{Posts: memory.NewStore([]entities.Post{
		{PostID: "q-1", Kind: entities.PostKindQuestion, AuthorID: "asker", IsActive: true, Upvoters: []string{"v1", "v2"}, Downvoters: []string{"v3"}, AcceptedAnswerID: "a-1"},
		{PostID: "a-1", Kind: entities.PostKindAnswer, AuthorID: "helper", QuestionID: "q-1", IsActive: true, IsAccepted: true},
		{PostID: "a-gone", Kind: entities.PostKindAnswer, AuthorID: "helper", QuestionID: "q-1", IsActive: false},
	})}
}

func TestGetVoteStateReportsViewerVote(t *testing.T) {
	uc := newStates()
	ctx := context.Background()

	view, err := uc.GetVoteState(ctx, "q-1", "v3")
	if err != nil {
		t.Fatalf("get vote state failed: %v", err)
	}
	if view.VoteScore != 1 || view.Upvotes != 2 || view.Downvotes != 1 || view.ViewerVote != entities.VoteStateDown {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.AcceptedAnswerID != "a-1" {
		t.Fatalf("expected accepted answer a-1, got %q", view.AcceptedAnswerID)
	}

	anonymous, err := uc.GetVoteState(ctx, "q-1", "")
	if err != nil {
		t.Fatalf("anonymous get failed: %v", err)
	}
	if anonymous.ViewerVote != entities.VoteStateNone {
		t.Fatalf("expected no vote for anonymous viewer, got %s", anonymous.ViewerVote)
	}

	if _, err := uc.GetVoteState(ctx, "a-gone", "v1"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found for inactive post, got %v", err)
	}
}

func TestGetVoteStatesOmitsMissingAndInactive(t *testing.T) {
	uc := newStates()
	views, err := uc.GetVoteStates(context.Background(), []string{"q-1", "a-1", "a-gone", "missing", "q-1"}, "v1")
	if err != nil {
		t.Fatalf("get vote states failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views["q-1"].ViewerVote != entities.VoteStateUp || !views["a-1"].IsAccepted {
		t.Fatalf("unexpected views %+v", views)
	}
}
