package bridge

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	questionerrors "stackit/contexts/community-qa/question-service/domain/errors"
	voteledger "stackit/contexts/community-qa/vote-ledger"
	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	ledgererrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
)

func TestLedgerRegistersAndReportsStates(t *testing.T) {
	ledger := Ledger{Module: voteledger.NewInMemoryModule(nil, slog.Default())}
	ctx := context.Background()

	if err := ledger.RegisterQuestion(ctx, "q-1", "asker"); err != nil {
		t.Fatalf("register question failed: %v", err)
	}
	if err := ledger.RegisterAnswer(ctx, "a-1", "q-1", "helper"); err != nil {
		t.Fatalf("register answer failed: %v", err)
	}
	states, err := ledger.PostStates(ctx, []string{"q-1", "a-1", "missing"}, "viewer")
	if err != nil {
		t.Fatalf("post states failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	if states["a-1"].ViewerVote != "none" {
		t.Fatalf("expected viewer vote none, got %q", states["a-1"].ViewerVote)
	}
}

func TestLedgerMapsNotFound(t *testing.T) {
	ledger := Ledger{Module: voteledger.NewInMemoryModule(nil, slog.Default())}
	err := ledger.DeactivatePost(context.Background(), "missing")
	if !errors.Is(err, questionerrors.ErrNotFound) {
		t.Fatalf("expected question-service not found, got %v", err)
	}
	if !errors.Is(err, ledgererrors.ErrNotFound) {
		t.Fatalf("expected ledger not found to stay in chain, got %v", err)
	}
	if err := ledger.RegisterAnswer(context.Background(), "a-1", "missing", "helper"); !errors.Is(err, questionerrors.ErrNotFound) {
		t.Fatalf("expected not found for answer on missing question, got %v", err)
	}
}

type conflictingPosts struct {
	*memory.Store
}

func (conflictingPosts) SavePost(context.Context, entities.Post, int64) error {
	return ledgererrors.ErrVersionConflict
}

func TestLedgerMapsContention(t *testing.T) {
	store := memory.NewStore([]entities.Post{{PostID: "q-1", Kind: entities.PostKindQuestion, AuthorID: "asker", IsActive: true}})
	module := voteledger.NewModule(voteledger.Dependencies{
		Posts:       conflictingPosts{Store: store},
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		MaxAttempts: 2,
		RetryBase:   time.Millisecond,
		Logger:      slog.Default(),
	})
	ledger := Ledger{Module: module}

	err := ledger.DeactivatePost(context.Background(), "q-1")
	if !errors.Is(err, questionerrors.ErrContention) {
		t.Fatalf("expected question-service contention, got %v", err)
	}
	if !errors.Is(err, ledgererrors.ErrContention) {
		t.Fatalf("expected ledger contention to stay in chain, got %v", err)
	}
}
