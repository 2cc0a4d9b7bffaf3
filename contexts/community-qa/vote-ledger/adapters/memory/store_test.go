package memory

import (
	"context"
	"errors"
	"testing"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

func TestSavePostRejectsStaleVersion(t *testing.T) {
	store := NewStore([]entities.Post{{
		PostID:   "q-1",
		Kind:     entities.PostKindQuestion,
		AuthorID: "author-1",
		IsActive: true,
	}})
	ctx := context.Background()

	first, err := store.GetPost(ctx, "q-1")
	if err != nil {
		t.Fatalf("get post failed: %v", err)
	}
	second := first.Clone()

	first.Upvoters = append(first.Upvoters, "voter-a")
	if err := store.SavePost(ctx, first, first.Version); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second.Downvoters = append(second.Downvoters, "voter-b")
	err = store.SavePost(ctx, second, second.Version)
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	stored, err := store.GetPost(ctx, "q-1")
	if err != nil {
		t.Fatalf("get post failed: %v", err)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version 2, got %d", stored.Version)
	}
	if stored.VoteScore != 1 || len(stored.Downvoters) != 0 {
		t.Fatalf("unexpected stored state: %+v", stored)
	}
}

func TestSavePostKeepsImmutableFields(t *testing.T) {
	store := NewStore([]entities.Post{{
		PostID:     "a-1",
		Kind:       entities.PostKindAnswer,
		AuthorID:   "author-1",
		QuestionID: "q-1",
		IsActive:   true,
	}})
	ctx := context.Background()

	post, _ := store.GetPost(ctx, "a-1")
	post.AuthorID = "someone-else"
	post.QuestionID = "q-2"
	if err := store.SavePost(ctx, post, post.Version); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	stored, _ := store.GetPost(ctx, "a-1")
	if stored.AuthorID != "author-1" || stored.QuestionID != "q-1" {
		t.Fatalf("immutable fields changed: %+v", stored)
	}
}

func TestGetPostReturnsIsolatedCopy(t *testing.T) {
	store := NewStore([]entities.Post{{
		PostID:   "q-1",
		Kind:     entities.PostKindQuestion,
		AuthorID: "author-1",
		Upvoters: []string{"voter-a"},
		IsActive: true,
	}})
	ctx := context.Background()

	post, _ := store.GetPost(ctx, "q-1")
	post.Upvoters[0] = "mutated"

	again, _ := store.GetPost(ctx, "q-1")
	if again.Upvoters[0] != "voter-a" {
		t.Fatalf("store state leaked through returned slice: %v", again.Upvoters)
	}
}

func TestCreatePostDuplicateReturnsConflict(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	post := entities.Post{PostID: "q-1", Kind: entities.PostKindQuestion, AuthorID: "author-1", IsActive: true}
	if err := store.CreatePost(ctx, post); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.CreatePost(ctx, post); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyAcceptanceClaimsQuestionVersion(t *testing.T) {
	store := NewStore([]entities.Post{
		{PostID: "q-1", Kind: entities.PostKindQuestion, AuthorID: "asker", IsActive: true},
		{PostID: "a-1", Kind: entities.PostKindAnswer, AuthorID: "helper-1", QuestionID: "q-1", IsActive: true},
		{PostID: "a-2", Kind: entities.PostKindAnswer, AuthorID: "helper-2", QuestionID: "q-1", IsActive: true},
		{PostID: "q-2", Kind: entities.PostKindQuestion, AuthorID: "asker", IsActive: true},
	})
	ctx := context.Background()

	if _, err := store.ApplyAcceptance(ctx, ports.Acceptance{QuestionID: "q-1", AnswerID: "a-1", ExpectedQuestionVersion: 1}); err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	_, err := store.ApplyAcceptance(ctx, ports.Acceptance{QuestionID: "q-1", AnswerID: "a-2", ExpectedQuestionVersion: 1})
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	second, _ := store.GetPost(ctx, "a-2")
	if second.IsAccepted {
		t.Fatalf("expected a-2 untouched after conflict")
	}
	_, err = store.ApplyAcceptance(ctx, ports.Acceptance{QuestionID: "q-2", AnswerID: "a-1", ExpectedQuestionVersion: 1})
	if !errors.Is(err, domainerrors.ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	_, err = store.ApplyAcceptance(ctx, ports.Acceptance{QuestionID: "a-1", AnswerID: "a-2", ExpectedQuestionVersion: 2})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found for answer as question, got %v", err)
	}

	result, err := store.ApplyAcceptance(ctx, ports.Acceptance{QuestionID: "q-1", AnswerID: "a-2", ExpectedQuestionVersion: 2})
	if err != nil {
		t.Fatalf("moving acceptance failed: %v", err)
	}
	if len(result.ClearedAnswerIDs) != 1 || result.ClearedAnswerIDs[0] != "a-1" || result.Question.Version != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	first, _ := store.GetPost(ctx, "a-1")
	if first.IsAccepted {
		t.Fatalf("expected a-1 cleared")
	}
}
