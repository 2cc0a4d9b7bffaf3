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

type RegisterPostCommand struct {
	PostID     string
	Kind       entities.PostKind
	AuthorID   string
	QuestionID string
}

// RegistryUseCase opens and closes ledger entries for posts created and
// soft-deleted by the content service.
type RegistryUseCase struct {
	Posts   ports.PostRepository
	Clock   ports.Clock
	Metrics ports.LedgerMetrics
	Retry   RetryPolicy
	Locks   *KeyedMutex
	Logger  *slog.Logger
}

// RegisterPost is idempotent for an identical registration.
func (uc RegistryUseCase) RegisterPost(ctx context.Context, cmd RegisterPostCommand) (entities.Post, error) {
	logger := application.ResolveLogger(uc.Logger)
	post := entities.Post{
		PostID:   strings.TrimSpace(cmd.PostID),
		Kind:     cmd.Kind,
		AuthorID: strings.TrimSpace(cmd.AuthorID),
		IsActive: true,
		Version:  1,
	}
	switch cmd.Kind {
	case entities.PostKindQuestion:
	case entities.PostKindAnswer:
		post.QuestionID = strings.TrimSpace(cmd.QuestionID)
		if post.QuestionID == "" {
			return entities.Post{}, domainerrors.ErrInvalidRequest
		}
	default:
		return entities.Post{}, domainerrors.ErrInvalidRequest
	}
	if post.PostID == "" || post.AuthorID == "" {
		return entities.Post{}, domainerrors.ErrInvalidRequest
	}

	if post.IsAnswer() {
		question, err := uc.Posts.GetPost(ctx, post.QuestionID)
		if err != nil {
			return entities.Post{}, err
		}
		if !question.IsActive || !question.IsQuestion() {
			return entities.Post{}, domainerrors.ErrNotFound
		}
	}

	now := uc.now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if err := uc.Posts.CreatePost(ctx, post); err != nil {
		if !errors.Is(err, domainerrors.ErrConflict) {
			return entities.Post{}, err
		}
		existing, getErr := uc.Posts.GetPost(ctx, post.PostID)
		if getErr != nil {
			return entities.Post{}, getErr
		}
		if existing.Kind != post.Kind || existing.AuthorID != post.AuthorID || existing.QuestionID != post.QuestionID {
			return entities.Post{}, domainerrors.ErrConflict
		}
		return existing, nil
	}

	logger.Info("ledger post registered",
		"event", "ledger_post_registered",
		"module", "community-qa/vote-ledger",
		"layer", "application",
		"post_id", post.PostID,
		"kind", string(post.Kind),
		"author_id", post.AuthorID,
		"question_id", post.QuestionID,
	)
	return post, nil
}

// DeactivatePost soft-deletes a post. Deactivating the accepted answer also
// clears the owning question's pointer.
func (uc RegistryUseCase) DeactivatePost(ctx context.Context, postID string) error {
	logger := application.ResolveLogger(uc.Logger)
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return domainerrors.ErrInvalidRequest
	}

	var deactivated entities.Post
	err := runOptimistic(ctx, uc.Retry, uc.Metrics, "deactivate_post", func(int) error {
		post, err := uc.Posts.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		deactivated = post
		if !post.IsActive {
			return nil
		}
		expected := post.Version
		post.IsActive = false
		post.IsAccepted = false
		post.UpdatedAt = uc.now()
		if err := uc.Posts.SavePost(ctx, post, expected); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		observe(uc.Metrics, "deactivate_post", err)
		return err
	}

	if deactivated.IsAnswer() && deactivated.QuestionID != "" {
		if err := uc.clearAcceptedPointer(ctx, deactivated.QuestionID, deactivated.PostID); err != nil {
			observe(uc.Metrics, "deactivate_post", err)
			return err
		}
	}

	observe(uc.Metrics, "deactivate_post", nil)
	logger.Info("ledger post deactivated",
		"event", "ledger_post_deactivated",
		"module", "community-qa/vote-ledger",
		"layer", "application",
		"post_id", postID,
		"kind", string(deactivated.Kind),
	)
	return nil
}

func (uc RegistryUseCase) clearAcceptedPointer(ctx context.Context, questionID string, answerID string) error {
	unlock := uc.Locks.Lock(questionID)
	defer unlock()

	return runOptimistic(ctx, uc.Retry, uc.Metrics, "clear_accepted_pointer", func(int) error {
		question, err := uc.Posts.GetPost(ctx, questionID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return nil
			}
			return err
		}
		if question.AcceptedAnswerID != answerID {
			return nil
		}
		expected := question.Version
		question.AcceptedAnswerID = ""
		question.UpdatedAt = uc.now()
		return uc.Posts.SavePost(ctx, question, expected)
	})
}

func (uc RegistryUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
