package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "stackit/contexts/community-qa/vote-ledger/application"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/domain/services"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

type CastVoteCommand struct {
	PostID    string
	VoterID   string
	Direction entities.VoteDirection
	// Kind optionally restricts the vote to questions or answers.
	Kind entities.PostKind
}

type CastVoteResult struct {
	PostID    string
	VoteScore int
	VoteState entities.VoteState
	Version   int64
	// EventID is set when a VoteAdded event was emitted.
	EventID string
}

// CastVoteUseCase applies a vote intent with toggle semantics. The
// read-modify-write runs against the post's version token and is retried
// on conflict, so concurrent voters on one post never lose a mutation.
type CastVoteUseCase struct {
	Posts   ports.PostRepository
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.LedgerMetrics
	Retry   RetryPolicy
	Logger  *slog.Logger
}

func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	postID := strings.TrimSpace(cmd.PostID)
	voterID := strings.TrimSpace(cmd.VoterID)
	if postID == "" || voterID == "" || !cmd.Direction.Valid() {
		logger.Warn("cast vote validation failed",
			"event", "ledger_cast_vote_validation_failed",
			"module", "community-qa/vote-ledger",
			"layer", "application",
			"post_id", postID,
			"voter_id", voterID,
			"direction", string(cmd.Direction),
		)
		observe(uc.Metrics, "cast_vote", domainerrors.ErrInvalidRequest)
		return CastVoteResult{}, domainerrors.ErrInvalidRequest
	}

	var (
		saved   entities.Post
		outcome services.VoteOutcome
	)
	err := runOptimistic(ctx, uc.Retry, uc.Metrics, "cast_vote", func(attempt int) error {
		post, err := uc.Posts.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if !post.IsActive || (cmd.Kind != "" && post.Kind != cmd.Kind) {
			return domainerrors.ErrNotFound
		}
		if post.AuthorID == voterID {
			return domainerrors.ErrSelfVoteForbidden
		}

		expected := post.Version
		outcome = services.ApplyVote(&post, voterID, cmd.Direction)
		post.UpdatedAt = uc.now()
		if err := uc.Posts.SavePost(ctx, post, expected); err != nil {
			if isConflict(err) {
				logger.Debug("cast vote version conflict",
					"event", "ledger_cast_vote_conflict",
					"module", "community-qa/vote-ledger",
					"layer", "application",
					"post_id", postID,
					"attempt", attempt,
					"expected_version", expected,
				)
			}
			return err
		}
		post.Version = expected + 1
		saved = post
		return nil
	})
	if err != nil {
		observe(uc.Metrics, "cast_vote", err)
		logger.Warn("cast vote failed",
			"event", "ledger_cast_vote_failed",
			"module", "community-qa/vote-ledger",
			"layer", "application",
			"post_id", postID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	result := CastVoteResult{
		PostID:    saved.PostID,
		VoteScore: saved.VoteScore,
		VoteState: outcome.Current,
		Version:   saved.Version,
	}
	if outcome.UpvoteAdded {
		eventID, err := appendLedgerEvent(ctx, uc.Outbox, uc.IDGen, ports.EventTypeVoteAdded, saved.UpdatedAt, ports.NotifiablePayload{
			PostID:      saved.PostID,
			QuestionID:  saved.OwningQuestionID(),
			ActorID:     voterID,
			RecipientID: saved.AuthorID,
		})
		if err != nil {
			// The vote is committed at this point, so append failures are logged only.
			logger.Error("vote added event append failed",
				"event", "ledger_vote_added_append_failed",
				"module", "community-qa/vote-ledger",
				"layer", "application",
				"post_id", saved.PostID,
				"voter_id", voterID,
				"error", err.Error(),
			)
		}
		result.EventID = eventID
	}

	observe(uc.Metrics, "cast_vote", nil)
	logger.Info("vote cast",
		"event", "ledger_vote_cast",
		"module", "community-qa/vote-ledger",
		"layer", "application",
		"post_id", saved.PostID,
		"voter_id", voterID,
		"direction", string(cmd.Direction),
		"previous_state", string(outcome.Previous),
		"vote_state", string(outcome.Current),
		"vote_score", saved.VoteScore,
		"version", saved.Version,
	)
	return result, nil
}

func (uc CastVoteUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
