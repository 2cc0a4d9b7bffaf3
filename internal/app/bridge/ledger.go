package bridge

import (
	"context"
	"errors"
	"fmt"

	questionerrors "stackit/contexts/community-qa/question-service/domain/errors"
	questionports "stackit/contexts/community-qa/question-service/ports"
	voteledger "stackit/contexts/community-qa/vote-ledger"
	"stackit/contexts/community-qa/vote-ledger/application/commands"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	ledgererrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
)

// Ledger adapts the vote-ledger module to the question-service ledger port.
type Ledger struct {
	Module voteledger.Module
}

func (l Ledger) RegisterQuestion(ctx context.Context, questionID string, authorID string) error {
	_, err := l.Module.Registry.RegisterPost(ctx, commands.RegisterPostCommand{
		PostID:   questionID,
		Kind:     entities.PostKindQuestion,
		AuthorID: authorID,
	})
	return mapLedgerError(err)
}

func (l Ledger) RegisterAnswer(ctx context.Context, answerID string, questionID string, authorID string) error {
	_, err := l.Module.Registry.RegisterPost(ctx, commands.RegisterPostCommand{
		PostID:     answerID,
		Kind:       entities.PostKindAnswer,
		AuthorID:   authorID,
		QuestionID: questionID,
	})
	return mapLedgerError(err)
}

func (l Ledger) DeactivatePost(ctx context.Context, postID string) error {
	return mapLedgerError(l.Module.Registry.DeactivatePost(ctx, postID))
}

func (l Ledger) PostStates(ctx context.Context, postIDs []string, viewerID string) (map[string]questionports.LedgerPostState, error) {
	views, err := l.Module.States.GetVoteStates(ctx, postIDs, viewerID)
	if err != nil {
		return nil, mapLedgerError(err)
	}
	out := make(map[string]questionports.LedgerPostState, len(views))
	for id, view := range views {
		out[id] = questionports.LedgerPostState{
			PostID:           view.PostID,
			VoteScore:        view.VoteScore,
			ViewerVote:       string(view.ViewerVote),
			IsAccepted:       view.IsAccepted,
			AcceptedAnswerID: view.AcceptedAnswerID,
		}
	}
	return out, nil
}

// mapLedgerError translates ledger sentinels into question-service ones and
// keeps the ledger error in the chain.
func mapLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledgererrors.ErrNotFound):
		return fmt.Errorf("%w: %w", questionerrors.ErrNotFound, err)
	case errors.Is(err, ledgererrors.ErrInvalidRequest):
		return fmt.Errorf("%w: %w", questionerrors.ErrInvalidRequest, err)
	case errors.Is(err, ledgererrors.ErrConflict):
		return fmt.Errorf("%w: %w", questionerrors.ErrConflict, err)
	case errors.Is(err, ledgererrors.ErrContention), errors.Is(err, ledgererrors.ErrVersionConflict):
		return fmt.Errorf("%w: %w", questionerrors.ErrContention, err)
	default:
		return err
	}
}

var _ questionports.Ledger = Ledger{}
