package queries

import (
	"context"
	"strings"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

// VoteStateView is the ledger read model of one post for one viewer.
type VoteStateView struct {
	PostID           string
	Kind             entities.PostKind
	QuestionID       string
	AuthorID         string
	VoteScore        int
	Upvotes          int
	Downvotes        int
	ViewerVote       entities.VoteState
	IsAccepted       bool
	AcceptedAnswerID string
	Version          int64
}

type VoteStateUseCase struct {
	Posts ports.PostRepository
}

func (uc VoteStateUseCase) GetVoteState(ctx context.Context, postID string, viewerID string) (VoteStateView, error) {
	post, err := uc.Posts.GetPost(ctx, strings.TrimSpace(postID))
	if err != nil {
		return VoteStateView{}, err
	}
	if !post.IsActive {
		return VoteStateView{}, domainerrors.ErrNotFound
	}
	return toView(post, strings.TrimSpace(viewerID)), nil
}

// GetVoteStates returns views keyed by post id; missing and inactive posts
// are omitted.
func (uc VoteStateUseCase) GetVoteStates(ctx context.Context, postIDs []string, viewerID string) (map[string]VoteStateView, error) {
	out := make(map[string]VoteStateView, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	posts, err := uc.Posts.ListPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	viewerID = strings.TrimSpace(viewerID)
	for _, post := range posts {
		if !post.IsActive {
			continue
		}
		out[post.PostID] = toView(post, viewerID)
	}
	return out, nil
}

func toView(post entities.Post, viewerID string) VoteStateView {
	viewerVote := entities.VoteStateNone
	if viewerID != "" {
		viewerVote = post.VoterState(viewerID)
	}
	return VoteStateView{
		PostID:           post.PostID,
		Kind:             post.Kind,
		QuestionID:       post.QuestionID,
		AuthorID:         post.AuthorID,
		VoteScore:        post.VoteScore,
		Upvotes:          len(post.Upvoters),
		Downvotes:        len(post.Downvoters),
		ViewerVote:       viewerVote,
		IsAccepted:       post.IsAccepted,
		AcceptedAnswerID: post.AcceptedAnswerID,
		Version:          post.Version,
	}
}
