package entities

import (
	"slices"
	"time"
)

type PostKind string

const (
	PostKindQuestion PostKind = "question"
	PostKindAnswer   PostKind = "answer"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// VoteState is the resulting vote of one voter on one post.
type VoteState string

const (
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
	VoteStateNone VoteState = "none"
)

// Post is the ledger view of a question or an answer. Upvoters and
// Downvoters are disjoint sets; VoteScore is always derived from them.
type Post struct {
	PostID     string
	Kind       PostKind
	AuthorID   string
	QuestionID string

	Upvoters   []string
	Downvoters []string
	VoteScore  int

	IsActive         bool
	IsAccepted       bool
	AcceptedAnswerID string

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

func (p Post) IsQuestion() bool { return p.Kind == PostKindQuestion }

func (p Post) IsAnswer() bool { return p.Kind == PostKindAnswer }

// OwningQuestionID returns the question a post belongs to; a question owns itself.
func (p Post) OwningQuestionID() string {
	if p.IsQuestion() {
		return p.PostID
	}
	return p.QuestionID
}

func (p Post) VoterState(voterID string) VoteState {
	switch {
	case slices.Contains(p.Upvoters, voterID):
		return VoteStateUp
	case slices.Contains(p.Downvoters, voterID):
		return VoteStateDown
	default:
		return VoteStateNone
	}
}

func (p *Post) RecomputeScore() {
	p.VoteScore = len(p.Upvoters) - len(p.Downvoters)
}

// Clone returns a copy that shares no slice storage with p.
func (p Post) Clone() Post {
	out := p
	out.Upvoters = slices.Clone(p.Upvoters)
	out.Downvoters = slices.Clone(p.Downvoters)
	return out
}
