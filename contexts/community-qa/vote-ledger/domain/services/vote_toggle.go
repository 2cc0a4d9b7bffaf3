package services

import (
	"slices"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
)

// VoteOutcome describes what ApplyVote changed on a post.
type VoteOutcome struct {
	Previous entities.VoteState
	Current  entities.VoteState
	// UpvoteAdded is set only when the voter entered the up set.
	UpvoteAdded bool
}

// ApplyVote applies toggle semantics for one voter:
// a vote in the opposite direction is removed, a repeated vote in the same
// direction is retracted, otherwise the vote is recorded. The score is
// recomputed before returning.
func ApplyVote(post *entities.Post, voterID string, direction entities.VoteDirection) VoteOutcome {
	previous := post.VoterState(voterID)

	target, opposite := &post.Upvoters, &post.Downvoters
	if direction == entities.VoteDown {
		target, opposite = &post.Downvoters, &post.Upvoters
	}

	*opposite = removeVoter(*opposite, voterID)

	current := entities.VoteStateNone
	if slices.Contains(*target, voterID) {
		*target = removeVoter(*target, voterID)
	} else {
		*target = append(*target, voterID)
		current = entities.VoteState(direction)
	}
	post.RecomputeScore()

	return VoteOutcome{
		Previous:    previous,
		Current:     current,
		UpvoteAdded: current == entities.VoteStateUp && previous != entities.VoteStateUp,
	}
}

func removeVoter(voters []string, voterID string) []string {
	return slices.DeleteFunc(voters, func(item string) bool { return item == voterID })
}
