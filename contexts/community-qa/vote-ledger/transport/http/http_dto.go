package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CastVoteRequest accepts "up"/"down" as well as "upvote"/"downvote".
type CastVoteRequest struct {
	Direction string `json:"direction"`
	VoteType  string `json:"vote_type,omitempty"`
}

type VoteResponse struct {
	PostID    string `json:"post_id"`
	VoteScore int    `json:"vote_score"`
	UserVote  string `json:"user_vote"`
}

type AcceptAnswerRequest struct {
	QuestionID string `json:"question_id,omitempty"`
}

type AcceptAnswerResponse struct {
	AnswerID         string   `json:"answer_id"`
	QuestionID       string   `json:"question_id"`
	IsAccepted       bool     `json:"is_accepted"`
	VoteScore        int      `json:"vote_score"`
	AcceptedAnswerID string   `json:"accepted_answer_id"`
	ClearedAnswerIDs []string `json:"cleared_answer_ids,omitempty"`
	AlreadyAccepted  bool     `json:"already_accepted"`
}

type VoteStateResponse struct {
	PostID           string `json:"post_id"`
	Kind             string `json:"kind"`
	VoteScore        int    `json:"vote_score"`
	Upvotes          int    `json:"upvotes"`
	Downvotes        int    `json:"downvotes"`
	UserVote         string `json:"user_vote"`
	IsAccepted       bool   `json:"is_accepted"`
	AcceptedAnswerID string `json:"accepted_answer_id,omitempty"`
}
