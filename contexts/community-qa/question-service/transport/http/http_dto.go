package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type UpdateQuestionRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type QuestionResponse struct {
	QuestionID       string    `json:"question_id"`
	AuthorID         string    `json:"author_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Tags             []string  `json:"tags"`
	Views            int64     `json:"views"`
	VoteScore        int       `json:"vote_score"`
	UserVote         string    `json:"user_vote"`
	AcceptedAnswerID string    `json:"accepted_answer_id,omitempty"`
	AnswerCount      int       `json:"answer_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type QuestionDetailResponse struct {
	QuestionResponse
	Answers []AnswerResponse `json:"answers"`
}

type ListQuestionsResponse struct {
	Items []QuestionResponse `json:"items"`
}

type AnswerRequest struct {
	Content string `json:"content"`
}

type AnswerResponse struct {
	AnswerID   string            `json:"answer_id"`
	QuestionID string            `json:"question_id"`
	AuthorID   string            `json:"author_id"`
	Content    string            `json:"content"`
	VoteScore  int               `json:"vote_score"`
	UserVote   string            `json:"user_vote"`
	IsAccepted bool              `json:"is_accepted"`
	Comments   []CommentResponse `json:"comments"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	CommentID string    `json:"comment_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type TagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type UpdateTagRequest struct {
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

type TagResponse struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	QuestionsCount int       `json:"questions_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListTagsResponse struct {
	Items []TagResponse `json:"items"`
}

type UserStatsResponse struct {
	UserID    string `json:"user_id"`
	Questions int    `json:"questions"`
	Answers   int    `json:"answers"`
}
