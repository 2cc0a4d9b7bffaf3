package entities

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Question struct {
	QuestionID  string
	AuthorID    string
	Title       string
	Description string
	Tags        []string
	Views       int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Answer struct {
	AnswerID   string
	QuestionID string
	AuthorID   string
	Content    string
	Comments   []Comment
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Comment struct {
	CommentID string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

type Tag struct {
	Name           string
	Description    string
	Color          string
	QuestionsCount int
	CreatedAt      time.Time
}

// Actor is the authenticated caller as resolved by the transport layer.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModify reports whether the actor owns the content or moderates it.
func (a Actor) CanModify(authorID string) bool {
	return a.UserID != "" && (a.UserID == authorID || a.IsAdmin())
}

func (q Question) Clone() Question {
	q.Tags = append([]string(nil), q.Tags...)
	return q
}

func (a Answer) Clone() Answer {
	a.Comments = append([]Comment(nil), a.Comments...)
	return a
}
