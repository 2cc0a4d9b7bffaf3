package postgresadapter

import (
	"time"

	"stackit/contexts/community-qa/question-service/domain/entities"
)

type questionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	AuthorID    string    `gorm:"column:author_id;not null;index"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`
	Views       int64     `gorm:"column:views;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (questionModel) TableName() string {
	return "qa_questions"
}

// questionTagModel keeps the ordered tag list of a question.
type questionTagModel struct {
	QuestionID string `gorm:"column:question_id;primaryKey"`
	Tag        string `gorm:"column:tag;primaryKey;index"`
	Position   int    `gorm:"column:position;not null"`
}

func (questionTagModel) TableName() string {
	return "qa_question_tags"
}

type answerModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	QuestionID string    `gorm:"column:question_id;not null;index"`
	AuthorID   string    `gorm:"column:author_id;not null;index"`
	Content    string    `gorm:"column:content;not null"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (answerModel) TableName() string {
	return "qa_answers"
}

type commentModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	AnswerID  string    `gorm:"column:answer_id;not null;index"`
	AuthorID  string    `gorm:"column:author_id;not null"`
	Content   string    `gorm:"column:content;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (commentModel) TableName() string {
	return "qa_comments"
}

type tagModel struct {
	Name           string    `gorm:"column:name;primaryKey"`
	Description    string    `gorm:"column:description"`
	Color          string    `gorm:"column:color;not null"`
	QuestionsCount int       `gorm:"column:questions_count;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (tagModel) TableName() string {
	return "qa_tags"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "qa_content_outbox"
}

func questionModelFromEntity(q entities.Question) questionModel {
	return questionModel{
		ID:          q.QuestionID,
		AuthorID:    q.AuthorID,
		Title:       q.Title,
		Description: q.Description,
		Views:       q.Views,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt.UTC(),
		UpdatedAt:   q.UpdatedAt.UTC(),
	}
}

func (m questionModel) toEntity(tags []string) entities.Question {
	return entities.Question{
		QuestionID:  m.ID,
		AuthorID:    m.AuthorID,
		Title:       m.Title,
		Description: m.Description,
		Tags:        tags,
		Views:       m.Views,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func (m answerModel) toEntity(comments []commentModel) entities.Answer {
	answer := entities.Answer{
		AnswerID:   m.ID,
		QuestionID: m.QuestionID,
		AuthorID:   m.AuthorID,
		Content:    m.Content,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	for _, c := range comments {
		answer.Comments = append(answer.Comments, entities.Comment{
			CommentID: c.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	return answer
}

func (m tagModel) toEntity() entities.Tag {
	return entities.Tag{
		Name:           m.Name,
		Description:    m.Description,
		Color:          m.Color,
		QuestionsCount: m.QuestionsCount,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}
