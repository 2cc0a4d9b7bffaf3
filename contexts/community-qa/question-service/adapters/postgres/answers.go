package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

func (r *Repository) CreateAnswer(ctx context.Context, answer entities.Answer) error {
	row := answerModel{
		ID:         answer.AnswerID,
		QuestionID: answer.QuestionID,
		AuthorID:   answer.AuthorID,
		Content:    answer.Content,
		IsActive:   answer.IsActive,
		CreatedAt:  answer.CreatedAt.UTC(),
		UpdatedAt:  answer.UpdatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("question_repo_create_answer_failed", err, "answer_id", row.ID)
	}
	return nil
}

func (r *Repository) GetAnswer(ctx context.Context, answerID string) (entities.Answer, error) {
	var row answerModel
	if err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(answerID)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Answer{}, domainerrors.ErrAnswerNotFound
		}
		return entities.Answer{}, r.logError("question_repo_get_answer_failed", err, "answer_id", answerID)
	}
	comments, err := r.loadComments(ctx, []string{row.ID})
	if err != nil {
		return entities.Answer{}, err
	}
	return row.toEntity(comments[row.ID]), nil
}

func (r *Repository) UpdateAnswer(ctx context.Context, answer entities.Answer) error {
	result := r.db.WithContext(ctx).Model(&answerModel{}).
		Where("id = ?", answer.AnswerID).
		Updates(map[string]any{
			"content":    answer.Content,
			"is_active":  answer.IsActive,
			"updated_at": answer.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("question_repo_update_answer_failed", result.Error, "answer_id", answer.AnswerID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAnswerNotFound
	}
	return nil
}

func (r *Repository) ListAnswers(ctx context.Context, questionID string) ([]entities.Answer, error) {
	var rows []answerModel
	if err := r.db.WithContext(ctx).
		Where("question_id = ? AND is_active = ?", questionID, true).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("question_repo_list_answers_failed", err, "question_id", questionID)
	}
	comments, err := r.loadComments(ctx, lo.Map(rows, func(row answerModel, _ int) string { return row.ID }))
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row answerModel, _ int) entities.Answer {
		return row.toEntity(comments[row.ID])
	}), nil
}

func (r *Repository) CountAnswers(ctx context.Context, questionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(questionIDs))
	if len(questionIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		QuestionID string
		Total      int
	}
	if err := r.db.WithContext(ctx).Model(&answerModel{}).
		Select("question_id, COUNT(*) AS total").
		Where("question_id IN ? AND is_active = ?", questionIDs, true).
		Group("question_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("question_repo_count_answers_failed", err, "question_count", len(questionIDs))
	}
	for _, row := range rows {
		counts[row.QuestionID] = row.Total
	}
	return counts, nil
}

func (r *Repository) AddComment(ctx context.Context, answerID string, comment entities.Comment) error {
	row := commentModel{
		ID:        comment.CommentID,
		AnswerID:  answerID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("question_repo_add_comment_failed", err, "answer_id", answerID)
	}
	return nil
}

func (r *Repository) DeleteComment(ctx context.Context, answerID string, commentID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND answer_id = ?", commentID, answerID).
		Delete(&commentModel{})
	if result.Error != nil {
		return r.logError("question_repo_delete_comment_failed", result.Error, "comment_id", commentID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCommentNotFound
	}
	return nil
}

func (r *Repository) loadComments(ctx context.Context, answerIDs []string) (map[string][]commentModel, error) {
	if len(answerIDs) == 0 {
		return map[string][]commentModel{}, nil
	}
	var rows []commentModel
	if err := r.db.WithContext(ctx).
		Where("answer_id IN ?", answerIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("question_repo_load_comments_failed", err, "answer_count", len(answerIDs))
	}
	return lo.GroupBy(rows, func(row commentModel) string { return row.AnswerID }), nil
}
