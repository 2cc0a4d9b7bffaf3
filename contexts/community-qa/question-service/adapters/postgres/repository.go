package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"stackit/contexts/community-qa/question-service/domain/entities"
	domainerrors "stackit/contexts/community-qa/question-service/domain/errors"
	"stackit/contexts/community-qa/question-service/domain/services"
	"stackit/contexts/community-qa/question-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&questionModel{},
		&questionTagModel{},
		&answerModel{},
		&commentModel{},
		&tagModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("question_repo_automigrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateQuestion(ctx context.Context, question entities.Question) error {
	row := questionModelFromEntity(question)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return replaceTags(tx, row.ID, question.Tags)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("question_repo_create_question_failed", err, "question_id", row.ID)
	}
	return nil
}

func (r *Repository) GetQuestion(ctx context.Context, questionID string) (entities.Question, error) {
	var row questionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(questionID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Question{}, domainerrors.ErrQuestionNotFound
		}
		return entities.Question{}, r.logError("question_repo_get_question_failed", err, "question_id", questionID)
	}
	tags, err := r.loadTags(ctx, []string{row.ID})
	if err != nil {
		return entities.Question{}, err
	}
	return row.toEntity(tags[row.ID]), nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, question entities.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&questionModel{}).
			Where("id = ?", question.QuestionID).
			Updates(map[string]any{
				"title":       question.Title,
				"description": question.Description,
				"is_active":   question.IsActive,
				"updated_at":  question.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrQuestionNotFound
		}
		return replaceTags(tx, question.QuestionID, question.Tags)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrQuestionNotFound) {
			return err
		}
		return r.logError("question_repo_update_question_failed", err, "question_id", question.QuestionID)
	}
	return nil
}

func replaceTags(tx *gorm.DB, questionID string, tags []string) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&questionTagModel{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := lo.Map(tags, func(tag string, i int) questionTagModel {
		return questionTagModel{QuestionID: questionID, Tag: tag, Position: i}
	})
	return tx.Create(&rows).Error
}

func (r *Repository) ListQuestions(ctx context.Context, filter ports.QuestionFilter) ([]entities.Question, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&questionModel{}).Where("is_active = ?", true)
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		query = query.Where("id IN (?)", db.Model(&questionTagModel{}).Select("question_id").Where("tag = ?", tag))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		pattern := "%" + escapeLike(keyword) + "%"
		query = query.Where("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if filter.Sort == ports.SortPopular {
		query = query.Order("views DESC")
	}
	query = query.Order("created_at DESC").Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []questionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("question_repo_list_questions_failed", err,
			"keyword", filter.Keyword,
			"tag", filter.Tag,
			"sort", filter.Sort,
		)
	}
	tags, err := r.loadTags(ctx, lo.Map(rows, func(row questionModel, _ int) string { return row.ID }))
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row questionModel, _ int) entities.Question {
		return row.toEntity(tags[row.ID])
	}), nil
}

func (r *Repository) IncrementViews(ctx context.Context, questionID string) (int64, error) {
	var views int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&questionModel{}).
			Where("id = ?", questionID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrQuestionNotFound
		}
		return tx.Model(&questionModel{}).
			Select("views").
			Where("id = ?", questionID).
			Scan(&views).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrQuestionNotFound) {
			return 0, err
		}
		return 0, r.logError("question_repo_increment_views_failed", err, "question_id", questionID)
	}
	return views, nil
}

func (r *Repository) CountByAuthor(ctx context.Context, userID string) (ports.AuthorStats, error) {
	stats := ports.AuthorStats{UserID: userID}
	var questions, answers int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&questionModel{}).
		Where("author_id = ? AND is_active = ?", userID, true).
		Count(&questions).Error; err != nil {
		return stats, r.logError("question_repo_count_questions_failed", err, "user_id", userID)
	}
	if err := db.Model(&answerModel{}).
		Where("author_id = ? AND is_active = ?", userID, true).
		Count(&answers).Error; err != nil {
		return stats, r.logError("question_repo_count_answers_failed", err, "user_id", userID)
	}
	stats.Questions = int(questions)
	stats.Answers = int(answers)
	return stats, nil
}

func (r *Repository) loadTags(ctx context.Context, questionIDs []string) (map[string][]string, error) {
	if len(questionIDs) == 0 {
		return map[string][]string{}, nil
	}
	var rows []questionTagModel
	if err := r.db.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("question_repo_load_tags_failed", err, "question_count", len(questionIDs))
	}
	grouped := lo.GroupBy(rows, func(row questionTagModel) string { return row.QuestionID })
	return lo.MapValues(grouped, func(items []questionTagModel, _ string) []string {
		return lo.Map(items, func(item questionTagModel, _ int) string { return item.Tag })
	}), nil
}

func (r *Repository) AdjustTagCounts(ctx context.Context, added []string, removed []string, now time.Time) error {
	affected := lo.Uniq(append(slices.Clone(added), removed...))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range added {
			row := tagModel{Name: name, Color: services.DefaultTagColor, CreatedAt: now.UTC()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		if len(affected) == 0 {
			return nil
		}
		return tx.Model(&tagModel{}).
			Where("name IN ?", affected).
			UpdateColumn("questions_count", gorm.Expr(
				"(SELECT COUNT(*) FROM qa_question_tags qt JOIN qa_questions q ON q.id = qt.question_id WHERE qt.tag = qa_tags.name AND q.is_active)",
			)).Error
	})
	if err != nil {
		return r.logError("question_repo_adjust_tag_counts_failed", err,
			"added", len(added),
			"removed", len(removed),
		)
	}
	return nil
}

func (r *Repository) GetTag(ctx context.Context, name string) (entities.Tag, error) {
	var row tagModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Tag{}, domainerrors.ErrTagNotFound
		}
		return entities.Tag{}, r.logError("question_repo_get_tag_failed", err, "tag", name)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTags(ctx context.Context, search string, minCount int, limit int) ([]entities.Tag, error) {
	query := r.db.WithContext(ctx).Model(&tagModel{}).Where("questions_count >= ?", minCount)
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		query = query.Where("name LIKE ?", "%"+escapeLike(search)+"%")
	}
	query = query.Order("questions_count DESC").Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []tagModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("question_repo_list_tags_failed", err, "search", search)
	}
	return lo.Map(rows, func(row tagModel, _ int) entities.Tag { return row.toEntity() }), nil
}

func (r *Repository) CreateTag(ctx context.Context, tag entities.Tag) error {
	row := tagModel{
		Name:        tag.Name,
		Description: tag.Description,
		Color:       tag.Color,
		CreatedAt:   tag.CreatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("question_repo_create_tag_failed", create.Error, "tag", tag.Name)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) UpdateTag(ctx context.Context, tag entities.Tag) error {
	result := r.db.WithContext(ctx).Model(&tagModel{}).
		Where("name = ?", tag.Name).
		Updates(map[string]any{
			"description": tag.Description,
			"color":       tag.Color,
		})
	if result.Error != nil {
		return r.logError("question_repo_update_tag_failed", result.Error, "tag", tag.Name)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTagNotFound
	}
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&tagModel{})
	if result.Error != nil {
		return r.logError("question_repo_delete_tag_failed", result.Error, "tag", name)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTagNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-qa/question-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("question repository operation failed", fields...)
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.QuestionRepository = (*Repository)(nil)
var _ ports.AnswerRepository = (*Repository)(nil)
var _ ports.TagRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
