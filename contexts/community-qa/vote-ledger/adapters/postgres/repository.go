package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
	"stackit/internal/shared/outbox"

	"github.com/google/uuid"
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

// AutoMigrate creates the ledger tables when they do not exist yet.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&postModel{}, &voteModel{}, &outboxModel{}); err != nil {
		return r.logError("ledger_repo_automigrate_failed", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, postID string) (entities.Post, error) {
	var row postModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(postID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Post{}, domainerrors.ErrNotFound
		}
		return entities.Post{}, r.logError("ledger_repo_get_post_failed", err, "post_id", strings.TrimSpace(postID))
	}
	votes, err := r.loadVotes(ctx, []string{row.ID})
	if err != nil {
		return entities.Post{}, err
	}
	return row.toEntity(votes[row.ID]), nil
}

func (r *Repository) ListPosts(ctx context.Context, postIDs []string) ([]entities.Post, error) {
	ids := lo.Uniq(lo.FilterMap(postIDs, func(id string, _ int) (string, bool) {
		id = strings.TrimSpace(id)
		return id, id != ""
	}))
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []postModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_posts_failed", err, "post_count", len(ids))
	}
	return r.withVotes(ctx, rows)
}

func (r *Repository) ListAnswersByQuestion(ctx context.Context, questionID string) ([]entities.Post, error) {
	var rows []postModel
	if err := r.db.WithContext(ctx).
		Where("kind = ?", string(entities.PostKindAnswer)).
		Where("question_id = ?", strings.TrimSpace(questionID)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_answers_failed", err, "question_id", strings.TrimSpace(questionID))
	}
	return r.withVotes(ctx, rows)
}

func (r *Repository) CreatePost(ctx context.Context, post entities.Post) error {
	row := postModelFromEntity(post)
	if row.Version == 0 {
		row.Version = 1
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("ledger_repo_create_post_failed", create.Error,
			"post_id", row.ID,
			"kind", row.Kind,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// SavePost performs the conditional update on version and reconciles the
// vote rows inside one transaction.
func (r *Repository) SavePost(ctx context.Context, post entities.Post, expectedVersion int64) error {
	post.RecomputeScore()
	row := postModelFromEntity(post)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&postModel{}).
			Where("id = ? AND version = ?", row.ID, expectedVersion).
			Updates(map[string]any{
				"vote_score":         row.VoteScore,
				"is_active":          row.IsActive,
				"is_accepted":        row.IsAccepted,
				"accepted_answer_id": row.AcceptedAnswerID,
				"version":            expectedVersion + 1,
				"updated_at":         row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&postModel{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrNotFound
			}
			return domainerrors.ErrVersionConflict
		}
		return syncVotes(tx, post, row.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) || errors.Is(err, domainerrors.ErrVersionConflict) {
			return err
		}
		return r.logError("ledger_repo_save_post_failed", err,
			"post_id", row.ID,
			"expected_version", expectedVersion,
		)
	}
	return nil
}

// ApplyAcceptance holds a row lock on the question for the whole sequence,
// so acceptances of one question serialize across processes.
func (r *Repository) ApplyAcceptance(ctx context.Context, acceptance ports.Acceptance) (ports.AcceptanceResult, error) {
	questionID := strings.TrimSpace(acceptance.QuestionID)
	answerID := strings.TrimSpace(acceptance.AnswerID)
	at := acceptance.At.UTC()

	var result ports.AcceptanceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question postModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", questionID).
			First(&question).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}
		if question.Kind != string(entities.PostKindQuestion) || !question.IsActive {
			return domainerrors.ErrNotFound
		}
		if question.Version != acceptance.ExpectedQuestionVersion {
			return domainerrors.ErrVersionConflict
		}

		var answer postModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", answerID).
			First(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}
		if answer.Kind != string(entities.PostKindAnswer) || !answer.IsActive {
			return domainerrors.ErrNotFound
		}
		if lo.FromPtr(answer.QuestionID) != question.ID {
			return domainerrors.ErrMismatch
		}

		var cleared []string
		if err := tx.Model(&postModel{}).
			Where("kind = ? AND question_id = ? AND id <> ? AND is_accepted", string(entities.PostKindAnswer), question.ID, answer.ID).
			Order("id ASC").
			Pluck("id", &cleared).Error; err != nil {
			return err
		}
		if len(cleared) > 0 {
			if err := tx.Model(&postModel{}).
				Where("id IN ?", cleared).
				Updates(map[string]any{
					"is_accepted": false,
					"version":     gorm.Expr("version + 1"),
					"updated_at":  at,
				}).Error; err != nil {
				return err
			}
		}

		if !answer.IsAccepted {
			answer.IsAccepted = true
			answer.Version++
			answer.UpdatedAt = at
			if err := tx.Model(&postModel{}).
				Where("id = ?", answer.ID).
				Updates(map[string]any{
					"is_accepted": true,
					"version":     answer.Version,
					"updated_at":  at,
				}).Error; err != nil {
				return err
			}
		}

		question.AcceptedAnswerID = lo.ToPtr(answer.ID)
		question.Version++
		question.UpdatedAt = at
		if err := tx.Model(&postModel{}).
			Where("id = ?", question.ID).
			Updates(map[string]any{
				"accepted_answer_id": answer.ID,
				"version":            question.Version,
				"updated_at":         at,
			}).Error; err != nil {
			return err
		}

		result = ports.AcceptanceResult{
			Question:         question.toEntity(nil),
			Answer:           answer.toEntity(nil),
			ClearedAnswerIDs: cleared,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) ||
			errors.Is(err, domainerrors.ErrVersionConflict) ||
			errors.Is(err, domainerrors.ErrMismatch) {
			return ports.AcceptanceResult{}, err
		}
		return ports.AcceptanceResult{}, r.logError("ledger_repo_apply_acceptance_failed", err,
			"question_id", questionID,
			"answer_id", answerID,
		)
	}

	votes, err := r.loadVotes(ctx, []string{result.Question.PostID, result.Answer.PostID})
	if err != nil {
		return ports.AcceptanceResult{}, err
	}
	result.Question = withVoteRows(result.Question, votes[result.Question.PostID])
	result.Answer = withVoteRows(result.Answer, votes[result.Answer.PostID])
	return result, nil
}

// syncVotes applies the difference between stored vote rows and the post's
// vote sets, keeping original vote timestamps for unchanged votes.
func syncVotes(tx *gorm.DB, post entities.Post, now time.Time) error {
	var existing []voteModel
	if err := tx.Where("post_id = ?", post.PostID).Find(&existing).Error; err != nil {
		return err
	}
	desired := make(map[string]string, len(post.Upvoters)+len(post.Downvoters))
	for _, voterID := range post.Upvoters {
		desired[voterID] = string(entities.VoteUp)
	}
	for _, voterID := range post.Downvoters {
		desired[voterID] = string(entities.VoteDown)
	}

	var stale []string
	kept := make(map[string]bool, len(existing))
	for _, vote := range existing {
		if direction, ok := desired[vote.VoterID]; ok && direction == vote.Direction {
			kept[vote.VoterID] = true
			continue
		}
		stale = append(stale, vote.VoterID)
	}
	if len(stale) > 0 {
		if err := tx.Where("post_id = ? AND voter_id IN ?", post.PostID, stale).
			Delete(&voteModel{}).Error; err != nil {
			return err
		}
	}

	var inserts []voteModel
	for voterID, direction := range desired {
		if kept[voterID] {
			continue
		}
		inserts = append(inserts, voteModel{
			PostID:    post.PostID,
			VoterID:   voterID,
			Direction: direction,
			CreatedAt: now.UTC(),
		})
	}
	if len(inserts) == 0 {
		return nil
	}
	return tx.Create(&inserts).Error
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("ledger_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("ledger_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	return lo.Map(rows, func(row outboxModel, _ int) ports.OutboxMessage {
		return ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		}
	}), nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) withVotes(ctx context.Context, rows []postModel) ([]entities.Post, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	votes, err := r.loadVotes(ctx, lo.Map(rows, func(row postModel, _ int) string { return row.ID }))
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row postModel, _ int) entities.Post {
		return row.toEntity(votes[row.ID])
	}), nil
}

func (r *Repository) loadVotes(ctx context.Context, postIDs []string) (map[string][]voteModel, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC, voter_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_load_votes_failed", err, "post_count", len(postIDs))
	}
	return lo.GroupBy(rows, func(row voteModel) string { return row.PostID }), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-qa/vote-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

type postModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	Kind             string    `gorm:"column:kind;not null"`
	AuthorID         string    `gorm:"column:author_id;not null"`
	QuestionID       *string   `gorm:"column:question_id;index"`
	VoteScore        int       `gorm:"column:vote_score;not null"`
	IsActive         bool      `gorm:"column:is_active;not null"`
	IsAccepted       bool      `gorm:"column:is_accepted;not null"`
	AcceptedAnswerID *string   `gorm:"column:accepted_answer_id"`
	Version          int64     `gorm:"column:version;not null"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (postModel) TableName() string {
	return "vote_ledger_posts"
}

func postModelFromEntity(post entities.Post) postModel {
	return postModel{
		ID:               strings.TrimSpace(post.PostID),
		Kind:             string(post.Kind),
		AuthorID:         strings.TrimSpace(post.AuthorID),
		QuestionID:       optionalString(post.QuestionID),
		VoteScore:        post.VoteScore,
		IsActive:         post.IsActive,
		IsAccepted:       post.IsAccepted,
		AcceptedAnswerID: optionalString(post.AcceptedAnswerID),
		Version:          post.Version,
		CreatedAt:        post.CreatedAt.UTC(),
		UpdatedAt:        post.UpdatedAt.UTC(),
	}
}

func (m postModel) toEntity(votes []voteModel) entities.Post {
	post := entities.Post{
		PostID:           m.ID,
		Kind:             entities.PostKind(m.Kind),
		AuthorID:         m.AuthorID,
		QuestionID:       lo.FromPtr(m.QuestionID),
		IsActive:         m.IsActive,
		IsAccepted:       m.IsAccepted,
		AcceptedAnswerID: lo.FromPtr(m.AcceptedAnswerID),
		Version:          m.Version,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
	return withVoteRows(post, votes)
}

func withVoteRows(post entities.Post, votes []voteModel) entities.Post {
	post.Upvoters, post.Downvoters = nil, nil
	for _, vote := range votes {
		switch vote.Direction {
		case string(entities.VoteUp):
			post.Upvoters = append(post.Upvoters, vote.VoterID)
		case string(entities.VoteDown):
			post.Downvoters = append(post.Downvoters, vote.VoterID)
		}
	}
	post.RecomputeScore()
	return post
}

// voteModel holds one row per (post, voter); the composite key keeps a voter
// in at most one of the vote sets.
type voteModel struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id;primaryKey"`
	Direction string    `gorm:"column:direction;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "vote_ledger_votes"
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
	return "vote_ledger_outbox"
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PostRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
