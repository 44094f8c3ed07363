package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/db"
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	store := &PostgresStore{db: db.NewBunPostgresClient(connectionString)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.db.PingContext(ctx); err != nil {
		store.db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return store, nil
}

func NewPostgresStoreFromDB(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveSecret(ctx context.Context, integrationID uuid.UUID, secret string) error {
	now := time.Now()
	record := &models.SecretDB{
		IntegrationID: integrationID,
		Secret:        secret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.upsertSecret(record).Exec(ctx); err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}
	return nil
}

func (s *PostgresStore) upsertSecret(record *models.SecretDB) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(record).
		On("CONFLICT (integration_id) DO UPDATE").
		Set("secret = EXCLUDED.secret").
		Set("updated_at = EXCLUDED.updated_at")
}

func (s *PostgresStore) GetSecret(ctx context.Context, integrationID uuid.UUID) (string, error) {
	var record models.SecretDB
	err := s.db.NewSelect().
		Model(&record).
		Column("secret").
		Where("integration_id = ?", integrationID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get secret: %w", err)
	}
	return record.Secret, nil
}

func (s *PostgresStore) SaveFormTemplate(ctx context.Context, template *models.FormTemplate) error {
	record := models.FormTemplateFromApp(template)

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := s.upsertFormTemplate(record).Exec(ctx); err != nil {
		return fmt.Errorf("failed to save form template: %w", err)
	}
	return nil
}

func (s *PostgresStore) upsertFormTemplate(record *models.FormTemplateDB) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(record).
		On("CONFLICT (integration_id, database_id, owner) DO UPDATE").
		Set("fingerprint = EXCLUDED.fingerprint").
		Set("inputs = EXCLUDED.inputs").
		Set("updated_at = EXCLUDED.updated_at")
}

func (s *PostgresStore) GetFormTemplate(ctx context.Context, integrationID uuid.UUID, databaseID, owner string) (*models.FormTemplate, error) {
	var record models.FormTemplateDB
	err := s.db.NewSelect().
		Model(&record).
		Where("integration_id = ?", integrationID).
		Where("database_id = ?", databaseID).
		Where("owner = ?", owner).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form template: %w", err)
	}
	return record.ToFormTemplate(), nil
}

func (s *PostgresStore) SaveSubmission(ctx context.Context, submission *models.Submission) error {
	record := models.SubmissionFromApp(submission)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := s.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}

	submission.ID = record.ID
	submission.CreatedAt = record.CreatedAt
	return nil
}

func (s *PostgresStore) GetSubmissions(ctx context.Context, integrationID uuid.UUID, offset, limit int) ([]*models.Submission, error) {
	var records []*models.SubmissionDB
	query := s.db.NewSelect().
		Model(&records).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC")

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	submissions := make([]*models.Submission, len(records))
	for i, record := range records {
		submissions[i] = record.ToSubmission()
	}
	return submissions, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
