package state

import (
	"context"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/google/uuid"
)

// Store persists integration secrets, saved form templates and submissions.
// Lookups of absent records return zero values and a nil error.
type Store interface {
	SaveSecret(ctx context.Context, integrationID uuid.UUID, secret string) error
	GetSecret(ctx context.Context, integrationID uuid.UUID) (string, error)

	SaveFormTemplate(ctx context.Context, template *models.FormTemplate) error
	GetFormTemplate(ctx context.Context, integrationID uuid.UUID, databaseID, owner string) (*models.FormTemplate, error)

	SaveSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmissions(ctx context.Context, integrationID uuid.UUID, offset, limit int) ([]*models.Submission, error)

	Close() error
}
