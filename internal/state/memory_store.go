package state

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/google/uuid"
)

type templateKey struct {
	integrationID uuid.UUID
	databaseID    string
	owner         string
}

// InMemoryStore keeps everything in process memory. Stored values are copied
// on the way in and out.
type InMemoryStore struct {
	mu          sync.RWMutex
	secrets     map[uuid.UUID]string
	templates   map[templateKey]*models.FormTemplate
	submissions []*models.Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		secrets:   make(map[uuid.UUID]string),
		templates: make(map[templateKey]*models.FormTemplate),
	}
}

func (s *InMemoryStore) SaveSecret(ctx context.Context, integrationID uuid.UUID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secrets[integrationID] = secret
	return nil
}

func (s *InMemoryStore) GetSecret(ctx context.Context, integrationID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.secrets[integrationID], nil
}

func (s *InMemoryStore) SaveFormTemplate(ctx context.Context, template *models.FormTemplate) error {
	stored, err := copyFormTemplate(template)
	if err != nil {
		return err
	}
	stored.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[templateKey{template.IntegrationID, template.DatabaseID, template.Owner}] = stored
	return nil
}

func (s *InMemoryStore) GetFormTemplate(ctx context.Context, integrationID uuid.UUID, databaseID, owner string) (*models.FormTemplate, error) {
	s.mu.RLock()
	stored, ok := s.templates[templateKey{integrationID, databaseID, owner}]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return copyFormTemplate(stored)
}

func (s *InMemoryStore) SaveSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now()
	}

	stored := *submission
	stored.Properties = maps.Clone(submission.Properties)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions = append(s.submissions, &stored)
	return nil
}

// GetSubmissions returns the integration's submissions, newest first.
func (s *InMemoryStore) GetSubmissions(ctx context.Context, integrationID uuid.UUID, offset, limit int) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Submission, 0)
	for i := len(s.submissions) - 1; i >= 0; i-- {
		submission := s.submissions[i]
		if submission.IntegrationID != integrationID {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if limit > 0 && len(result) == limit {
			break
		}
		copied := *submission
		copied.Properties = maps.Clone(submission.Properties)
		result = append(result, &copied)
	}
	return result, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func copyFormTemplate(template *models.FormTemplate) (*models.FormTemplate, error) {
	inputs, err := template.Inputs.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to copy form inputs: %w", err)
	}

	copied := *template
	copied.Inputs = inputs
	return &copied, nil
}
