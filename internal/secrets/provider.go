package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/google/uuid"
)

// Provider supplies the Notion API token. Implementations return
// models.ErrAuthenticationMissing when no token is stored.
type Provider interface {
	Secret(ctx context.Context) (string, error)
}

// Static serves a fixed token, typically read from configuration.
type Static string

func (s Static) Secret(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", models.ErrAuthenticationMissing
	}
	return string(s), nil
}

// SecretStore is the subset of the state store used for tokens.
type SecretStore interface {
	GetSecret(ctx context.Context, integrationID uuid.UUID) (string, error)
}

// StoreProvider reads the token saved for an integration.
type StoreProvider struct {
	store         SecretStore
	integrationID uuid.UUID
}

func NewStoreProvider(store SecretStore, integrationID uuid.UUID) *StoreProvider {
	return &StoreProvider{
		store:         store,
		integrationID: integrationID,
	}
}

func (p *StoreProvider) Secret(ctx context.Context) (string, error) {
	secret, err := p.store.GetSecret(ctx, p.integrationID)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == "" {
		return "", models.ErrAuthenticationMissing
	}
	return secret, nil
}

// Chain returns the first token any provider has. Errors other than a
// missing token stop the search.
type Chain []Provider

func (c Chain) Secret(ctx context.Context) (string, error) {
	for _, provider := range c {
		secret, err := provider.Secret(ctx)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, models.ErrAuthenticationMissing) {
			return "", err
		}
	}
	return "", models.ErrAuthenticationMissing
}
