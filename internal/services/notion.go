package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/marshal"
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/Nexo-Labs/SyncTionNotion/internal/ranking"
	"github.com/Nexo-Labs/SyncTionNotion/internal/records"
	"github.com/Nexo-Labs/SyncTionNotion/internal/schema"
	"github.com/Nexo-Labs/SyncTionNotion/internal/secrets"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultNotionBaseURL = "https://api.notion.com"
	DefaultNotionVersion = "2022-02-22"
)

// Repository is what the form service needs from Notion.
type Repository interface {
	Databases(ctx context.Context) ([]models.Database, error)
	DatabaseSchema(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, error)
	SearchPages(ctx context.Context, databaseID, text string) ([]models.Option, error)
	CreatePage(ctx context.Context, body models.PageBody) (*models.PageResponse, error)
}

// APIError is a non-success response from Notion.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("notion API error: status %d, %s: %s", e.StatusCode, e.Code, e.Message)
}

type NotionClient struct {
	secrets       secrets.Provider
	httpClient    *http.Client
	baseURL       string
	version       string
	integrationID uuid.UUID
	maxPages      int
}

type NotionClientConfig struct {
	BaseURL       string
	Version       string
	IntegrationID uuid.UUID
	// MaxPages bounds how many result pages are read when listing databases.
	MaxPages   int
	HTTPClient *http.Client
}

func NewNotionClient(provider secrets.Provider, cfg NotionClientConfig) *NotionClient {
	client := &NotionClient{
		secrets:       provider,
		httpClient:    cfg.HTTPClient,
		baseURL:       cfg.BaseURL,
		version:       cfg.Version,
		integrationID: cfg.IntegrationID,
		maxPages:      cfg.MaxPages,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if client.baseURL == "" {
		client.baseURL = DefaultNotionBaseURL
	}
	if client.version == "" {
		client.version = DefaultNotionVersion
	}
	if client.maxPages <= 0 {
		client.maxPages = 10
	}
	return client
}

// Databases lists the databases shared with the integration. Databases
// without a title are skipped.
func (c *NotionClient) Databases(ctx context.Context) ([]models.Database, error) {
	dtos, err := c.searchDatabases(ctx)
	if err != nil {
		return nil, err
	}

	databases := make([]models.Database, 0, len(dtos))
	for _, dto := range dtos {
		name := dto.PlainTitle()
		if name == "" {
			continue
		}
		databases = append(databases, models.Database{ID: dto.ID, Name: name})
	}
	return databases, nil
}

// DatabaseSchema returns the supported columns of a database. It returns nil
// when the database is not visible to the integration.
func (c *NotionClient) DatabaseSchema(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, error) {
	dtos, err := c.searchDatabases(ctx)
	if err != nil {
		return nil, err
	}

	for _, dto := range dtos {
		if dto.ID == databaseID {
			return schema.Descriptors(dto), nil
		}
	}

	log.Warn().
		Str("databaseID", databaseID).
		Msg("Database not found in search results")
	return nil, nil
}

func (c *NotionClient) searchDatabases(ctx context.Context) ([]models.DatabaseDTO, error) {
	filter := marshal.BuildSearchFilter(nil)

	var databases []models.DatabaseDTO
	cursor := ""
	for page := 0; page < c.maxPages; page++ {
		var result models.ResultSet[models.DatabaseDTO]
		if err := c.post(ctx, "/v1/search", filter.WithStartCursor(cursor), &result); err != nil {
			return nil, err
		}
		databases = append(databases, result.Results...)

		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			return databases, nil
		}
		cursor = *result.NextCursor
	}

	log.Warn().
		Int("maxPages", c.maxPages).
		Int("databases", len(databases)).
		Msg("Database list truncated")
	return databases, nil
}

// SearchPages queries a database for pages whose title contains text and
// returns them ranked by similarity to text.
func (c *NotionClient) SearchPages(ctx context.Context, databaseID, text string) ([]models.Option, error) {
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"

	var result models.ResultSet[models.PageDTO]
	if err := c.post(ctx, path, marshal.BuildSearchFilter(&text), &result); err != nil {
		return nil, err
	}

	return ranking.Rank(records.SummarizeAll(result.Results), text), nil
}

// CreatePage writes a new page into the payload's parent database.
func (c *NotionClient) CreatePage(ctx context.Context, body models.PageBody) (*models.PageResponse, error) {
	var page models.PageResponse
	if err := c.post(ctx, "/v1/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *NotionClient) post(ctx context.Context, path string, payload any, out any) error {
	secret, err := c.secrets.Secret(ctx)
	if err != nil {
		if errors.Is(err, models.ErrAuthenticationMissing) {
			return &models.AuthError{IntegrationID: c.integrationID, Err: err}
		}
		return err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", models.ErrTransformation, err)
	}
	if len(jsonData) == 0 {
		return fmt.Errorf("%w: empty request body", models.ErrTransformation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.version)

	return c.transformAuthError(func() error {
		resp, err := c.authorizedClient(ctx, secret).Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return readAPIError(resp)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, models.ErrDecode) {
				return err
			}
			return fmt.Errorf("%w: failed to decode response: %v", models.ErrDecode, err)
		}
		return nil
	})
}

func (c *NotionClient) authorizedClient(ctx context.Context, secret string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: secret,
		TokenType:   "Bearer",
	}))
	client.Timeout = c.httpClient.Timeout
	return client
}

// transformAuthError rewrites Notion's unauthorized responses into the
// integration's authentication error.
func (c *NotionClient) transformAuthError(call func() error) error {
	err := call()
	var apiErr *APIError
	if errors.As(err, &apiErr) && isAuthFailure(apiErr) {
		return &models.AuthError{
			IntegrationID: c.integrationID,
			Err:           fmt.Errorf("%w: %v", models.ErrUnauthorized, apiErr),
		}
	}
	return err
}

func isAuthFailure(err *APIError) bool {
	switch {
	case err.StatusCode == http.StatusUnauthorized, err.StatusCode == http.StatusForbidden:
		return true
	case err.Code == "unauthorized", err.Code == "restricted_resource":
		return true
	default:
		return false
	}
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = string(body)
	}
	return apiErr
}
