package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/auth"
	"github.com/Nexo-Labs/SyncTionNotion/internal/cache"
	"github.com/Nexo-Labs/SyncTionNotion/internal/marshal"
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/Nexo-Labs/SyncTionNotion/internal/ranking"
	"github.com/Nexo-Labs/SyncTionNotion/internal/schema"
	"github.com/Nexo-Labs/SyncTionNotion/internal/services"
	"github.com/Nexo-Labs/SyncTionNotion/internal/state"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	FormName   = "Notion"
	FormIcon   = "NotionLogo"
	PickerName = "Notion Databases"
)

// DefaultIntegrationID identifies the Notion integration.
var DefaultIntegrationID = uuid.MustParse("4f6a9d57-b8d0-4635-852a-9a49de2e7ad5")

var ErrDatabaseNotFound = errors.New("database not found")

// Update applies the result of an event to a form. It reports whether the
// form changed; results that no longer match the form are dropped.
type Update func(form *models.Form) bool

type Config struct {
	IntegrationID uuid.UUID
	// SearchDelay is waited before a relation search is sent.
	SearchDelay time.Duration
}

type Service struct {
	repo          services.Repository
	store         state.Store
	schemas       cache.SchemaCache
	searches      *state.SearchManager
	integrationID uuid.UUID
	searchDelay   time.Duration
}

// NewService builds the form service. store may be nil, in which case form
// templates and submissions are not recorded.
func NewService(repo services.Repository, store state.Store, cfg Config) *Service {
	integrationID := cfg.IntegrationID
	if integrationID == uuid.Nil {
		integrationID = DefaultIntegrationID
	}
	return &Service{
		repo:          repo,
		store:         store,
		schemas:       cache.NewInMemorySchemaCache(),
		searches:      state.NewSearchManager(),
		integrationID: integrationID,
		searchDelay:   cfg.SearchDelay,
	}
}

func (s *Service) IntegrationID() uuid.UUID {
	return s.integrationID
}

func (s *Service) SearchState(formID, fieldID uuid.UUID) state.SearchState {
	return s.searches.State(state.SearchKey{FormID: formID, FieldID: fieldID})
}

// ScratchTemplate returns an empty form holding only the database picker.
func (s *Service) ScratchTemplate() *models.Form {
	picker := schema.DatabasePicker(PickerName)
	return &models.Form{
		ID:                uuid.New(),
		Name:              FormName,
		Icon:              FormIcon,
		IntegrationID:     s.integrationID,
		Inputs:            models.Inputs{picker},
		EntrypointInputID: picker.Header.ID,
		Steps: []models.Step{
			{ID: models.TagDatabasesField, Name: "Select database"},
			{ID: models.TagDatabaseColumns, Name: "Columns", IsLast: true},
		},
	}
}

// Load refreshes the database list of the form's picker.
func (s *Service) Load(ctx context.Context, form *models.Form) (Update, error) {
	picker, err := databasePicker(form)
	if err != nil {
		return nil, err
	}

	databases, err := s.databaseOptions(ctx)
	if err != nil {
		return nil, err
	}
	s.schemas.Clear(ctx)

	loaded := *picker
	loaded.Load(databases, false)

	log.Debug().
		Int("databases", len(databases)).
		Msg("Database list loaded")

	return func(form *models.Form) bool {
		return form.Replace(&loaded)
	}, nil
}

// OnChange reacts to input replacing old in form. It returns models.ErrSkip
// when the change needs no reaction.
func (s *Service) OnChange(ctx context.Context, form *models.Form, old, input models.InputTemplate) (Update, error) {
	oldOptions, ok := old.(*models.OptionsTemplate)
	if !ok {
		return nil, models.ErrSkip
	}
	options, ok := input.(*models.OptionsTemplate)
	if !ok {
		return nil, models.ErrSkip
	}

	tags := options.Header.Tags
	searchChanged := oldOptions.Search != options.Search && options.Config.TypingSearch.Value

	switch {
	case tags.Has(models.TagDatabasesField):
		if searchChanged {
			return s.filterDatabases(ctx, options)
		}
		if !oldOptions.Value.Equal(options.Value) {
			return s.loadColumns(ctx, options)
		}
		return nil, models.ErrSkip

	case tags.Has(models.TagRelation):
		if searchChanged {
			return s.searchRelation(ctx, form.ID, options)
		}
		return nil, models.ErrSkip

	default:
		return nil, models.ErrSkip
	}
}

func (s *Service) filterDatabases(ctx context.Context, input *models.OptionsTemplate) (Update, error) {
	databases, err := s.databaseOptions(ctx)
	if err != nil {
		return nil, err
	}
	if input.Search != "" {
		databases = ranking.Rank(databases, input.Search)
	}

	filtered := *input
	filtered.Load(databases, true)
	query := input.Search

	return func(form *models.Form) bool {
		current, ok := optionsInput(form, input.Header.ID)
		if !ok || current.Search != query {
			return false
		}
		current.Value = filtered.Value
		return true
	}, nil
}

func (s *Service) loadColumns(ctx context.Context, picker *models.OptionsTemplate) (Update, error) {
	selected := picker.Value.Selected()
	if len(selected) == 0 {
		return nil, models.ErrSkip
	}
	databaseID := selected[0].OptionID

	log.Info().
		Str("databaseID", databaseID).
		Msg("Loading columns from Notion database")

	columns, err := s.databaseSchema(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if columns == nil {
		return nil, models.ErrSkip
	}

	templates := s.columnTemplates(ctx, databaseID, columns)

	loadedPicker := *picker
	inputs := make(models.Inputs, 0, len(templates)+1)
	inputs = append(inputs, &loadedPicker)
	inputs = append(inputs, templates...)

	return func(form *models.Form) bool {
		form.Inputs = inputs
		if len(templates) > 0 {
			form.EntrypointInputID = templates[0].TemplateHeader().ID
		}
		return true
	}, nil
}

// columnTemplates returns the caller's saved templates of the database when
// its schema has not changed since they were saved, and freshly imported ones
// otherwise.
func (s *Service) columnTemplates(ctx context.Context, databaseID string, columns []models.PropertyDescriptor) models.Inputs {
	fingerprint := cache.Fingerprint(columns)
	owner := submitter(ctx)

	if s.store != nil {
		saved, err := s.store.GetFormTemplate(ctx, s.integrationID, databaseID, owner)
		if err != nil {
			log.Warn().
				Err(err).
				Str("databaseID", databaseID).
				Msg("Failed to read saved form template")
		} else if saved != nil && saved.Fingerprint == fingerprint {
			return saved.Inputs
		}
	}

	templates := models.Inputs(schema.ImportSchema(columns))
	s.saveTemplate(ctx, databaseID, owner, fingerprint, templates)
	return templates
}

func (s *Service) saveTemplate(ctx context.Context, databaseID, owner, fingerprint string, templates models.Inputs) {
	if s.store == nil {
		return
	}
	err := s.store.SaveFormTemplate(ctx, &models.FormTemplate{
		IntegrationID: s.integrationID,
		DatabaseID:    databaseID,
		Owner:         owner,
		Fingerprint:   fingerprint,
		Inputs:        templates,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("databaseID", databaseID).
			Msg("Failed to save form template")
	}
}

func (s *Service) searchRelation(ctx context.Context, formID uuid.UUID, input *models.OptionsTemplate) (Update, error) {
	query := input.Search
	target := input.Config.TargetID
	key := state.SearchKey{FormID: formID, FieldID: input.Header.ID}
	if query == "" || target == nil || *target == "" || *target == schema.InvalidTargetID {
		s.searches.Cancel(key)
		log.Debug().
			Str("field", input.Header.Name).
			Msg("Skipping relation search without query or target")
		return nil, models.ErrSkip
	}

	fieldID := input.Header.ID
	searchCtx, generation := s.searches.Begin(ctx, key)

	results, err := s.runSearch(searchCtx, *target, query)
	if !s.searches.Finish(key, generation, err) {
		log.Debug().
			Str("field", input.Header.Name).
			Str("query", query).
			Msg("Discarding superseded relation search")
		return nil, models.ErrSkip
	}
	if err != nil {
		s.searches.Settle(key, generation)
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}

	log.Info().
		Str("field", input.Header.Name).
		Int("results", len(results)).
		Msg("Relation search completed")

	return func(form *models.Form) bool {
		defer s.searches.Settle(key, generation)

		current, ok := optionsInput(form, fieldID)
		if !ok || current.Search != query {
			return false
		}
		current.Load(results, true)
		return true
	}, nil
}

func (s *Service) runSearch(ctx context.Context, databaseID, query string) ([]models.Option, error) {
	if s.searchDelay > 0 {
		timer := time.NewTimer(s.searchDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return s.repo.SearchPages(ctx, databaseID, query)
}

// Send writes the form as a new page. The payload is built before anything
// is sent, so an incomplete form fails without contacting Notion.
func (s *Service) Send(ctx context.Context, form *models.Form) (*models.PageResponse, error) {
	body, err := marshal.BuildWritePayload(form.Inputs, models.TagDatabasesField)
	if err != nil {
		return nil, err
	}
	if _, err := marshal.EncodePageBody(body); err != nil {
		return nil, err
	}

	page, err := s.repo.CreatePage(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	log.Info().
		Str("databaseID", body.Parent.DatabaseID).
		Str("pageID", page.ID).
		Int("properties", len(body.Properties)).
		Msg("Page created")

	s.record(ctx, form, body, page)
	return page, nil
}

func (s *Service) record(ctx context.Context, form *models.Form, body models.PageBody, page *models.PageResponse) {
	if s.store == nil {
		return
	}

	err := s.store.SaveSubmission(ctx, &models.Submission{
		IntegrationID: s.integrationID,
		DatabaseID:    body.Parent.DatabaseID,
		PageID:        page.ID,
		PageURL:       page.URL,
		SubmittedBy:   submitter(ctx),
		Properties:    body.Properties,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("pageID", page.ID).
			Msg("Failed to record submission")
	}

	// The sent values become the sender's defaults for this database.
	columns, ok := s.schemas.Get(ctx, body.Parent.DatabaseID)
	if !ok {
		return
	}
	defaults := make(models.Inputs, 0, len(form.Inputs))
	for _, input := range form.Inputs {
		if !input.TemplateHeader().Tags.Has(models.TagDatabasesField) {
			defaults = append(defaults, input)
		}
	}
	s.saveTemplate(ctx, body.Parent.DatabaseID, submitter(ctx), cache.Fingerprint(columns), defaults)
}

// Templates imports the columns of a database without a form.
func (s *Service) Templates(ctx context.Context, databaseID string) (models.Inputs, error) {
	columns, err := s.databaseSchema(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if columns == nil {
		return nil, ErrDatabaseNotFound
	}
	return models.Inputs(schema.ImportSchema(columns)), nil
}

// SearchPages returns the records of a database matching text, best first.
func (s *Service) SearchPages(ctx context.Context, databaseID, text string) ([]models.Option, error) {
	if text == "" {
		return nil, models.ErrSkip
	}
	return s.repo.SearchPages(ctx, databaseID, text)
}

func (s *Service) Submissions(ctx context.Context, offset, limit int) ([]*models.Submission, error) {
	if s.store == nil {
		return []*models.Submission{}, nil
	}
	return s.store.GetSubmissions(ctx, s.integrationID, offset, limit)
}

func (s *Service) databaseOptions(ctx context.Context) ([]models.Option, error) {
	databases, err := s.repo.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	options := make([]models.Option, 0, len(databases))
	for _, database := range databases {
		if database.Name == "" {
			continue
		}
		options = append(options, models.Option{OptionID: database.ID, Label: database.Name})
	}
	return options, nil
}

func (s *Service) databaseSchema(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, error) {
	if columns, ok := s.schemas.Get(ctx, databaseID); ok {
		return columns, nil
	}

	columns, err := s.repo.DatabaseSchema(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load database schema: %w", err)
	}
	if columns != nil {
		if err := s.schemas.Set(ctx, databaseID, columns); err != nil {
			log.Warn().Err(err).Str("databaseID", databaseID).Msg("Failed to cache schema")
		}
	}
	return columns, nil
}

func databasePicker(form *models.Form) (*models.OptionsTemplate, error) {
	input, ok := form.Inputs.FirstTagged(models.TagDatabasesField)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrInputNotFound, models.TagDatabasesField)
	}
	picker, ok := input.(*models.OptionsTemplate)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an options input", models.ErrInputNotFound, models.TagDatabasesField)
	}
	return picker, nil
}

func optionsInput(form *models.Form, id uuid.UUID) (*models.OptionsTemplate, bool) {
	i := form.Inputs.Index(id)
	if i < 0 {
		return nil, false
	}
	options, ok := form.Inputs[i].(*models.OptionsTemplate)
	return options, ok
}

func submitter(ctx context.Context) string {
	if user, ok := auth.GetUserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}
