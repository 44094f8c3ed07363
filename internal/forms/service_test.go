package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/auth"
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/Nexo-Labs/SyncTionNotion/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu        sync.Mutex
	databases []models.Database
	schemas   map[string][]models.PropertyDescriptor
	search    func(ctx context.Context, databaseID, text string) ([]models.Option, error)
	created   []models.PageBody
	calls     int
}

func (r *fakeRepository) Databases(ctx context.Context) ([]models.Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.databases, nil
}

func (r *fakeRepository) DatabaseSchema(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.schemas[databaseID], nil
}

func (r *fakeRepository) SearchPages(ctx context.Context, databaseID, text string) ([]models.Option, error) {
	r.mu.Lock()
	r.calls++
	search := r.search
	r.mu.Unlock()

	if search == nil {
		return nil, nil
	}
	return search(ctx, databaseID, text)
}

func (r *fakeRepository) CreatePage(ctx context.Context, body models.PageBody) (*models.PageResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.created = append(r.created, body)
	return &models.PageResponse{Object: "page", ID: "page-1", URL: "https://www.notion.so/page-1"}, nil
}

func (r *fakeRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newFakeRepository() *fakeRepository {
	linked := "db-projects"
	return &fakeRepository{
		databases: []models.Database{
			{ID: "db-tasks", Name: "Tasks"},
			{ID: "db-notes", Name: "Notes"},
			{ID: "db-untitled", Name: ""},
		},
		schemas: map[string][]models.PropertyDescriptor{
			"db-tasks": {
				{ExternalID: "st", Name: "Status", Kind: models.ColumnKindSelect, Options: []models.Option{
					{OptionID: "o1", Label: "Todo"},
					{OptionID: "o2", Label: "Done"},
				}},
				{ExternalID: "title", Name: "Name", Kind: models.ColumnKindTitle},
				{ExternalID: "rel", Name: "Project", Kind: models.ColumnKindRelation, LinkedDatabaseID: &linked},
			},
		},
	}
}

func loadedForm(t *testing.T, svc *Service) *models.Form {
	t.Helper()
	form := svc.ScratchTemplate()
	update, err := svc.Load(context.Background(), form)
	require.NoError(t, err)
	require.True(t, update(form))
	return form
}

func pickerOf(t *testing.T, form *models.Form) *models.OptionsTemplate {
	t.Helper()
	picker, err := databasePicker(form)
	require.NoError(t, err)
	return picker
}

// selectDatabase runs the picker change event for databaseID and applies it.
func selectDatabase(t *testing.T, svc *Service, form *models.Form, databaseID string) {
	t.Helper()
	old := pickerOf(t, form)
	changed := *old
	changed.Value.Options = append([]models.Option(nil), old.Value.Options...)
	require.True(t, changed.Value.Select(databaseID))
	require.True(t, form.Replace(&changed))

	update, err := svc.OnChange(context.Background(), form, old, &changed)
	require.NoError(t, err)
	require.True(t, update(form))
}

func relationOf(t *testing.T, form *models.Form) *models.OptionsTemplate {
	t.Helper()
	input, ok := form.Inputs.FirstTagged(models.TagRelation)
	require.True(t, ok)
	relation, ok := input.(*models.OptionsTemplate)
	require.True(t, ok)
	return relation
}

func typed(input *models.OptionsTemplate, search string) *models.OptionsTemplate {
	changed := *input
	changed.Search = search
	return &changed
}

func TestScratchTemplate(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	form := svc.ScratchTemplate()

	require.Len(t, form.Inputs, 1)
	picker := pickerOf(t, form)
	assert.Equal(t, PickerName, picker.Header.Name)
	assert.Equal(t, picker.Header.ID, form.EntrypointInputID)
	assert.Equal(t, DefaultIntegrationID, form.IntegrationID)
	require.Len(t, form.Steps, 2)
	assert.Equal(t, models.TagDatabasesField, form.Steps[0].ID)
	assert.True(t, form.Steps[1].IsLast)
}

func TestLoadPopulatesPicker(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	form := loadedForm(t, svc)

	picker := pickerOf(t, form)
	assert.Equal(t, []models.Option{
		{OptionID: "db-tasks", Label: "Tasks"},
		{OptionID: "db-notes", Label: "Notes"},
	}, picker.Value.Options)
}

func TestLoadWithoutPicker(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	_, err := svc.Load(context.Background(), &models.Form{})
	assert.ErrorIs(t, err, models.ErrInputNotFound)
}

func TestSelectingDatabaseLoadsColumns(t *testing.T) {
	store := state.NewInMemoryStore()
	svc := NewService(newFakeRepository(), store, Config{})
	form := loadedForm(t, svc)

	selectDatabase(t, svc, form, "db-tasks")

	require.Len(t, form.Inputs, 4)
	assert.True(t, form.Inputs[0].TemplateHeader().Tags.Has(models.TagDatabasesField))
	names := []string{}
	for _, input := range form.Inputs[1:] {
		names = append(names, input.TemplateHeader().Name)
	}
	assert.Equal(t, []string{"Name", "Project", "Status"}, names)
	assert.Equal(t, form.Inputs[1].TemplateHeader().ID, form.EntrypointInputID)

	saved, err := store.GetFormTemplate(context.Background(), DefaultIntegrationID, "db-tasks", "")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Inputs, 3)
}

func TestSelectingUnknownDatabaseSkips(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	form := loadedForm(t, svc)

	old := pickerOf(t, form)
	changed := *old
	changed.Value = models.Options{
		SingleSelection: true,
		Options:         []models.Option{{OptionID: "db-notes", Label: "Notes", Selected: true}},
	}

	_, err := svc.OnChange(context.Background(), form, old, &changed)
	assert.ErrorIs(t, err, models.ErrSkip)
}

func TestSavedTemplateIsReused(t *testing.T) {
	store := state.NewInMemoryStore()
	repo := newFakeRepository()

	first := NewService(repo, store, Config{})
	form := loadedForm(t, first)
	selectDatabase(t, first, form, "db-tasks")
	firstIDs := []string{}
	for _, input := range form.Inputs[1:] {
		firstIDs = append(firstIDs, input.TemplateHeader().ID.String())
	}

	second := NewService(repo, store, Config{})
	form = loadedForm(t, second)
	selectDatabase(t, second, form, "db-tasks")
	secondIDs := []string{}
	for _, input := range form.Inputs[1:] {
		secondIDs = append(secondIDs, input.TemplateHeader().ID.String())
	}

	assert.Equal(t, firstIDs, secondIDs)
}

func TestPickerSearchFiltersDatabases(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	form := loadedForm(t, svc)

	old := pickerOf(t, form)
	changed := typed(old, "Note")
	require.True(t, form.Replace(changed))

	update, err := svc.OnChange(context.Background(), form, old, changed)
	require.NoError(t, err)
	require.True(t, update(form))

	picker := pickerOf(t, form)
	require.Len(t, picker.Value.Options, 2)
	assert.Equal(t, "db-notes", picker.Value.Options[0].OptionID)
}

func TestUnchangedPickerSkips(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})
	form := loadedForm(t, svc)
	picker := pickerOf(t, form)

	_, err := svc.OnChange(context.Background(), form, picker, picker)
	assert.ErrorIs(t, err, models.ErrSkip)
}

func TestRelationSearch(t *testing.T) {
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		assert.Equal(t, "db-projects", databaseID)
		return []models.Option{
			{OptionID: "p1", Label: "📄 road"},
			{OptionID: "p2", Label: "📄 Roadmap"},
		}, nil
	}
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	old.Value.Options = []models.Option{{OptionID: "p0", Label: "📄 kept", Selected: true}}
	changed := typed(old, "road")
	require.True(t, form.Replace(changed))

	update, err := svc.OnChange(context.Background(), form, old, changed)
	require.NoError(t, err)
	assert.Equal(t, state.SearchPopulated, svc.SearchState(form.ID, changed.Header.ID))

	require.True(t, update(form))
	assert.Equal(t, state.SearchIdle, svc.SearchState(form.ID, changed.Header.ID))

	relation := relationOf(t, form)
	assert.Equal(t, []models.Option{
		{OptionID: "p0", Label: "📄 kept", Selected: true},
		{OptionID: "p1", Label: "📄 road"},
		{OptionID: "p2", Label: "📄 Roadmap"},
	}, relation.Value.Options)
}

func TestRelationSearchEmptyQuerySkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := typed(relationOf(t, form), "ro")
	changed := typed(old, "")
	calls := repo.callCount()

	_, err := svc.OnChange(context.Background(), form, old, changed)
	assert.ErrorIs(t, err, models.ErrSkip)
	assert.Equal(t, calls, repo.callCount())
	assert.Equal(t, state.SearchIdle, svc.SearchState(form.ID, changed.Header.ID))
}

func TestRelationSearchWithoutTargetSkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	invalid := "INVALID TARGET ID"
	old.Config.TargetID = &invalid
	changed := typed(old, "road")
	calls := repo.callCount()

	_, err := svc.OnChange(context.Background(), form, old, changed)
	assert.ErrorIs(t, err, models.ErrSkip)
	assert.Equal(t, calls, repo.callCount())
}

func TestRelationSearchStaleResultsAreDropped(t *testing.T) {
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		return []models.Option{{OptionID: "p1", Label: "📄 " + text}}, nil
	}
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	changed := typed(old, "road")
	require.True(t, form.Replace(changed))

	update, err := svc.OnChange(context.Background(), form, old, changed)
	require.NoError(t, err)

	// The user kept typing before the results arrived.
	require.True(t, form.Replace(typed(changed, "roadmap")))

	assert.False(t, update(form))
	assert.Empty(t, relationOf(t, form).Value.Options)
}

func TestRelationSearchSupersededByNewerQuery(t *testing.T) {
	entered := make(chan struct{})
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		if text == "ro" {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []models.Option{{OptionID: "p1", Label: "📄 road"}}, nil
	}
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	first := typed(old, "ro")
	second := typed(old, "road")

	errs := make(chan error, 1)
	go func() {
		_, err := svc.OnChange(context.Background(), form, old, first)
		errs <- err
	}()

	<-entered
	update, err := svc.OnChange(context.Background(), form, first, second)
	require.NoError(t, err)
	require.NotNil(t, update)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, models.ErrSkip)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search did not return")
	}
}

func TestRelationSearchOlderQueryDoesNotCancelNewerOne(t *testing.T) {
	entered := make(chan struct{})
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		if text == "ro" {
			select {
			case <-entered:
			default:
				close(entered)
				<-ctx.Done()
				return nil, ctx.Err()
			}
		}
		return []models.Option{{OptionID: "p1", Label: "📄 " + text}}, nil
	}
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	first := typed(old, "ro")
	erased := typed(old, "roa")
	retyped := typed(old, "ro")

	errs := make(chan error, 1)
	go func() {
		_, err := svc.OnChange(context.Background(), form, old, first)
		errs <- err
	}()
	<-entered

	// Same query text as the search still in flight.
	require.True(t, form.Replace(retyped))
	update, err := svc.OnChange(context.Background(), form, erased, retyped)
	require.NoError(t, err)
	require.NotNil(t, update)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, models.ErrSkip)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search did not return")
	}

	assert.Equal(t, state.SearchPopulated, svc.SearchState(form.ID, retyped.Header.ID))
	require.True(t, update(form))
	assert.Equal(t, "📄 ro", relationOf(t, form).Value.Options[0].Label)
	assert.Equal(t, state.SearchIdle, svc.SearchState(form.ID, retyped.Header.ID))
}

func TestRelationSearchesOfDifferentFormsAreIndependent(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		if text == "alice" {
			close(entered)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []models.Option{{OptionID: "p-" + text, Label: "📄 " + text}}, nil
	}
	svc := NewService(repo, state.NewInMemoryStore(), Config{})

	formA := loadedForm(t, svc)
	selectDatabase(t, svc, formA, "db-tasks")
	formB := loadedForm(t, svc)
	selectDatabase(t, svc, formB, "db-tasks")

	oldA := relationOf(t, formA)
	oldB := relationOf(t, formB)
	require.Equal(t, oldA.Header.ID, oldB.Header.ID)
	changedA := typed(oldA, "alice")
	changedB := typed(oldB, "bob")
	require.True(t, formA.Replace(changedA))
	require.True(t, formB.Replace(changedB))

	type result struct {
		update Update
		err    error
	}
	results := make(chan result, 1)
	go func() {
		update, err := svc.OnChange(context.Background(), formA, oldA, changedA)
		results <- result{update, err}
	}()
	<-entered

	updateB, err := svc.OnChange(context.Background(), formB, oldB, changedB)
	require.NoError(t, err)
	require.True(t, updateB(formB))
	close(release)

	select {
	case res := <-results:
		require.NoError(t, res.err)
		require.True(t, res.update(formA))
	case <-time.After(5 * time.Second):
		t.Fatal("search of the first form did not return")
	}

	assert.Equal(t, "p-alice", relationOf(t, formA).Value.Options[0].OptionID)
	assert.Equal(t, "p-bob", relationOf(t, formB).Value.Options[0].OptionID)
}

func TestRelationSearchFailure(t *testing.T) {
	failure := errors.New("boom")
	repo := newFakeRepository()
	repo.search = func(ctx context.Context, databaseID, text string) ([]models.Option, error) {
		return nil, failure
	}
	svc := NewService(repo, nil, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	changed := typed(old, "road")

	_, err := svc.OnChange(context.Background(), form, old, changed)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, state.SearchIdle, svc.SearchState(form.ID, changed.Header.ID))
}

func TestRelationSearchDelayHonoursCancellation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, Config{SearchDelay: time.Hour})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	old := relationOf(t, form)
	changed := typed(old, "road")
	calls := repo.callCount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.OnChange(ctx, form, old, changed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, calls, repo.callCount())
}

func TestSendWithoutDatabaseDoesNotCallRepository(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, Config{})
	form := svc.ScratchTemplate()

	_, err := svc.Send(context.Background(), form)
	assert.ErrorIs(t, err, models.ErrMissingTarget)
	assert.ErrorIs(t, err, models.ErrTransformation)
	assert.Zero(t, repo.callCount())
}

func TestSendCreatesPageAndRecordsSubmission(t *testing.T) {
	repo := newFakeRepository()
	store := state.NewInMemoryStore()
	svc := NewService(repo, store, Config{})
	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")

	title, ok := form.Inputs.FirstTagged(models.TagTitle)
	require.True(t, ok)
	title.(*models.TextTemplate).Value = "Write docs"

	ctx := context.WithValue(context.Background(), auth.UserContextKey, &auth.User{ID: "user-1"})
	page, err := svc.Send(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)

	require.Len(t, repo.created, 1)
	body := repo.created[0]
	assert.Equal(t, "db-tasks", body.Parent.DatabaseID)
	assert.Equal(t, "Write docs", models.PlainText(body.Properties["Name"].Title))

	submissions, err := svc.Submissions(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, "page-1", submissions[0].PageID)
	assert.Equal(t, "db-tasks", submissions[0].DatabaseID)
	assert.Equal(t, "user-1", submissions[0].SubmittedBy)

	saved, err := store.GetFormTemplate(context.Background(), DefaultIntegrationID, "db-tasks", "user-1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	savedTitle, ok := saved.Inputs.FirstTagged(models.TagTitle)
	require.True(t, ok)
	assert.Equal(t, "Write docs", savedTitle.(*models.TextTemplate).Value)
}

func TestSentDefaultsAreKeptPerUser(t *testing.T) {
	repo := newFakeRepository()
	store := state.NewInMemoryStore()
	svc := NewService(repo, store, Config{})
	alice := context.WithValue(context.Background(), auth.UserContextKey, &auth.User{ID: "alice"})
	bob := context.WithValue(context.Background(), auth.UserContextKey, &auth.User{ID: "bob"})

	form := loadedForm(t, svc)
	selectDatabase(t, svc, form, "db-tasks")
	title, ok := form.Inputs.FirstTagged(models.TagTitle)
	require.True(t, ok)
	title.(*models.TextTemplate).Value = "Alice's secret task"
	_, err := svc.Send(alice, form)
	require.NoError(t, err)

	columns, ok := svc.schemas.Get(context.Background(), "db-tasks")
	require.True(t, ok)
	forBob := svc.columnTemplates(bob, "db-tasks", columns)
	bobTitle, ok := forBob.FirstTagged(models.TagTitle)
	require.True(t, ok)
	assert.Empty(t, bobTitle.(*models.TextTemplate).Value)

	forAlice := svc.columnTemplates(alice, "db-tasks", columns)
	aliceTitle, ok := forAlice.FirstTagged(models.TagTitle)
	require.True(t, ok)
	assert.Equal(t, "Alice's secret task", aliceTitle.(*models.TextTemplate).Value)

	anonymous, err := store.GetFormTemplate(context.Background(), DefaultIntegrationID, "db-tasks", "")
	require.NoError(t, err)
	require.NotNil(t, anonymous)
	anonymousTitle, ok := anonymous.Inputs.FirstTagged(models.TagTitle)
	require.True(t, ok)
	assert.Empty(t, anonymousTitle.(*models.TextTemplate).Value)
}

func TestTemplates(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, Config{})

	inputs, err := svc.Templates(context.Background(), "db-tasks")
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	assert.Equal(t, "Name", inputs[0].TemplateHeader().Name)

	_, err = svc.Templates(context.Background(), "db-missing")
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestSearchPagesEmptyQuerySkips(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, Config{})

	_, err := svc.SearchPages(context.Background(), "db-projects", "")
	assert.ErrorIs(t, err, models.ErrSkip)
	assert.Zero(t, repo.callCount())
}
