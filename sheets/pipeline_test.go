package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/models"
)

type fakeConfigStore struct {
	app      *models.AppConfig
	template *models.FormTemplate
}

func (f *fakeConfigStore) GetApp(ctx context.Context, appKey string) (*models.AppConfig, error) {
	if f.app != nil && f.app.AppKey == appKey {
		return f.app, nil
	}
	return nil, nil
}

func (f *fakeConfigStore) GetTemplate(ctx context.Context, name string) (*models.FormTemplate, error) {
	if f.template != nil && f.template.Name == name {
		return f.template, nil
	}
	return nil, nil
}

func pipelineSubmission() *models.Submission {
	return &models.Submission{
		AppKey:          "acme",
		CreatedDateTime: time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC),
		Template: models.SubmissionTemplate{
			Name: "contact",
			Data: map[string]string{"name": "Jax", "email": "jax@x.com"},
		},
	}
}

func TestPipelineProjectsSubmission(t *testing.T) {
	service := newFakeService()
	config := &fakeConfig{}
	app, template, _, _ := syncFixtures()
	template.Fields = []models.TemplateField{
		{ID: "name", Position: 0, SheetHeader: "Name"},
		{ID: "email", Position: 1, SheetHeader: "Email"},
	}
	store := &fakeConfigStore{app: app, template: template}
	pipeline := NewPipeline(store, NewEngine(service, config, 3, time.Millisecond))

	pipeline.HandleCreated("sub-1", pipelineSubmission())

	require.Equal(t, 1, service.addSheetCalls)
	assert.Equal(t, []string{"contact!A1", "contact!A2"}, service.writeCalls)
	assert.Contains(t, config.recorded, "acme/contact")
}

func TestPipelineSkipsDeletedApp(t *testing.T) {
	service := newFakeService()
	store := &fakeConfigStore{}
	pipeline := NewPipeline(store, NewEngine(service, &fakeConfig{}, 3, time.Millisecond))

	pipeline.HandleCreated("sub-1", pipelineSubmission())

	assert.Equal(t, 0, service.addSheetCalls)
	assert.Empty(t, service.writeCalls)
}

func TestPipelineRunRestartsBrokenWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchCalls := 0
	watch := func(ctx context.Context, handle func(string, *models.Submission)) error {
		watchCalls++
		if watchCalls == 3 {
			cancel()
		}
		return errors.New("stream broken")
	}

	pipeline := NewPipeline(&fakeConfigStore{}, NewEngine(newFakeService(), &fakeConfig{}, 1, 0))
	pipeline.Run(ctx, watch, time.Millisecond)

	assert.Equal(t, 3, watchCalls, "the watch restarts after each stream failure until cancelled")
}

func TestPipelineSkipsDeletedTemplate(t *testing.T) {
	service := newFakeService()
	app, _, _, _ := syncFixtures()
	store := &fakeConfigStore{app: app}
	pipeline := NewPipeline(store, NewEngine(service, &fakeConfig{}, 3, time.Millisecond))

	pipeline.HandleCreated("sub-1", pipelineSubmission())

	assert.Equal(t, 0, service.addSheetCalls)
	assert.Empty(t, service.writeCalls)
}
