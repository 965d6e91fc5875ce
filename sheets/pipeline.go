package sheets

import (
	"context"
	"log"
	"time"

	"formgate/models"
)

// ConfigStore resolves the app and template a persisted record belongs to.
type ConfigStore interface {
	GetApp(ctx context.Context, appKey string) (*models.AppConfig, error)
	GetTemplate(ctx context.Context, name string) (*models.FormTemplate, error)
}

// Pipeline turns submission-created events into spreadsheet rows. It is
// wired to the document store's change feed in main; each event is handled
// independently, and failures only affect the projection — the record
// itself is already durable.
type Pipeline struct {
	store   ConfigStore
	engine  *Engine
	timeout time.Duration
}

func NewPipeline(store ConfigStore, engine *Engine) *Pipeline {
	return &Pipeline{
		store:   store,
		engine:  engine,
		timeout: 2 * time.Minute,
	}
}

// WatchFunc streams created submissions to a handler until the stream
// fails or ctx is cancelled. *db.FirestoreDB's WatchSubmissions satisfies it.
type WatchFunc func(ctx context.Context, handle func(id string, submission *models.Submission)) error

// Run drives the change feed until ctx is cancelled, restarting the watch
// after backoff when the stream breaks. A single stream error must not
// stop the projection for the rest of the process lifetime.
func (p *Pipeline) Run(ctx context.Context, watch WatchFunc, backoff time.Duration) {
	for {
		err := watch(ctx, p.HandleCreated)
		if ctx.Err() != nil {
			return
		}
		log.Printf("❌ Submission watcher stopped, restarting in %v: %v", backoff, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// HandleCreated projects one newly created submission record into its
// app's spreadsheet. Errors are logged, never propagated: the change feed
// must keep draining regardless of individual sync failures.
func (p *Pipeline) HandleCreated(id string, submission *models.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	app, err := p.store.GetApp(ctx, submission.AppKey)
	if err != nil {
		log.Printf("❌ Sheet sync %s: failed to load app %s: %v", id, submission.AppKey, err)
		return
	}
	if app == nil {
		log.Printf("⚠️  Sheet sync %s: app %s no longer exists", id, submission.AppKey)
		return
	}

	template, err := p.store.GetTemplate(ctx, submission.Template.Name)
	if err != nil {
		log.Printf("❌ Sheet sync %s: failed to load template %s: %v", id, submission.Template.Name, err)
		return
	}
	if template == nil {
		log.Printf("⚠️  Sheet sync %s: template %s no longer exists", id, submission.Template.Name)
		return
	}

	header := HeaderRow(template)
	data := DataRow(template, app, submission.CreatedDateTime, submission.Template.Data)

	if err := p.engine.SyncRow(ctx, app, template, header, data); err != nil {
		log.Printf("❌ Sheet sync %s: %v", id, err)
		return
	}

	log.Printf("📊 Sheet sync %s: row added to %s/%s", id, app.AppKey, template.Name)
}
