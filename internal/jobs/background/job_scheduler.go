package background

import (
	"context"
	"log"
	"sync"
	"time"

	"printforge/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic billing jobs. Request handling stays
// synchronous; the only scheduled work is archival statement export.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	statementSvc services.StatementService
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(statementSvc services.StatementService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		statementSvc: statementSvc,
		jobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	js.mu.Lock()
	defer js.mu.Unlock()

	statementJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.exportStatement, context.Background()),
		gocron.WithName("statement-export"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create statement export job: %v", err)
	} else {
		js.jobs["statement-export"] = statementJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

func (js *JobScheduler) exportStatement(ctx context.Context) {
	object, err := js.statementSvc.Export(ctx)
	if err != nil {
		log.Printf("Scheduled statement export failed: %v", err)
		return
	}
	log.Printf("Scheduled statement export completed: %s", object)
}
