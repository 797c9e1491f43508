// Package app owns the job handlers: the domain logic invoked by the
// dispatcher for each job type.
package app

import (
	"log/slog"

	"github.com/usman-manii/wallpaintingservices-sub000/content"
	"github.com/usman-manii/wallpaintingservices-sub000/distribute"
	"github.com/usman-manii/wallpaintingservices-sub000/jobqueue"
	"github.com/usman-manii/wallpaintingservices-sub000/llm"
)

// Job types accepted by the engine.
const (
	TypeGenerateContent   = "GENERATE_CONTENT"
	TypeDistributeContent = "DISTRIBUTE_CONTENT"
)

type App struct {
	jobs        jobqueue.Store
	posts       content.Store
	generator   llm.Generator
	distributor *distribute.Distributor
	logger      *slog.Logger
}

func New(jobs jobqueue.Store, posts content.Store, generator llm.Generator, distributor *distribute.Distributor, logger *slog.Logger) *App {
	return &App{
		jobs:        jobs,
		posts:       posts,
		generator:   generator,
		distributor: distributor,
		logger:      logger,
	}
}

// RegisterHandlers binds every job type to its handler. Called once at
// startup, before the worker begins claiming.
func (a *App) RegisterHandlers(d *jobqueue.Dispatcher) {
	d.Register(TypeGenerateContent, a.handleGenerateContent)
	d.Register(TypeDistributeContent, a.handleDistributeContent)
}
