package collector

import (
	"context"

	"taskview/internal/store"
)

// Sink is where collected tasks are written.
type Sink interface {
	CreateTask(ctx context.Context, title string) (store.Task, error)
}

type Collector interface {
	// source is collector specific, e.g. a file path. Returns the number of
	// tasks created.
	Collect(ctx context.Context, st Sink, source string) (int, error)
}
