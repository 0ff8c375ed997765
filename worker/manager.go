package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Worker is a long-running unit of the service, started once and expected
// to run until its context is cancelled.
type Worker interface {
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

func (m *Manager) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(m.workers))
	for _, w := range m.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil {
				if ctx.Err() == nil {
					slog.Error("worker stopped early", "err", err)
				}
				errs <- err
			}
		}(w)
	}
	// Block for the lifetime of the service, then collect exit errors.
	<-ctx.Done()
	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}
