package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/vdb/internal/logger"
)

// compensation undoes one completed step.
type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records compensations as steps complete and runs them in reverse on
// failure.
type saga struct {
	name  string
	steps []compensation
}

func newSaga(name string) *saga {
	return &saga{name: name}
}

// onRollback registers undo for the step that just succeeded.
func (s *saga) onRollback(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// rollback runs every registered compensation, newest first, and keeps going
// past failures. The returned error joins the compensation failures.
func (s *saga) rollback(ctx context.Context) error {
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		logger.Debug("%s: compensating %s", s.name, step.name)
		if err := step.undo(ctx); err != nil {
			logger.Warn("%s: compensation %s failed: %v", s.name, step.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	s.steps = nil
	return errors.Join(errs...)
}
