package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks decoupled from the request
// lifecycle. A task failure is logged and never propagated back to the
// handler that published it.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Add(task func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.Error(fmt.Errorf("background task panic: %v", rec))
			}
		}()

		if err := task(); err != nil {
			b.log.Error(fmt.Errorf("background task: %w", err))
		}
	}()
}

// Shutdown waits for in-flight tasks to drain or the context to expire.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
