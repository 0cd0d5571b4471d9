package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor drains whatever work is currently pending. Implementations
// are polled on an interval and must be safe to call with nothing queued.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor on a fixed interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop until the context is cancelled or Stop is
// called. A failed drain is logged and retried on the next tick.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("job worker polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("job worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("job worker stopped")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("job processing failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to finish.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
