package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// activeImport tracks one background import job while it runs.
type activeImport struct {
	ID       string
	FileName string
	Done     chan struct{}

	mu        sync.Mutex
	progress  ImportProgress
	result    *ImportResult
	listeners []chan ImportProgress
}

func (job *activeImport) setProgress(p ImportProgress) {
	job.mu.Lock()
	defer job.mu.Unlock()

	job.progress = p
	for _, ch := range job.listeners {
		select {
		case ch <- p:
		default:
			// Slow listener; it will catch up on the next update.
		}
	}
}

func (job *activeImport) snapshot() ImportProgress {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress
}

// finish records the result and hands every listener the final progress
// before closing its channel. A full buffer gives up its oldest update so
// the final one always fits.
func (job *activeImport) finish(final ImportProgress, result *ImportResult) {
	job.mu.Lock()
	job.progress = final
	job.result = result
	for _, ch := range job.listeners {
		select {
		case ch <- final:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- final
		}
		close(ch)
	}
	job.listeners = nil
	job.mu.Unlock()
	close(job.Done)
}

// StartImport queues a file for background import and returns its id.
//
// The call waits for an import slot using ctx and fails with
// ErrTooManyImports when none frees up in time. Once started, the job runs
// on its own context bounded by Options.Timeout; it cannot be cancelled.
func (s *Service) StartImport(ctx context.Context, fileName string, data []byte) (string, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return "", err
	}

	importID := uuid.New().String()
	job := &activeImport{
		ID:       importID,
		FileName: fileName,
		Done:     make(chan struct{}),
		progress: ImportProgress{
			ImportID: importID,
			Phase:    PhaseQueued,
			FileName: fileName,
		},
	}

	s.mu.Lock()
	s.imports[importID] = job
	s.mu.Unlock()

	logger := s.loggerFor(ctx).With("import_id", importID, "file", fileName)
	logger.Info("import queued", "bytes", len(data))

	go func() {
		defer release()

		jobCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()

		var result *ImportResult
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in import", "panic", r)
				result = &ImportResult{
					ImportID:  importID,
					FileName:  fileName,
					StartedAt: time.Now(),
					Error:     fmt.Sprintf("internal error: %v", r),
				}
			}
			s.complete(job, result)
		}()

		result, _ = s.runImport(jobCtx, importID, fileName, data, job.setProgress)
	}()

	return importID, nil
}

// complete publishes the final progress, persists the result and schedules
// the in-memory job for removal.
func (s *Service) complete(job *activeImport, result *ImportResult) {
	final := job.snapshot()
	final.Phase = PhaseComplete
	final.Succeeded = result.SuccessCount
	final.Skipped = result.SkippedCount
	final.Failed = len(result.Errors)
	final.TotalRows = result.TotalRows
	final.Format = result.Format
	if result.Failed() {
		final.Phase = PhaseFailed
		final.Error = result.Error
	} else {
		final.CurrentRow = result.TotalRows
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := s.results.Save(saveCtx, result); err != nil {
		s.importer.logger.Error("save import result", "import_id", job.ID, "error", err)
	}
	cancel()

	job.finish(final, result)

	time.AfterFunc(s.opts.ResultTTL, func() {
		s.mu.Lock()
		delete(s.imports, job.ID)
		s.mu.Unlock()
	})
}

func (s *Service) activeJob(importID string) (*activeImport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.imports[importID]
	return job, ok
}

// SubscribeProgress returns a channel of progress updates for a running or
// recently finished job. The current state is sent first; the channel is
// closed when the job completes.
func (s *Service) SubscribeProgress(importID string) (<-chan ImportProgress, error) {
	job, ok := s.activeJob(importID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}

	ch := make(chan ImportProgress, 16)

	job.mu.Lock()
	defer job.mu.Unlock()

	ch <- job.progress
	if job.result != nil {
		close(ch)
		return ch, nil
	}
	job.listeners = append(job.listeners, ch)
	return ch, nil
}

// GetImportProgress returns the current progress without blocking.
func (s *Service) GetImportProgress(importID string) (ImportProgress, error) {
	job, ok := s.activeJob(importID)
	if !ok {
		return ImportProgress{}, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	return job.snapshot(), nil
}

// GetImportResult returns the result of an import, waiting for a running
// job to finish or ctx to end. Jobs no longer in memory are looked up in
// the result store.
func (s *Service) GetImportResult(ctx context.Context, importID string) (*ImportResult, error) {
	job, ok := s.activeJob(importID)
	if !ok {
		return s.results.Load(ctx, importID)
	}

	select {
	case <-job.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	return job.result, nil
}
