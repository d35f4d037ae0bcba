package kpi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-kpi/epoch"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"github.com/RyanBlaney/sonido-kpi/metrics"
	"github.com/RyanBlaney/sonido-kpi/recording"
)

var nan = math.NaN()

// Skip records a recording that produced no rows
type Skip struct {
	Recording string `json:"recording"`
	Outcome   string `json:"outcome"` // one of the metrics outcome labels
	Err       error  `json:"-"`
}

// BatchResult is the concatenated table of a batch plus its skips
type BatchResult struct {
	Table *Table `json:"table"`
	Skips []Skip `json:"skips"`
}

// Run processes recordings concurrently, one recording per worker. A
// failing recording never stops the batch: skips are listed in the
// result, and failures that are not expected skips are also joined into
// the returned error. Rows keep the input order of recordings.
func (e *Engine) Run(ctx context.Context, recordings []*recording.Recording) (*BatchResult, error) {
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":   "Run",
		"recordings": len(recordings),
	})

	type result struct {
		table *Table
		err   error
		done  bool
	}
	results := make([]result, len(recordings))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range e.workerCount(len(recordings)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				table, err := e.processSafely(recordings[i])
				results[i] = result{table: table, err: err, done: true}
			}
		}()
	}

feed:
	for i := range recordings {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	batch := &BatchResult{Table: NewTable(e.schema)}
	var failures []error

	for i, r := range results {
		id := recordingID(recordings[i], i)
		if !r.done {
			batch.Skips = append(batch.Skips, Skip{Recording: id, Outcome: metrics.OutcomeFailed, Err: ctx.Err()})
			continue
		}
		if r.err != nil {
			batch.Skips = append(batch.Skips, Skip{Recording: id, Outcome: outcomeOf(r.err), Err: r.err})
			if !epoch.IsSkip(r.err) {
				failures = append(failures, r.err)
			}
			continue
		}
		if err := batch.Table.Concat(r.table); err != nil {
			failures = append(failures, fmt.Errorf("recording %q: %w", id, err))
		}
	}

	if err := ctx.Err(); err != nil {
		failures = append(failures, err)
	}

	logger.Info("Batch complete", logging.Fields{
		"rows":  batch.Table.Len(),
		"skips": len(batch.Skips),
	})

	return batch, errors.Join(failures...)
}

// processSafely isolates a recording's panic from the rest of the batch
func (e *Engine) processSafely(rec *recording.Recording) (table *Table, err error) {
	defer func() {
		if p := recover(); p != nil {
			e.metrics.RecordingOutcome(metrics.OutcomeFailed)
			table, err = nil, fmt.Errorf("recording panicked: %v", p)
			e.logger.Error(err, "Recording failed", logging.Fields{"recording": recordingID(rec, -1)})
		}
	}()
	return e.ProcessRecording(rec)
}

func recordingID(rec *recording.Recording, index int) string {
	if rec == nil || rec.ID == "" {
		return fmt.Sprintf("#%d", index)
	}
	return rec.ID
}
