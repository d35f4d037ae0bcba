// Package kpi drives the feature families over segmented windows and
// assembles the KPI table.
package kpi

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/epoch"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"github.com/RyanBlaney/sonido-kpi/metrics"
	"github.com/RyanBlaney/sonido-kpi/recording"
)

// Option customises an Engine
type Option func(*Engine)

// WithMetrics reports counters to rec
func WithMetrics(rec *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// WithLogger replaces the engine's logger. The engine logs through a
// child carrying the configured level, so logger itself is not modified.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConnectivity overrides the configured phase-synchronisation
// estimator
func WithConnectivity(conn features.Connectivity) Option {
	return func(e *Engine) { e.connectivity = &conn }
}

// WithAperiodic overrides the configured aperiodic estimator
func WithAperiodic(estimator features.AperiodicEstimator) Option {
	return func(e *Engine) { e.aperiodic = estimator }
}

// Engine turns recordings into KPI rows. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	cfg       config.Config
	registry  *bands.Registry
	schema    []string
	segmenter *epoch.Segmenter

	aperiodic    features.AperiodicEstimator
	connectivity *features.Connectivity

	timeDomain *features.TimeDomain
	frequency  *features.FrequencyDomain
	nonlinear  *features.Nonlinear
	cross      *features.CrossChannel

	metrics *metrics.Recorder
	logger  logging.Logger
}

// NewEngine validates cfg and resolves every strategy once
func NewEngine(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "kpi_engine",
		}),
	}
	for _, opt := range opts {
		opt(e)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e.logger = e.logger.WithLevel(level)

	if e.registry, err = cfg.Registry(); err != nil {
		return nil, err
	}
	events, err := cfg.EventTable()
	if err != nil {
		return nil, err
	}

	if e.aperiodic == nil {
		if e.aperiodic, err = features.NewAperiodicEstimator(cfg.Spectral, e.logger); err != nil {
			return nil, err
		}
	}
	if e.connectivity == nil {
		conn, err := features.NewConnectivity(cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.connectivity = &conn
	}

	e.segmenter = epoch.NewSegmenter(cfg, events).WithLogger(e.logger)
	e.timeDomain = features.NewTimeDomain()
	e.frequency = features.NewFrequencyDomain(cfg, e.registry, e.aperiodic)
	e.nonlinear = features.NewNonlinear(cfg, e.registry)
	e.cross = features.NewCrossChannel(cfg, e.registry, *e.connectivity)

	if e.schema, err = features.Schema(cfg); err != nil {
		return nil, err
	}

	e.logger.Debug("Engine ready", logging.Fields{
		"function":     "NewEngine",
		"channels":     cfg.Channels,
		"bands":        e.registry.Names(),
		"columns":      len(e.schema),
		"aperiodic":    e.aperiodic.Name(),
		"connectivity": e.connectivity.IsAvailable(),
	})

	return e, nil
}

// Schema returns the feature columns every row carries
func (e *Engine) Schema() []string {
	return append([]string(nil), e.schema...)
}

// Config returns the engine's configuration
func (e *Engine) Config() config.Config {
	return e.cfg
}

// ExtractWindow computes every family for one window and merges them
// under the naming convention. Window rows must follow the configured
// channel order.
func (e *Engine) ExtractWindow(w *epoch.Window) *features.Vector {
	v := features.NewVector(len(e.schema))
	powers := make([]features.BandPowers, len(e.cfg.Channels))

	for c, ch := range e.cfg.Channels {
		x := w.Data[c]

		v.Merge(features.ChannelPrefix(ch, features.FamilyTime), e.timeDomain.Extract(x))

		fv, p := e.frequency.Extract(x)
		v.Merge(features.ChannelPrefix(ch, features.FamilyFrequency), fv)
		powers[c] = p

		v.Merge(features.ChannelPrefix(ch, features.FamilyNonlinear), e.nonlinear.Extract(x))
	}

	v.Merge(features.FamilyConnectivity, e.cross.Extract(w.Data, powers))
	return v
}

// extractSafely runs ExtractWindow, turning a panic that escapes every
// family guard into an error
func (e *Engine) extractSafely(w *epoch.Window) (v *features.Vector, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, fmt.Errorf("window %d: panic: %v", w.ID, p)
		}
	}()
	return e.ExtractWindow(w), nil
}

// ProcessRecording segments rec and extracts one row per surviving window,
// or one averaged row in recording mode. Skips return an empty table along
// with an error for which epoch.IsSkip is true.
func (e *Engine) ProcessRecording(rec *recording.Recording) (*Table, error) {
	table := NewTable(e.schema)
	if rec == nil {
		return table, fmt.Errorf("recording cannot be nil")
	}

	logger := e.logger.WithFields(logging.Fields{
		"function":  "ProcessRecording",
		"recording": rec.ID,
	})

	projected, err := e.project(rec)
	if err != nil {
		e.metrics.RecordingOutcome(metrics.OutcomeFailed)
		logger.Error(err, "Recording does not match the configured channels")
		return table, err
	}

	seg, err := e.segmenter.Segment(projected)
	if seg != nil {
		e.metrics.Windows(metrics.WindowRejected, seg.Rejected)
	}
	if err != nil {
		e.metrics.RecordingOutcome(outcomeOf(err))
		if epoch.IsSkip(err) {
			logger.Warn("Skipping recording", logging.Fields{"reason": err.Error()})
		} else {
			logger.Error(err, "Segmentation failed")
		}
		return table, err
	}

	rows := e.extractWindows(rec.ID, seg.Windows, logger)

	if e.cfg.Aggregate.Mode == config.AggregateRecording && len(rows) > 0 {
		rows = []Row{averageRows(rows, len(e.schema))}
	}
	if err := table.Append(rows...); err != nil {
		e.metrics.RecordingOutcome(metrics.OutcomeFailed)
		return table, err
	}

	e.metrics.RecordingOutcome(metrics.OutcomeProcessed)
	logger.Info("Recording processed", logging.Fields{
		"label":    seg.Label,
		"windows":  seg.Total,
		"rejected": seg.Rejected,
		"rows":     table.Len(),
	})
	return table, nil
}

// extractWindows computes rows in window order, dropping windows on which
// every family failed
func (e *Engine) extractWindows(id string, windows []*epoch.Window, logger logging.Logger) []Row {
	type outcome struct {
		row     Row
		dropped bool
	}
	outcomes := make([]outcome, len(windows))

	work := func(i int) {
		w := windows[i]
		start := time.Now()
		v, err := e.extractSafely(w)
		e.metrics.ObserveExtraction(time.Since(start))

		if err == nil && v.AllFailed() {
			err = errors.New("every family failed")
		}
		if err != nil {
			logger.Debug("Window dropped", logging.Fields{"window": w.ID, "error": err.Error()})
			outcomes[i].dropped = true
			return
		}

		e.countFailures(v)
		outcomes[i].row = Row{
			Recording:   id,
			WindowID:    w.ID,
			Label:       w.Label,
			Code:        w.Code,
			WindowCount: 1,
			Values:      e.layout(v),
		}
	}

	workers := e.cfg.Aggregate.WindowWorkers
	if workers <= 1 || len(windows) < 2 {
		for i := range windows {
			work(i)
		}
	} else {
		jobs := make(chan int, len(windows))
		var wg sync.WaitGroup
		for range min(workers, len(windows)) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					work(i)
				}
			}()
		}
		for i := range windows {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	rows := make([]Row, 0, len(windows))
	dropped := 0
	for _, o := range outcomes {
		if o.dropped {
			dropped++
			continue
		}
		rows = append(rows, o.row)
	}
	e.metrics.Windows(metrics.WindowKept, len(rows))
	e.metrics.Windows(metrics.WindowDropped, dropped)
	return rows
}

// layout orders a window's values by the schema. A key the families did
// not emit is NaN.
func (e *Engine) layout(v *features.Vector) []float64 {
	values := make([]float64, len(e.schema))
	for i, col := range e.schema {
		val, ok := v.Get(col)
		if !ok {
			e.logger.Warn("Feature missing from window vector", logging.Fields{"column": col})
			val = nan
		}
		values[i] = val
	}
	return values
}

func (e *Engine) countFailures(v *features.Vector) {
	counts := map[string]int{}
	for _, f := range v.Failures() {
		counts[f.Family]++
	}
	for family, n := range counts {
		e.metrics.FeatureFailures(family, n)
	}
}

// project selects the configured channels of rec in configured order
func (e *Engine) project(rec *recording.Recording) (*recording.Recording, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	out := *rec
	out.Channels = e.cfg.Channels
	out.Data = make([][]float64, len(e.cfg.Channels))
	for i, ch := range e.cfg.Channels {
		row, ok := rec.Channel(ch)
		if !ok {
			return nil, fmt.Errorf("recording %q: missing channel %q", rec.ID, ch)
		}
		out.Data[i] = row
	}
	if rec.SampleRate != e.cfg.SampleRate {
		return nil, fmt.Errorf("recording %q: sample rate %v differs from configured %v",
			rec.ID, rec.SampleRate, e.cfg.SampleRate)
	}
	return &out, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, epoch.ErrNoEvents):
		return metrics.OutcomeNoEvents
	case errors.Is(err, epoch.ErrUnknownEvent):
		return metrics.OutcomeUnknownEvent
	case errors.Is(err, epoch.ErrNotViable):
		return metrics.OutcomeNotViable
	default:
		return metrics.OutcomeFailed
	}
}

// workerCount resolves the batch worker bound
func (e *Engine) workerCount(jobs int) int {
	workers := e.cfg.Aggregate.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return max(1, min(workers, jobs))
}
