// Package chaos runs fault-injection experiments against the itinerary
// planner and reports whether each hypothesis held.
package chaos

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrSteadyState is returned when the system is unhealthy before any
// fault is injected.
var ErrSteadyState = errors.New("steady state invalid, aborting experiment")

// Experiment defines one chaos test.
type Experiment struct {
	Name        string
	Hypothesis  string
	SteadyState []Metric
	Method      []Action
	Rollback    []Action
	Validation  []Assertion
	Duration    time.Duration
	// Interval is the sampling period while faults are active. Defaults
	// to one second.
	Interval    time.Duration
	BlastRadius float64 // 0.0 to 1.0
}

// Metric is a measurable property of the system.
type Metric struct {
	Name      string
	Query     func(context.Context) (float64, error)
	Threshold Threshold
}

type Threshold struct {
	Operator string // >, <, >=, <=, ==
	Value    float64
}

// Holds reports whether v satisfies the threshold. Unknown operators
// never hold.
func (t Threshold) Holds(v float64) bool {
	switch t.Operator {
	case ">":
		return v > t.Value
	case "<":
		return v < t.Value
	case ">=":
		return v >= t.Value
	case "<=":
		return v <= t.Value
	case "==":
		return v == t.Value
	default:
		return false
	}
}

// Action injects or removes a fault.
type Action struct {
	Type       string // fail-categories, inject-latency, fail-routes, reset
	Target     string
	Parameters map[string]any
	Execute    func(context.Context) error
}

// Assertion checks the final observation of a metric.
type Assertion struct {
	Metric    string
	Condition func(float64) bool
	Message   string
}

type Result struct {
	ExperimentName   string                 `json:"experiment_name"`
	StartTime        time.Time              `json:"start_time"`
	EndTime          time.Time              `json:"end_time"`
	Duration         time.Duration          `json:"duration"`
	HypothesisHeld   bool                   `json:"hypothesis_held"`
	SteadyStateValid bool                   `json:"steady_state_valid"`
	Violations       []Violation            `json:"violations"`
	FailedAssertions []string               `json:"failed_assertions,omitempty"`
	Observations     map[string][]DataPoint `json:"observations"`
	ErrorEvents      []ErrorEvent           `json:"error_events"`
	MTTR             *time.Duration         `json:"mttr,omitempty"`
}

type Violation struct {
	MetricName string    `json:"metric_name"`
	Expected   float64   `json:"expected"`
	Actual     float64   `json:"actual"`
	Timestamp  time.Time `json:"timestamp"`
}

type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Component string    `json:"component"`
}

// Engine orchestrates experiments and keeps their results.
type Engine struct {
	tracer trace.Tracer
	logger *zap.Logger

	mu          sync.Mutex
	experiments []Experiment
	results     []Result
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tracer: otel.Tracer("heritage/chaos"),
		logger: logger,
	}
}

func (e *Engine) Register(exps ...Experiment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.experiments = append(e.experiments, exps...)
}

// Experiments returns the registered experiments in order.
func (e *Engine) Experiments() []Experiment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Experiment(nil), e.experiments...)
}

// Results returns every completed run.
func (e *Engine) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

// Run executes exp: steady state check, injection, observation,
// rollback, then assertions. Rollback runs even when ctx is cancelled
// during observation.
func (e *Engine) Run(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.run_experiment",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	result := &Result{
		ExperimentName: exp.Name,
		StartTime:      time.Now(),
		Observations:   make(map[string][]DataPoint),
		ErrorEvents:    []ErrorEvent{},
		Violations:     []Violation{},
	}

	span.AddEvent("validating_steady_state")
	if violations := e.steadyState(ctx, exp.SteadyState); len(violations) > 0 {
		result.Violations = violations
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result, ErrSteadyState
	}
	result.SteadyStateValid = true

	span.AddEvent("injecting_chaos")
	for _, action := range exp.Method {
		if err := action.Execute(ctx); err != nil {
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{Timestamp: time.Now(), Error: err.Error(), Component: action.Target})
			span.RecordError(err)
		}
	}

	span.AddEvent("observing_system")
	e.observe(ctx, exp, result)

	span.AddEvent("rolling_back")
	rollbackCtx := context.WithoutCancel(ctx)
	for _, action := range exp.Rollback {
		if err := action.Execute(rollbackCtx); err != nil {
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{Timestamp: time.Now(), Error: err.Error(), Component: action.Target})
			span.RecordError(err)
		}
	}

	span.AddEvent("validating_assertions")
	result.FailedAssertions = assertionFailures(exp.Validation, result)
	result.HypothesisHeld = len(result.FailedAssertions) == 0
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	e.mu.Lock()
	e.results = append(e.results, *result)
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Bool("hypothesis_held", result.HypothesisHeld),
		attribute.Int("violations", len(result.Violations)),
	)
	return result, ctx.Err()
}

// observe samples every steady state metric once right away and then on
// each tick until exp.Duration elapses.
func (e *Engine) observe(ctx context.Context, exp Experiment, result *Result) {
	interval := exp.Interval
	if interval <= 0 {
		interval = time.Second
	}
	obsCtx, cancel := context.WithTimeout(ctx, exp.Duration)
	defer cancel()

	var violatedAt time.Time
	recovered := false
	sample := func() {
		for _, m := range exp.SteadyState {
			value, err := m.Query(ctx)
			now := time.Now()
			if err != nil {
				result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{Timestamp: now, Error: err.Error(), Component: m.Name})
				continue
			}
			result.Observations[m.Name] = append(result.Observations[m.Name], DataPoint{Timestamp: now, Value: value})

			if !m.Threshold.Holds(value) {
				if violatedAt.IsZero() {
					violatedAt = now
				}
				result.Violations = append(result.Violations, Violation{MetricName: m.Name, Expected: m.Threshold.Value, Actual: value, Timestamp: now})
			} else if !violatedAt.IsZero() && !recovered {
				mttr := now.Sub(violatedAt)
				result.MTTR = &mttr
				recovered = true
			}
		}
	}

	sample()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-obsCtx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

func (e *Engine) steadyState(ctx context.Context, metrics []Metric) []Violation {
	var violations []Violation
	for _, m := range metrics {
		value, err := m.Query(ctx)
		if err != nil {
			e.logger.Warn("steady state query failed", zap.String("metric", m.Name), zap.Error(err))
			violations = append(violations, Violation{MetricName: m.Name, Expected: m.Threshold.Value, Actual: -1, Timestamp: time.Now()})
			continue
		}
		if !m.Threshold.Holds(value) {
			violations = append(violations, Violation{MetricName: m.Name, Expected: m.Threshold.Value, Actual: value, Timestamp: time.Now()})
		}
	}
	return violations
}

// assertionFailures returns the message of every assertion whose metric
// was never observed or whose final value fails the condition.
func assertionFailures(assertions []Assertion, result *Result) []string {
	var failed []string
	for _, a := range assertions {
		obs := result.Observations[a.Metric]
		if len(obs) == 0 || !a.Condition(obs[len(obs)-1].Value) {
			failed = append(failed, a.Message)
		}
	}
	return failed
}

// GameDay is a series of experiments run back to back.
type GameDay struct {
	Name         string
	Date         time.Time
	Scenarios    []Experiment
	Participants []string
	// Pause is the wait between experiments.
	Pause time.Duration
}

// ExecuteGameDay runs every scenario and returns the results of those
// that got past the steady state check. A failed experiment does not
// stop the day; cancelling ctx does.
func (e *Engine) ExecuteGameDay(ctx context.Context, day GameDay) ([]Result, error) {
	ctx, span := e.tracer.Start(ctx, "chaos.game_day",
		trace.WithAttributes(attribute.String("gameday.name", day.Name)),
	)
	defer span.End()

	e.logger.Info("starting game day",
		zap.String("name", day.Name),
		zap.Time("date", day.Date),
		zap.Strings("participants", day.Participants),
		zap.Int("experiments", len(day.Scenarios)),
	)

	var results []Result
	for i, exp := range day.Scenarios {
		log := e.logger.With(zap.String("experiment", exp.Name), zap.Int("index", i+1))
		log.Info("running experiment", zap.String("hypothesis", exp.Hypothesis))

		result, err := e.Run(ctx, exp)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			log.Error("experiment failed", zap.Error(err), zap.Int("violations", len(result.Violations)))
			continue
		}
		results = append(results, *result)
		e.report(log, result)

		if i == len(day.Scenarios)-1 || day.Pause <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case <-time.After(day.Pause):
		}
	}
	return results, nil
}

func (e *Engine) report(log *zap.Logger, r *Result) {
	fields := []zap.Field{
		zap.Bool("hypothesis_held", r.HypothesisHeld),
		zap.Int("violations", len(r.Violations)),
		zap.Duration("duration", r.Duration),
	}
	if r.MTTR != nil {
		fields = append(fields, zap.Duration("mttr", *r.MTTR))
	}
	if r.HypothesisHeld {
		log.Info("hypothesis held", fields...)
		return
	}
	log.Warn("hypothesis violated", append(fields, zap.Strings("failed_assertions", r.FailedAssertions))...)
}
