package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/driver"
)

func init() {
	RegisterPlugin("stats", NewStatsPlugin)
}

// QueryStats holds statement execution statistics.
type QueryStats struct {
	// TotalExecs is the total number of statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing, in nanoseconds.
	TotalDuration atomic.Int64
	// SlowExecs is the count of executions exceeding the slow threshold.
	SlowExecs atomic.Int64
	// Errors is the count of failed executions.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowExecs:     s.SlowExecs.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowExecs.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of execution statistics.
type StatsSnapshot struct {
	TotalExecs    int64
	TotalDuration time.Duration
	SlowExecs     int64
	Errors        int64
}

// AvgDuration returns the average statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	if s.TotalExecs == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalExecs)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalExecs, s.TotalDuration, s.AvgDuration(), s.SlowExecs, s.Errors,
	)
}

// SlowExecHook is called when a slow statement is detected.
type SlowExecHook func(ctx context.Context, statement string, params driver.Params, elapsed time.Duration)

// StatsPlugin collects execution statistics for one engine. Select it
// with a "plugin=stats" URL query parameter; the construction argument
// "stats_slow_threshold" accepts a duration string and defaults to
// 100ms.
type StatsPlugin struct {
	PluginBase
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowExecHook
	logger        *slog.Logger
	mu            sync.RWMutex
}

// NewStatsPlugin is the registered factory for the "stats" plugin. The
// slow threshold may arrive as a "stats_slow_threshold" URL query
// parameter or construction argument; the argument wins when both are
// given.
func NewStatsPlugin(u *dburl.URL, kwargs map[string]any) (Plugin, error) {
	p := &StatsPlugin{
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	var raw any
	if u != nil {
		if v := u.QueryGet("stats_slow_threshold"); v != "" {
			raw = v
		}
	}
	if v, ok := kwargs["stats_slow_threshold"]; ok {
		delete(kwargs, "stats_slow_threshold")
		raw = v
	}
	if raw != nil {
		switch v := raw.(type) {
		case time.Duration:
			p.slowThreshold = v
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("stats_slow_threshold: %w", err)
			}
			p.slowThreshold = d
		default:
			return nil, fmt.Errorf("stats_slow_threshold: unsupported type %T", raw)
		}
	}
	if hook, ok := kwargs["stats_slow_hook"]; ok {
		delete(kwargs, "stats_slow_hook")
		h, good := hook.(SlowExecHook)
		if !good {
			return nil, fmt.Errorf("stats_slow_hook: unsupported type %T", hook)
		}
		p.slowHook = h
	}
	return p, nil
}

// UpdateURL strips the plugin's query parameters.
func (p *StatsPlugin) UpdateURL(u *dburl.URL) *dburl.URL {
	return u.WithoutQuery("stats_slow_threshold")
}

// EngineCreated attaches the plugin to the engine's execution observer
// hook.
func (p *StatsPlugin) EngineCreated(e *Engine) {
	p.mu.Lock()
	p.logger = e.Logger()
	p.mu.Unlock()
	e.AddExecObserver(p)
}

// QueryStats returns the underlying counters for reading statistics.
func (p *StatsPlugin) QueryStats() *QueryStats { return p.stats }

// SlowThreshold returns the current slow statement threshold.
func (p *StatsPlugin) SlowThreshold() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (p *StatsPlugin) SetSlowThreshold(threshold time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slowThreshold = threshold
}

// SetSlowHook sets the callback invoked for slow statements. When no
// hook is set, slow statements are logged at warning level.
func (p *StatsPlugin) SetSlowHook(hook SlowExecHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slowHook = hook
}

// ObserveExec implements ExecObserver.
func (p *StatsPlugin) ObserveExec(ctx context.Context, statement string, params driver.Params, elapsed time.Duration, err error) {
	p.stats.TotalExecs.Add(1)
	p.stats.TotalDuration.Add(int64(elapsed))
	if err != nil {
		p.stats.Errors.Add(1)
	}

	p.mu.RLock()
	threshold := p.slowThreshold
	hook := p.slowHook
	logger := p.logger
	p.mu.RUnlock()

	if elapsed > threshold {
		p.stats.SlowExecs.Add(1)
		if hook != nil {
			hook(ctx, statement, params, elapsed)
		} else if logger != nil {
			logger.Warn("slow statement detected",
				"elapsed", elapsed, "statement", statement)
		}
	}
}

var (
	_ Plugin       = (*StatsPlugin)(nil)
	_ ExecObserver = (*StatsPlugin)(nil)
)
