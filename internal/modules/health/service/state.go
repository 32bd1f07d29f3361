package service

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fibo_bot/internal/models"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastRunUnix atomic.Int64 // unix seconds
	runs        atomic.Int64
	entries     atomic.Int64
	failures    atomic.Int64

	mu   sync.RWMutex
	last map[string]models.SignalOutcome
}

func NewState() *State {
	s := &State{startedAt: time.Now(), last: make(map[string]models.SignalOutcome)}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// TouchRun закончен проход по всем монетам.
func (s *State) TouchRun(t time.Time) {
	s.lastRunUnix.Store(t.Unix())
	s.runs.Add(1)
}

func (s *State) LastRun() time.Time {
	u := s.lastRunUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Runs() int64     { return s.runs.Load() }
func (s *State) Entries() int64  { return s.entries.Load() }
func (s *State) Failures() int64 { return s.failures.Load() }

func (s *State) Fail() { s.failures.Add(1) }

// Observe запоминает последний результат по символу.
func (s *State) Observe(o models.SignalOutcome) {
	if o.IsEntry() {
		s.entries.Add(1)
	}
	s.mu.Lock()
	s.last[o.Symbol] = o
	s.mu.Unlock()
}

func (s *State) Last() map[string]models.SignalOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.SignalOutcome, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// Summary текст для /status.
func (s *State) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime %s, runs %d, entries %d, failures %d\n",
		s.Uptime().Truncate(time.Second), s.Runs(), s.Entries(), s.Failures())

	last := s.Last()
	symbols := make([]string, 0, len(last))
	for sym := range last {
		symbols = append(symbols, sym)
	}
	slices.Sort(symbols)
	for _, sym := range symbols {
		o := last[sym]
		if o.IsEntry() {
			fmt.Fprintf(&b, "%s: %s @ %g\n", sym, o.Direction, o.Entry)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", sym, o.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
