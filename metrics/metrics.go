// Package metrics holds the in-process counters and gauges SPEC_FULL.md's
// observability section calls for. There is no HTTP exporter here per
// spec.md's Non-goals — a process embedding this package is expected to
// register Registry() with its own /metrics handler if it wants one.
// Grounded on the promauto package-level pattern used throughout the
// retrieval pack (e.g. the worker-pool metrics in other_examples'
// opm-stats-api internal/worker package).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

// Registry exposes the collector registry so a composition root can wire
// it into an HTTP exporter if it chooses to.
func Registry() *prometheus.Registry { return registry }

var (
	roomsActive = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "eldorado_rooms_active",
		Help: "Number of rooms currently running.",
	})

	gamesStarted = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "eldorado_games_started_total",
		Help: "Total number of games that have started a first round.",
	})

	gamesCompleted = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "eldorado_games_completed_total",
		Help: "Total number of games that reached the final round's scoring.",
	})

	invalidActions = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "eldorado_invalid_actions_total",
		Help: "Rejected bid/play attempts, by error code.",
	}, []string{"code"})

	turnTimeouts = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "eldorado_turn_timeouts_total",
		Help: "Automatic fallback actions taken after a turn deadline elapsed.",
	}, []string{"phase"})

	botFallbacks = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "eldorado_bot_remote_fallback_total",
		Help: "Times a remote bot strategy call failed and the baseline strategy was used instead.",
	}, []string{"reason"})

	persistenceFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "eldorado_persistence_append_failures_total",
		Help: "AppendEvents calls that failed even after their retry.",
	})
)

// IncRoomOpened/IncRoomClosed track how many Room actors are alive at once.
func IncRoomOpened() { roomsActive.Inc() }
func IncRoomClosed() { roomsActive.Dec() }

// IncGameStarted records a round 1 StartRound call.
func IncGameStarted() { gamesStarted.Inc() }

// IncGameCompleted records a game reaching its final round's scoring.
func IncGameCompleted() { gamesCompleted.Inc() }

// IncInvalidAction records a rejected bid/play attempt, tagged by the
// engine.ErrorCode string that was returned to the caller.
func IncInvalidAction(code string) { invalidActions.WithLabelValues(code).Inc() }

// IncTurnTimeout records an automatic fallback action, tagged by the
// game phase (BIDDING or PLAYING) it fired in.
func IncTurnTimeout(phase string) { turnTimeouts.WithLabelValues(phase).Inc() }

// IncRemoteBotFallback records a remote-strategy fallback, tagged by
// reason; Sink.IncRemoteBotFallback forwards to it for bot.MetricsSink.
func IncRemoteBotFallback(reason string) { botFallbacks.WithLabelValues(reason).Inc() }

// IncPersistenceFailure records an AppendEvents call that exhausted its retry.
func IncPersistenceFailure() { persistenceFailures.Inc() }

// Sink is a zero-size value whose method set satisfies bot.MetricsSink
// (and any future per-component sink interface needing these counters),
// so a composition root can hand metrics.Sink{} to a bot.Remote without
// this package importing bot.
type Sink struct{}

func (Sink) IncRemoteBotFallback(reason string) { IncRemoteBotFallback(reason) }
