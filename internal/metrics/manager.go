package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterCommands           *prometheus.CounterVec
	CounterWorkoutsCompleted  prometheus.Counter
	CounterWorkoutsAbandoned  prometheus.Counter
	CounterPersistFailures    prometheus.Counter
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeActiveSession prometheus.Gauge
	GaugeLifeSignal    prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistWorkoutMinutes  prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("cirqulofit", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("cirqulofit", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterCommands := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_commands",
		Help:      "The total number of session commands dispatched",
	}, []string{"command", "result"})
	counterWorkoutsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_completed",
		Help:      "The total number of completed workouts",
	})
	counterWorkoutsAbandoned := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_abandoned",
		Help:      "The total number of workouts stopped before completion",
	})
	counterPersistFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "persist_failures",
		Help:      "The total number of failed user record saves",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeActiveSession := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_session",
		Help:      "1 while a workout session is in progress",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0001, 0.0005, 0.001, 0.005, 0.01,
				0.05, 0.1, 0.5, 1, 5, 10,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)
	histWorkoutMinutes := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180},
			Name:      "workout_duration_minutes",
			Help:      "Duration of completed workouts in minutes",
		},
	)

	return &Manager{
		CounterRequests:           counterRequests,
		CounterCommands:           counterCommands,
		CounterWorkoutsCompleted:  counterWorkoutsCompleted,
		CounterWorkoutsAbandoned:  counterWorkoutsAbandoned,
		CounterPersistFailures:    counterPersistFailures,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeActiveSession:        gaugeActiveSession,
		GaugeLifeSignal:           gaugeLifeSignal,
		HistRequestDuration:       histReqDuration,
		HistWorkoutMinutes:        histWorkoutMinutes,
	}
}

// CommandApplied counts a dispatched session command by outcome.
func (m *Manager) CommandApplied(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CounterCommands.WithLabelValues(name, result).Inc()
}

func (m *Manager) WorkoutStarted() {
	m.GaugeActiveSession.Set(1)
}

func (m *Manager) WorkoutCompleted(minutes int) {
	m.CounterWorkoutsCompleted.Inc()
	m.HistWorkoutMinutes.Observe(float64(minutes))
	m.GaugeActiveSession.Set(0)
}

func (m *Manager) WorkoutAbandoned() {
	m.CounterWorkoutsAbandoned.Inc()
	m.GaugeActiveSession.Set(0)
}

func (m *Manager) PersistFailed() {
	m.CounterPersistFailures.Inc()
}
