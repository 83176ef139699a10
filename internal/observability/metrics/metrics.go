package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "smartpark_"

	resultSuccess  = "success"
	resultError    = "error"
	resultNotFound = "not_found"
)

var (
	registerOnce sync.Once

	simulationTicks prometheus.Counter
	slotFlips       prometheus.Counter
	simulationState prometheus.Gauge

	slotActions  *prometheus.CounterVec
	slotsByState *prometheus.GaugeVec
	environment  *prometheus.GaugeVec

	authResults *prometheus.CounterVec

	paymentsTotal  prometheus.Counter
	paymentsAmount prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers collectors with the default registerer. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		register(prometheus.DefaultRegisterer)
	})
}

func register(reg prometheus.Registerer) {
	simulationTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "simulation_ticks_total",
		Help: "Total simulation ticks executed",
	})
	slotFlips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "simulation_slot_flips_total",
		Help: "Total free/occupied flips applied by the simulation",
	})
	simulationState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metricPrefix + "simulation_active",
		Help: "1 when the simulation timer is running",
	})
	slotActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "slot_actions_total",
			Help: "Manual slot actions by action and result",
		},
		[]string{"action", "result"},
	)
	slotsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "slots",
			Help: "Current slot count by status",
		},
		[]string{"status"},
	)
	environment = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "environment",
			Help: "Simulated environmental readings",
		},
		[]string{"reading"},
	)
	authResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "auth_requests_total",
			Help: "Signup and login requests by operation and result",
		},
		[]string{"operation", "result"},
	)
	paymentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "payments_total",
		Help: "Total payment receipts issued",
	})
	paymentsAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "payments_amount_total",
		Help: "Sum of receipt amounts",
	})
	exportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "export_total",
			Help: "Total exports by format and result",
		},
		[]string{"format", "result"},
	)
	exportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "export_latency_seconds",
			Help:    "Export latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format", "result"},
	)

	reg.MustRegister(
		simulationTicks,
		slotFlips,
		simulationState,
		slotActions,
		slotsByState,
		environment,
		authResults,
		paymentsTotal,
		paymentsAmount,
		exportTotal,
		exportLatency,
	)
}

// ObserveTick records one simulation tick and the flips it applied.
func ObserveTick(flips int) {
	if simulationTicks != nil {
		simulationTicks.Inc()
	}
	if slotFlips != nil && flips > 0 {
		slotFlips.Add(float64(flips))
	}
}

// SetSimulationActive records the simulation timer state.
func SetSimulationActive(active bool) {
	if simulationState == nil {
		return
	}
	if active {
		simulationState.Set(1)
		return
	}
	simulationState.Set(0)
}

// IncSlotAction counts a manual reserve/toggle.
func IncSlotAction(action string, found bool) {
	if slotActions == nil {
		return
	}
	result := resultSuccess
	if !found {
		result = resultNotFound
	}
	slotActions.WithLabelValues(action, result).Inc()
}

// SetSlotCounts publishes the aggregate slot counts.
func SetSlotCounts(occupied, free, reserved, maintenance int) {
	if slotsByState == nil {
		return
	}
	slotsByState.WithLabelValues("occupied").Set(float64(occupied))
	slotsByState.WithLabelValues("free").Set(float64(free))
	slotsByState.WithLabelValues("reserved").Set(float64(reserved))
	slotsByState.WithLabelValues("maintenance").Set(float64(maintenance))
}

// SetEnvironment publishes the latest environmental readings.
func SetEnvironment(temperature, humidity float64, co2 int) {
	if environment == nil {
		return
	}
	environment.WithLabelValues("temperature_celsius").Set(temperature)
	environment.WithLabelValues("humidity_percent").Set(humidity)
	environment.WithLabelValues("co2_ppm").Set(float64(co2))
}

// IncAuth counts a signup or login attempt.
func IncAuth(operation string, err error) {
	if authResults == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	authResults.WithLabelValues(operation, result).Inc()
}

// ObservePayment records an issued receipt.
func ObservePayment(amount int) {
	if paymentsTotal != nil {
		paymentsTotal.Inc()
	}
	if paymentsAmount != nil && amount > 0 {
		paymentsAmount.Add(float64(amount))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
