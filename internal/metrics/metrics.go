// Package metrics exports controller readings and tick counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/greenhouse/internal/cycle"
	"github.com/sweeney/greenhouse/internal/logic"
)

const namespace = "greenhouse"

// Metrics holds the collectors fed from cycle reports.
type Metrics struct {
	temperature  prometheus.Gauge
	moisture     prometheus.Gauge
	light        prometheus.Gauge
	actuator     *prometheus.GaugeVec
	ticks        *prometheus.CounterVec
	deviceErrors prometheus.Counter
	fullCycles   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last air temperature reading.",
		}),
		moisture: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "soil_moisture_percent",
			Help:      "Last soil moisture reading.",
		}),
		light: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_percent",
			Help:      "Last ambient light reading.",
		}),
		actuator: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_on",
			Help:      "Commanded actuator state (1 on, 0 off).",
		}, []string{"actuator"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control ticks by the step they performed.",
		}, []string{"state"}),
		deviceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_errors_total",
			Help:      "Absorbed device failures.",
		}),
		fullCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "full_cycles_total",
			Help:      "Completed full sensor cycles.",
		}),
	}
	reg.MustRegister(m.temperature, m.moisture, m.light, m.actuator, m.ticks, m.deviceErrors, m.fullCycles)
	return m
}

// Observe records one tick report.
func (m *Metrics) Observe(rep cycle.Report) {
	m.ticks.WithLabelValues(rep.From.String()).Inc()
	if rep.Err != nil {
		m.deviceErrors.Inc()
	}
	if rep.FullCycle {
		m.fullCycles.Inc()
	}

	t := rep.Readings.Temperature
	m.temperature.Set(float64(t.Whole) + float64(t.Tenths)/10)
	m.moisture.Set(float64(rep.Readings.MoisturePercent))
	m.light.Set(float64(rep.Readings.LightPercent))

	m.actuator.WithLabelValues(string(logic.ActuatorVent)).Set(boolToFloat(rep.Outputs.Vent))
	m.actuator.WithLabelValues(string(logic.ActuatorSprinkler)).Set(boolToFloat(rep.Outputs.Sprinkler))
	m.actuator.WithLabelValues(string(logic.ActuatorBulb)).Set(boolToFloat(rep.Outputs.Bulb))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
