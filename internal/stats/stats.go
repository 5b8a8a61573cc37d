package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sheet",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of open websocket sessions.",
	})

	generateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sheet",
		Subsystem: "generate",
		Name:      "requests_total",
		Help:      "Generation requests broken down by stage (initial|finalize) and outcome.",
	}, []string{"stage", "outcome"})

	selectionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sheet",
		Subsystem: "selection",
		Name:      "events_total",
		Help:      "Selection changes broken down by result (applied|conflict|invalid).",
	}, []string{"result"})

	attachmentsSubmitted = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sheet",
		Subsystem: "submit",
		Name:      "attachments",
		Help:      "Number of attached leaders per finalizing request.",
		Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
	})
)

func SessionOpened() { sessionsActive.Inc() }
func SessionClosed() { sessionsActive.Dec() }

// RecordGenerate counts one round-trip to the generation service.
// stage is "initial" or "finalize"; outcome is "sheet", "prompt" or "error".
func RecordGenerate(stage, outcome string) {
	generateRequests.WithLabelValues(stage, outcome).Inc()
	switch outcome {
	case "sheet":
		bumpDaily(func(d *Daily) { d.Sheets++ })
	case "prompt":
		bumpDaily(func(d *Daily) { d.Prompts++ })
	case "error":
		bumpDaily(func(d *Daily) { d.Failures++ })
	}
}

func RecordSelection(result string) {
	if result == "" {
		result = "applied"
	}
	selectionEvents.WithLabelValues(result).Inc()
	if result == "conflict" {
		bumpDaily(func(d *Daily) { d.Conflicts++ })
	}
}

func RecordSubmit(attached int) {
	attachmentsSubmitted.Observe(float64(attached))
	bumpDaily(func(d *Daily) { d.Attachments += attached })
}
