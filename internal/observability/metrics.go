package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rsnapshot_runs_total",
		Help: "Rotation runs by result code",
	}, []string{"result"})

	StepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rsnapshot_step_duration_seconds",
		Help:    "Duration of each rotation step",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"step"})

	SnapshotsListed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rsnapshot_snapshots_listed",
		Help: "Snapshots matching the prefix in the last listing",
	})

	SnapshotsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rsnapshot_snapshots_deleted_total",
		Help: "Outdated snapshots deleted",
	})

	LastSuccessTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rsnapshot_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		RunsTotal, StepDuration, SnapshotsListed,
		SnapshotsDeletedTotal, LastSuccessTimestamp,
	)
}
