package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStater reports pool statistics. *pgxpool.Pool satisfies it.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus gauges.
func RegisterPgxPoolMetrics(reg prometheus.Registerer, pool PoolStater) {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "billing",
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return value(pool.Stat())
		})
	}

	reg.MustRegister(
		gauge("acquired_conns", "Number of currently acquired connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("max_conns", "Maximum number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
		gauge("total_conns", "Total number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("idle_conns", "Number of idle connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("empty_acquire_total", "Acquires that waited for a connection because the pool was empty",
			func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
	)
}
