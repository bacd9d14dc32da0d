package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolMetric pairs a Prometheus descriptor with the pgxpool.Stat reader that
// produces its value.
type poolMetric struct {
	desc *prometheus.Desc
	kind prometheus.ValueType
	read func(*pgxpool.Stat) float64
}

// poolStatsCollector exports pgxpool statistics under db_pool_* metric names,
// labelled by service.
type poolStatsCollector struct {
	pool    *pgxpool.Pool
	service string
	metrics []poolMetric
}

func newPoolStatsCollector(pool *pgxpool.Pool, service string) *poolStatsCollector {
	metric := func(name, help string, kind prometheus.ValueType, read func(*pgxpool.Stat) float64) poolMetric {
		return poolMetric{
			desc: prometheus.NewDesc(name, help, []string{"service"}, nil),
			kind: kind,
			read: read,
		}
	}
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue

	return &poolStatsCollector{
		pool:    pool,
		service: service,
		metrics: []poolMetric{
			metric("db_pool_acquired_connections", "Connections currently checked out.", gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			metric("db_pool_idle_connections", "Connections sitting idle in the pool.", gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			metric("db_pool_total_connections", "All connections the pool currently holds.", gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			metric("db_pool_max_connections", "Configured pool ceiling.", gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
			metric("db_pool_constructing_connections", "Connections being established right now.", gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.ConstructingConns()) }),
			metric("db_pool_acquire_count_total", "Connection acquires since startup.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			metric("db_pool_acquire_duration_seconds_total", "Cumulative time spent acquiring connections.", counter,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			metric("db_pool_canceled_acquire_count_total", "Acquires abandoned because their context ended.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }),
			metric("db_pool_empty_acquire_count_total", "Acquires that had to wait for a free connection.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			metric("db_pool_new_connections_total", "Connections opened since startup.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.NewConnsCount()) }),
			metric("db_pool_max_lifetime_destroy_total", "Connections closed for exceeding max lifetime.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxLifetimeDestroyCount()) }),
			metric("db_pool_max_idle_destroy_total", "Connections closed for exceeding max idle time.", counter,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxIdleDestroyCount()) }),
		},
	}
}

func (c *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *poolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.read(stat), c.service)
	}
}

// RegisterPoolMetrics registers a pgxpool stats collector with the default
// Prometheus registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(newPoolStatsCollector(pool, service))
}
