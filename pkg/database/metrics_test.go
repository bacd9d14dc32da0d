package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ prometheus.Collector = (*poolStatsCollector)(nil)

func describedDescs(c *poolStatsCollector) []string {
	ch := make(chan *prometheus.Desc, len(c.metrics))
	c.Describe(ch)
	close(ch)

	var descs []string
	for d := range ch {
		descs = append(descs, d.String())
	}
	return descs
}

func TestPoolStatsCollector_DescribesEveryPoolStat(t *testing.T) {
	c := newPoolStatsCollector(nil, "pos-backend")
	descs := describedDescs(c)
	require.Len(t, descs, 12)

	for _, want := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_constructing_connections",
		"db_pool_acquire_count_total",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_canceled_acquire_count_total",
		"db_pool_empty_acquire_count_total",
		"db_pool_new_connections_total",
		"db_pool_max_lifetime_destroy_total",
		"db_pool_max_idle_destroy_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d, want) {
				found = true
				break
			}
		}
		assert.True(t, found, "missing descriptor %s", want)
	}
}

func TestPoolStatsCollector_EveryDescCarriesServiceLabel(t *testing.T) {
	for _, d := range describedDescs(newPoolStatsCollector(nil, "pos-backend")) {
		assert.Contains(t, d, "service")
	}
}
