package metrics

import "github.com/prometheus/client_golang/prometheus"

// DBPoolStatFunc returns pool statistics of the Postgres state store
// without importing pgxpool.
type DBPoolStatFunc func() (total, idle, acquired int32)

// poolCollector reads pool gauges on every scrape.
type poolCollector struct {
	stats DBPoolStatFunc
}

// NewDBPoolCollector exposes tripboard_db_pool_{total,idle,acquired}_conns.
func NewDBPoolCollector(stats DBPoolStatFunc) prometheus.Collector {
	return &poolCollector{stats: stats}
}

var poolDescs = map[string]*prometheus.Desc{
	"total":    prometheus.NewDesc("tripboard_db_pool_total_conns", "Connections held by the state store pool.", nil, nil),
	"idle":     prometheus.NewDesc("tripboard_db_pool_idle_conns", "Idle connections in the state store pool.", nil, nil),
	"acquired": prometheus.NewDesc("tripboard_db_pool_acquired_conns", "Connections in use by the state store.", nil, nil),
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range poolDescs {
		ch <- d
	}
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	total, idle, acquired := c.stats()
	ch <- prometheus.MustNewConstMetric(poolDescs["total"], prometheus.GaugeValue, float64(total))
	ch <- prometheus.MustNewConstMetric(poolDescs["idle"], prometheus.GaugeValue, float64(idle))
	ch <- prometheus.MustNewConstMetric(poolDescs["acquired"], prometheus.GaugeValue, float64(acquired))
}
