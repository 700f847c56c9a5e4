package todos

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics exposes gauges for the number of stored todos and how many
// of them are completed. Both are computed from l on every scrape.
func RegisterMetrics(reg prometheus.Registerer, l Lister) error {
	count := func(onlyCompleted bool) float64 {
		all, err := l.List()
		if err != nil {
			return 0
		}
		n := 0
		for _, t := range all {
			if !onlyCompleted || t.Completed {
				n++
			}
		}
		return float64(n)
	}

	records := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "todos_records",
		Help: "Number of stored todos",
	}, func() float64 { return count(false) })

	completed := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "todos_completed_records",
		Help: "Number of stored todos marked completed",
	}, func() float64 { return count(true) })

	for _, c := range []prometheus.Collector{records, completed} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
