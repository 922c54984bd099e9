package pool

import "github.com/prometheus/client_golang/prometheus"

// poolMetrics holds named counters registered against a registry owned by
// the caller, tracking how many times the loader actually ran, how many
// saves and evictions happened, and how many times a caller had to spin
// waiting on another goroutine's load or save.
type poolMetrics struct {
	loads      prometheus.Counter
	loadSpins  prometheus.Counter
	saves      prometheus.Counter
	saveSpins  prometheus.Counter
	evictions  prometheus.Counter
	storeCount prometheus.GaugeFunc
}

func newPoolMetrics(reg prometheus.Registerer, loaded func() float64) *poolMetrics {
	m := &poolMetrics{
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stamd_store_loads_total",
			Help: "Number of times the annotation-store loader actually ran.",
		}),
		loadSpins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stamd_store_load_wait_spins_total",
			Help: "Number of times a caller spun waiting for another goroutine's load.",
		}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stamd_store_saves_total",
			Help: "Number of times a dirty store was actually written to disk.",
		}),
		saveSpins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stamd_store_wait_ready_spins_total",
			Help: "Number of times a caller spun waiting for a load or save to finish.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stamd_store_evictions_total",
			Help: "Number of stores unloaded by the janitor or an explicit flush.",
		}),
	}
	m.storeCount = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "stamd_stores_loaded",
		Help: "Number of annotation stores currently resident in memory.",
	}, loaded)

	if reg != nil {
		reg.MustRegister(m.loads, m.loadSpins, m.saves, m.saveSpins, m.evictions, m.storeCount)
	}
	return m
}
