// Package metrics 把流水线运行结果导出为 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lwmacct/251215-go-pkg-sieve/pkg/sieve"
)

// ═══════════════════════════════════════════════════════════════════════════
// 指标收集器
// ═══════════════════════════════════════════════════════════════════════════

const (
	statusOK    = "ok"
	statusError = "error"
)

// Collector 记录每次流水线运行，实现 sieve.Recorder
type Collector struct {
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram

	agentsSpawned        prometheus.Counter
	candidatesDispatched prometheus.Counter
	messagesProcessed    prometheus.Counter
	deadLetters          prometheus.Counter

	lastPrimeCount prometheus.Gauge
}

var _ sieve.Recorder = (*Collector)(nil)

// NewCollector 创建收集器并注册到 reg，reg 为 nil 时使用默认注册表
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of sieve pipeline runs",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Sieve pipeline run duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		agentsSpawned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agents_spawned_total",
				Help:      "Total number of filter agents spawned",
			},
		),
		candidatesDispatched: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_dispatched_total",
				Help:      "Total number of candidates sent to pipeline heads",
			},
		),
		messagesProcessed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_processed_total",
				Help:      "Total number of actor messages processed",
			},
		),
		deadLetters: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dead_letters_total",
				Help:      "Total number of undeliverable actor messages",
			},
		),
		lastPrimeCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_prime_count",
				Help:      "Prime count of the most recent successful run",
			},
		),
	}
}

// ObserveRun 实现 sieve.Recorder 接口
func (c *Collector) ObserveRun(res *sieve.Result, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	c.runsTotal.WithLabelValues(status).Inc()

	if res == nil {
		return
	}
	c.runDuration.Observe(res.Duration.Seconds())
	c.agentsSpawned.Add(float64(res.Stats.Spawned))
	c.messagesProcessed.Add(float64(res.Stats.Processed))
	c.deadLetters.Add(float64(res.Stats.DeadLetters))

	if err != nil {
		return
	}
	if len(res.Agents) > 0 {
		c.candidatesDispatched.Add(float64(res.Agents[0].Received))
	}
	c.lastPrimeCount.Set(float64(res.Count))
}
