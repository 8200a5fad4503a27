package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счетчики движка диспетчеризации. Все методы безопасны для nil-получателя,
// поэтому компоненты можно собирать без метрик (например, в тестах).
type Metrics struct {
	transitions *prometheus.CounterVec
	autoAssign  *prometheus.CounterVec
	etaLookups  *prometheus.CounterVec
	deliveries  prometheus.Counter
	pruned      prometheus.Counter
	relay       *prometheus.CounterVec
	sweep       *prometheus.CounterVec
	connections prometheus.Gauge
}

// New регистрирует метрики на переданном регистраторе.
// nil означает глобальный регистратор Prometheus.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error

	if m.transitions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safenow_alert_transitions_total",
		Help: "Alert status transitions by source and target status",
	}, []string{"from", "to"})); err != nil {
		return nil, err
	}
	if m.autoAssign, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safenow_auto_assign_total",
		Help: "Auto-assign timer outcomes",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.etaLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safenow_eta_lookups_total",
		Help: "ETA estimates by the source that produced them",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safenow_broadcast_deliveries_total",
		Help: "Events queued to locally connected clients",
	})); err != nil {
		return nil, err
	}
	if m.pruned, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "safenow_broadcast_pruned_clients_total",
		Help: "Clients removed because delivery to them failed",
	})); err != nil {
		return nil, err
	}
	if m.relay, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safenow_relay_messages_total",
		Help: "Cross-instance relay traffic",
	}, []string{"direction", "result"})); err != nil {
		return nil, err
	}
	if m.sweep, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "safenow_sweep_deleted_total",
		Help: "Alerts removed by the periodic sweep",
	}, []string{"reason"})); err != nil {
		return nil, err
	}
	if m.connections, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "safenow_ws_connections",
		Help: "Currently connected realtime clients",
	})); err != nil {
		return nil, err
	}

	return m, nil
}

// register регистрирует коллектор или возвращает уже зарегистрированный
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) AutoAssign(outcome string) {
	if m == nil {
		return
	}
	m.autoAssign.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ETALookup(source string) {
	if m == nil {
		return
	}
	m.etaLookups.WithLabelValues(source).Inc()
}

func (m *Metrics) Delivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deliveries.Add(float64(n))
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}

func (m *Metrics) Relay(direction, result string) {
	if m == nil {
		return
	}
	m.relay.WithLabelValues(direction, result).Inc()
}

func (m *Metrics) Swept(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweep.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) Connections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}
