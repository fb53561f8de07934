package network

import (
	"errors"
	"net/http"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "blockverse"

// Metrics метрики сервера и мира в Prometheus.
// Реализует world.Observer, поэтому передается в world.Open через world.WithObserver.
type Metrics struct {
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected prometheus.Counter
	ActiveConnections   prometheus.Gauge
	PlayersOnline       prometheus.Gauge
	PacketsReceived     *prometheus.CounterVec
	UnhandledPackets    *prometheus.CounterVec
	ProtocolErrors      prometheus.Counter
	ChunksSent          prometheus.Counter

	ChunksGeneratedTotal prometheus.Counter
	RegionsLoadedTotal   prometheus.Counter
	RegionsSavedTotal    prometheus.Counter
}

// NewMetrics создает метрики и регистрирует их в reg.
// В тестах передается отдельный prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connections_total",
			Help:      "Общее число принятых TCP соединений.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connections_rejected_total",
			Help:      "Соединения, отклоненные ограничителем частоты.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_connections",
			Help:      "Открытые соединения во всех состояниях.",
		}),
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "players_online",
			Help:      "Игроки в состоянии Play.",
		}),
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_received_total",
			Help:      "Принятые кадры по состоянию соединения.",
		}, []string{"state"}),
		UnhandledPackets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_unhandled_total",
			Help:      "Кадры с id, для которого нет декодера.",
		}, []string{"state"}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "protocol_errors_total",
			Help:      "Соединения, закрытые из-за ошибки протокола.",
		}),
		ChunksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chunks_sent_total",
			Help:      "Отправленные клиентам пакеты чанков.",
		}),
		ChunksGeneratedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "world",
			Name:      "chunks_generated_total",
			Help:      "Сгенерированные чанки.",
		}),
		RegionsLoadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "world",
			Name:      "regions_loaded_total",
			Help:      "Регионы, загруженные с диска или созданные пустыми.",
		}),
		RegionsSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "world",
			Name:      "regions_saved_total",
			Help:      "Записанные файлы регионов.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsRejected,
		m.ActiveConnections,
		m.PlayersOnline,
		m.PacketsReceived,
		m.UnhandledPackets,
		m.ProtocolErrors,
		m.ChunksSent,
		m.ChunksGeneratedTotal,
		m.RegionsLoadedTotal,
		m.RegionsSavedTotal,
	)
	return m
}

func (m *Metrics) ChunkGenerated() { m.ChunksGeneratedTotal.Inc() }
func (m *Metrics) RegionLoaded()   { m.RegionsLoadedTotal.Inc() }
func (m *Metrics) RegionSaved()    { m.RegionsSavedTotal.Inc() }

func (m *Metrics) packetReceived(state protocol.State) {
	m.PacketsReceived.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) packetUnhandled(state protocol.State) {
	m.UnhandledPackets.WithLabelValues(state.String()).Inc()
}

// StartMetricsServer поднимает /metrics на addr в отдельной горутине.
// Остановка через Shutdown у возвращенного сервера.
func StartMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
