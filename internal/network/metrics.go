package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NetworkMetrics — Prometheus-метрики сетевой подсистемы.
type NetworkMetrics struct {
	connectedClients prometheus.Gauge
	messagesIn       *prometheus.CounterVec
	messagesOut      *prometheus.CounterVec
	bytesOut         prometheus.Counter
	chunksSent       prometheus.Counter
	protocolErrors   prometheus.Counter
}

// NewNetworkMetrics создаёт и регистрирует метрики в глобальном регистре.
// Вызывается один раз за процесс.
func NewNetworkMetrics() *NetworkMetrics {
	nm := &NetworkMetrics{
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "network",
			Name:      "connected_clients",
			Help:      "Число подключённых KCP клиентов.",
		}),
		messagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "network",
			Name:      "messages_received_total",
			Help:      "Принятые сообщения по типам.",
		}, []string{"type"}),
		messagesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "network",
			Name:      "messages_sent_total",
			Help:      "Отправленные сообщения по типам.",
		}, []string{"type"}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network",
			Name:      "bytes_sent_total",
			Help:      "Всего отправлено байт.",
		}),
		chunksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network",
			Name:      "chunks_sent_total",
			Help:      "Всего отправлено чанков.",
		}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network",
			Name:      "protocol_errors_total",
			Help:      "Ошибки разбора входящих кадров.",
		}),
	}

	prometheus.MustRegister(nm.connectedClients, nm.messagesIn, nm.messagesOut,
		nm.bytesOut, nm.chunksSent, nm.protocolErrors)
	return nm
}

func (nm *NetworkMetrics) clientConnected()    { nm.connectedClients.Inc() }
func (nm *NetworkMetrics) clientDisconnected() { nm.connectedClients.Dec() }

func (nm *NetworkMetrics) recordReceived(msgType string) {
	nm.messagesIn.WithLabelValues(msgType).Inc()
}

func (nm *NetworkMetrics) recordSent(msgType string, size int) {
	nm.messagesOut.WithLabelValues(msgType).Inc()
	nm.bytesOut.Add(float64(size))
}

func (nm *NetworkMetrics) recordChunkSent() { nm.chunksSent.Inc() }
func (nm *NetworkMetrics) recordError()     { nm.protocolErrors.Inc() }
