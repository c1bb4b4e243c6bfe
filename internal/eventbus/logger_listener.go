package eventbus

import (
	"context"

	"github.com/annel0/voxel-world/internal/logging"
)

// StartLoggingListener подписывается на все события шины и пишет их в
// стандартный лог. Массовые события мира (block.updated, chunk.loaded)
// идут на уровне Trace, чтобы не затапливать лог при активной игре;
// редкие события зон — на Debug. Функция неблокирующая.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		switch ev.EventType {
		case EventBlockUpdated, EventChunkLoaded:
			logging.Trace("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
		default:
			logging.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
		}
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 LoggingListener: подписка на все события активирована")
	return nil
}
