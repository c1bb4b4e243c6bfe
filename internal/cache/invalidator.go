package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
)

// InvalidationHandler обрабатывает уведомление об инвалидации ключа.
type InvalidationHandler func(key string) error

// Invalidator рассылает инвалидации кеша чанков между узлами через
// NATS Pub/Sub. Сообщения дедуплицируются в скользящем окне, свои
// собственные сообщения игнорируются.
type Invalidator struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	dedupe  time.Duration

	subscription *nats.Subscription
	handler      InvalidationHandler

	stopCh chan struct{}
	wg     sync.WaitGroup

	recentKeys map[string]time.Time
	keysMutex  sync.RWMutex

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// invalidationMessage — формат сообщения на проводе.
type invalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

const defaultInvalidationSubject = "world.cache.invalidate"

// NewInvalidator подключается к NATS. nodeID должен быть уникален
// среди узлов, иначе чужие инвалидации будут отброшены как свои.
func NewInvalidator(natsURL, subject, nodeID string) (*Invalidator, error) {
	if subject == "" {
		subject = defaultInvalidationSubject
	}

	opts := []nats.Option{
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS отключён: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS переподключён к %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к NATS: %w", err)
	}

	inv := &Invalidator{
		conn:       conn,
		subject:    subject,
		nodeID:     nodeID,
		dedupe:     5 * time.Second,
		stopCh:     make(chan struct{}),
		recentKeys: make(map[string]time.Time),
	}
	inv.startDedupeCleanup()

	logging.Info("Инвалидатор кеша подключён: %s (subject %s)", natsURL, subject)
	return inv, nil
}

// PublishChunk рассылает инвалидацию одного чанка.
func (n *Invalidator) PublishChunk(ctx context.Context, zone world.ZoneID, pos vec.ChunkPos) error {
	return n.Publish(ctx, CacheKey(zone, pos))
}

// Publish рассылает инвалидацию произвольного ключа кеша.
func (n *Invalidator) Publish(ctx context.Context, key string) error {
	if n.isDuplicate(key) {
		return nil
	}

	msg := &invalidationMessage{
		Key:       key,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("ошибка сериализации инвалидации: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("ошибка публикации инвалидации: %w", err)
	}

	n.recordKey(key)
	atomic.AddInt64(&n.publishedCount, 1)
	return nil
}

// Subscribe подписывается на инвалидации от других узлов.
// Подписка снимается при отмене ctx или Close.
func (n *Invalidator) Subscribe(ctx context.Context, handler InvalidationHandler) error {
	if n.subscription != nil {
		return fmt.Errorf("подписка уже оформлена")
	}

	n.handler = handler

	sub, err := n.conn.Subscribe(n.subject, n.handleMessage)
	if err != nil {
		return fmt.Errorf("ошибка подписки на инвалидации: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
			n.unsubscribe()
		case <-n.stopCh:
			n.unsubscribe()
		}
	}()

	return nil
}

// Close закрывает соединение с NATS.
func (n *Invalidator) Close() error {
	close(n.stopCh)
	n.wg.Wait()
	n.unsubscribe()
	n.conn.Close()
	return nil
}

// GetMetrics возвращает счётчики инвалидатора.
func (n *Invalidator) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"published_count": atomic.LoadInt64(&n.publishedCount),
		"received_count":  atomic.LoadInt64(&n.receivedCount),
		"errors_count":    atomic.LoadInt64(&n.errorsCount),
		"connected":       n.conn.IsConnected(),
	}
}

func (n *Invalidator) handleMessage(msg *nats.Msg) {
	atomic.AddInt64(&n.receivedCount, 1)

	var im invalidationMessage
	if err := json.Unmarshal(msg.Data, &im); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Ошибка разбора сообщения инвалидации: %v", err)
		return
	}

	// Свои сообщения и дубликаты не обрабатываем.
	if im.NodeID == n.nodeID || n.isDuplicate(im.Key) {
		return
	}
	n.recordKey(im.Key)

	if n.handler != nil {
		if err := n.handler(im.Key); err != nil {
			atomic.AddInt64(&n.errorsCount, 1)
			logging.Error("Обработчик инвалидации для %s: %v", im.Key, err)
		}
	}
}

func (n *Invalidator) unsubscribe() {
	if n.subscription != nil {
		n.subscription.Unsubscribe()
		n.subscription = nil
	}
}

func (n *Invalidator) isDuplicate(key string) bool {
	n.keysMutex.RLock()
	defer n.keysMutex.RUnlock()

	lastSeen, exists := n.recentKeys[key]
	return exists && time.Since(lastSeen) < n.dedupe
}

func (n *Invalidator) recordKey(key string) {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()
	n.recentKeys[key] = time.Now()
}

func (n *Invalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ticker := time.NewTicker(n.dedupe)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n.cleanupDedupe()
			case <-n.stopCh:
				return
			}
		}
	}()
}

func (n *Invalidator) cleanupDedupe() {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()

	now := time.Now()
	for key, ts := range n.recentKeys {
		if now.Sub(ts) > n.dedupe {
			delete(n.recentKeys, key)
		}
	}
}
