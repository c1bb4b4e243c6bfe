package network

import (
	"context"
	"fmt"
	"sync"

	kcp "github.com/xtaci/kcp-go/v5"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Client — KCP клиент сервера чанков. Полученные чанки и обновления
// блоков складываются в ChunkApplier; его зона — клиентская копия мира.
type Client struct {
	session *kcp.UDPSession
	applier *ChunkApplier
	logger  *logging.Logger

	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// OnError вызывается на MsgError от сервера.
	OnError func(text string)
}

// Dial подключается к серверу и запускает приём сообщений.
func Dial(addr string) (*Client, error) {
	session, err := kcp.DialWithOptions(addr, nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка kcp dial %s: %w", addr, err)
	}
	configureSession(session)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		session: session,
		applier: NewChunkApplier(),
		logger:  logging.GetNetworkLogger(),
		cancel:  cancel,
	}

	c.wg.Add(1)
	go c.receiveLoop(ctx)

	c.logger.Info("Подключение к серверу чанков: %s", addr)
	return c, nil
}

// Applier возвращает applier с клиентской зоной.
func (c *Client) Applier() *ChunkApplier {
	return c.applier
}

// RequestChunk просит сервер прислать чанк.
func (c *Client) RequestChunk(pos vec.ChunkPos) error {
	frame, err := protocol.EncodeMessage(&protocol.ChunkRequest{Pos: pos})
	if err != nil {
		return err
	}
	return c.send(frame)
}

// SendBlockUpdate отправляет изменение блока на сервер. Локальная зона
// не трогается: сервер разошлёт подтверждённое обновление сам.
func (c *Client) SendBlockUpdate(pos vec.BlockPos, b block.ID) error {
	frame, err := protocol.EncodeMessage(&protocol.BlockUpdate{Pos: pos, Block: b})
	if err != nil {
		return err
	}
	return c.send(frame)
}

// Ping отправляет пинг.
func (c *Client) Ping() error {
	return c.send(protocol.EncodePing())
}

// Close разрывает соединение.
func (c *Client) Close() error {
	c.cancel()
	err := c.session.Close()
	c.wg.Wait()
	return err
}

func (c *Client) send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.session.Write(frame)
	return err
}

func (c *Client) receiveLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		frame, err := protocol.ReadFrame(c.session)
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				c.logger.Debug("Соединение закрыто: %v", err)
			}
			return
		}

		msgType, msg, err := protocol.DecodeMessage(frame)
		if err != nil {
			logging.LogProtocolError("server", err, frame)
			continue
		}

		if em, ok := msg.(*protocol.ErrorMessage); ok {
			c.logger.Warn("Ошибка от сервера: %s", em.Text)
			if c.OnError != nil {
				c.OnError(em.Text)
			}
			continue
		}

		if err := c.applier.Apply(msgType, msg); err != nil {
			c.logger.Debug("Сообщение %s пропущено: %v", msgType, err)
		}
	}
}
