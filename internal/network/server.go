package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	kcp "github.com/xtaci/kcp-go/v5"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ChunkProvider отдаёт чанки и принимает записи блоков от имени
// серверного мира. Реализация обязана быть потокобезопасной: сервер
// зовёт её из горутин всех клиентов.
type ChunkProvider interface {
	Chunk(pos vec.ChunkPos) (*world.Chunk, error)
	SetBlock(pos vec.BlockPos, b block.ID) error
	ZoneName() string
}

// ChunkServer стримит чанки клиентам по KCP. Клиент запрашивает чанки
// явно (ChunkRequest); изменения блоков рассылаются всем подключённым.
type ChunkServer struct {
	addr     string
	provider ChunkProvider
	metrics  *NetworkMetrics
	logger   *logging.Logger

	listener *kcp.Listener
	clients  map[string]*clientConn
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// clientConn — одно клиентское KCP соединение с собственным мьютексом
// записи: кадры не должны перемешиваться.
type clientConn struct {
	id      string
	session *kcp.UDPSession
	writeMu sync.Mutex
}

func (c *clientConn) send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.session.Write(frame)
	return err
}

// NewChunkServer создаёт сервер. metrics может быть nil (без метрик).
func NewChunkServer(addr string, provider ChunkProvider, metrics *NetworkMetrics) *ChunkServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChunkServer{
		addr:     addr,
		provider: provider,
		metrics:  metrics,
		logger:   logging.GetNetworkLogger(),
		clients:  make(map[string]*clientConn),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start начинает слушать и принимать клиентов. Неблокирующий.
func (s *ChunkServer) Start() error {
	listener, err := kcp.ListenWithOptions(s.addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("ошибка kcp listen %s: %w", s.addr, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("Сервер чанков запущен: kcp://%s", s.addr)
	return nil
}

// Stop останавливает сервер и закрывает все соединения.
func (s *ChunkServer) Stop() {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for _, c := range s.clients {
		c.session.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Сервер чанков остановлен")
}

// ClientCount возвращает число подключённых клиентов.
func (s *ChunkServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Addr возвращает фактический адрес слушателя (полезно при порте 0).
func (s *ChunkServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *ChunkServer) acceptLoop() {
	defer s.wg.Done()

	for {
		session, err := s.listener.AcceptKCP()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Ошибка accept: %v", err)
				continue
			}
		}

		configureSession(session)

		client := &clientConn{
			id:      session.RemoteAddr().String(),
			session: session,
		}
		s.mu.Lock()
		s.clients[client.id] = client
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.clientConnected()
		}
		s.logger.Info("Клиент подключен: %s", client.id)

		s.wg.Add(1)
		go s.serveClient(client)
	}
}

// configureSession задаёт параметры KCP для игрового трафика.
func configureSession(session *kcp.UDPSession) {
	session.SetStreamMode(true)
	session.SetWriteDelay(false)
	session.SetNoDelay(1, 20, 2, 1)
	session.SetWindowSize(512, 512)
	session.SetMtu(1400)
}

func (s *ChunkServer) serveClient(client *clientConn) {
	defer s.wg.Done()
	defer s.dropClient(client)

	for {
		frame, err := protocol.ReadFrame(client.session)
		if err != nil {
			select {
			case <-s.ctx.Done():
			default:
				s.logger.Debug("Клиент %s отключился: %v", client.id, err)
			}
			return
		}

		msgType, msg, err := protocol.DecodeMessage(frame)
		if err != nil {
			if s.metrics != nil {
				s.metrics.recordError()
			}
			logging.LogProtocolError(client.id, err, frame)
			continue
		}
		if s.metrics != nil {
			s.metrics.recordReceived(msgType.String())
		}

		s.handleMessage(client, msgType, msg)
	}
}

func (s *ChunkServer) handleMessage(client *clientConn, msgType protocol.MsgType, msg interface{}) {
	switch m := msg.(type) {
	case *protocol.ChunkRequest:
		s.handleChunkRequest(client, m.Pos)
	case *protocol.BlockUpdate:
		s.handleBlockUpdate(client, m)
	default:
		if msgType == protocol.MsgPing {
			s.sendFrame(client, protocol.MsgPong.String(), protocol.EncodePong())
		}
	}
}

func (s *ChunkServer) handleChunkRequest(client *clientConn, pos vec.ChunkPos) {
	logging.LogChunkRequest(client.id, pos)

	chunk, err := s.provider.Chunk(pos)
	if err != nil {
		s.sendError(client, fmt.Sprintf("чанк %v недоступен: %v", pos, err))
		return
	}

	frame, err := protocol.EncodeMessage(&protocol.LoadChunk{Pos: pos, Chunk: chunk})
	if err != nil {
		s.logger.Error("Ошибка кодирования чанка %v: %v", pos, err)
		return
	}
	if s.sendFrame(client, protocol.MsgLoadChunk.String(), frame) {
		if s.metrics != nil {
			s.metrics.recordChunkSent()
		}
		logging.LogChunkData(client.id, pos, len(chunk.Palette()))

		if ev, err := eventbus.NewChunkLoadedEvent("chunk-server", s.provider.ZoneName(), pos); err == nil {
			_ = eventbus.Publish(s.ctx, ev)
		}
	}
}

func (s *ChunkServer) handleBlockUpdate(client *clientConn, m *protocol.BlockUpdate) {
	if err := s.provider.SetBlock(m.Pos, m.Block); err != nil {
		var oob *world.BlockOutOfBoundsError
		if errors.As(err, &oob) {
			s.sendError(client, fmt.Sprintf("блок %v вне зоны", m.Pos))
			return
		}
		s.sendError(client, fmt.Sprintf("запись блока %v: %v", m.Pos, err))
		return
	}

	// Подтверждённое изменение рассылается всем, включая автора.
	frame, err := protocol.EncodeMessage(m)
	if err != nil {
		s.logger.Error("Ошибка кодирования BlockUpdate: %v", err)
		return
	}
	s.broadcast(protocol.MsgBlockUpdate.String(), frame)

	if ev, err := eventbus.NewBlockUpdatedEvent("chunk-server", s.provider.ZoneName(), m.Pos, m.Block); err == nil {
		_ = eventbus.Publish(s.ctx, ev)
	}
}

func (s *ChunkServer) broadcast(msgType string, frame []byte) {
	s.mu.RLock()
	clients := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.sendFrame(c, msgType, frame)
	}
}

func (s *ChunkServer) sendError(client *clientConn, text string) {
	frame, err := protocol.EncodeMessage(&protocol.ErrorMessage{Text: text})
	if err != nil {
		return
	}
	s.sendFrame(client, protocol.MsgError.String(), frame)
}

func (s *ChunkServer) sendFrame(client *clientConn, msgType string, frame []byte) bool {
	if err := client.send(frame); err != nil {
		s.logger.Debug("Ошибка записи клиенту %s: %v", client.id, err)
		return false
	}
	if s.metrics != nil {
		s.metrics.recordSent(msgType, len(frame))
	}
	return true
}

func (s *ChunkServer) dropClient(client *clientConn) {
	s.mu.Lock()
	if _, ok := s.clients[client.id]; ok {
		delete(s.clients, client.id)
		if s.metrics != nil {
			s.metrics.clientDisconnected()
		}
	}
	s.mu.Unlock()
	client.session.Close()
}
