package webd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/event"
	"github.com/olahol/melody"
	"github.com/rotblauer/catglobe/levels"
)

type websocketAction string

var (
	websocketActionHello    websocketAction = "hello"
	websocketActionNewTiles websocketAction = "tiles"
)

type broadcast struct {
	Action      websocketAction  `json:"action"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	NumLevels   int              `json:"numLevels,omitempty"`
	Tiles       []levels.Address `json:"tiles,omitempty"`
}

// initMelody sets up the websocket handler and installs it as the daemon's current one.
func (s *WebDaemon) initMelody() *melody.Melody {
	m := melody.New()
	hello, _ := json.Marshal(broadcast{
		Action:      websocketActionHello,
		Fingerprint: fmt.Sprintf("%016x", s.LevelSet.Fingerprint()),
		NumLevels:   s.LevelSet.NumLevels(),
	})

	m.HandleConnect(func(session *melody.Session) {
		s.logger.Info("Websocket connected", "remote", session.Request.RemoteAddr)
		_ = session.Write(hello)
	})

	// Clients have nothing to say. Log and drop.
	m.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "msg", string(msg))
	})

	m.HandleDisconnect(func(session *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	m.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", session.Request.RemoteAddr, "error", e)
	})

	var sub event.Subscription
	fresh := make(chan []levels.Address)
	if s.Indexer != nil {
		sub = s.Indexer.SubscribeNewTiles(fresh)
	}

	s.mu.Lock()
	old := s.newTilesSub
	s.melodyInstance = m
	s.newTilesSub = sub
	s.mu.Unlock()
	if old != nil {
		old.Unsubscribe()
	}
	if sub == nil {
		return m
	}

	// Broadcast first-seen tiles to all connected clients as the indexer finds them.
	go func() {
		for {
			select {
			case tiles := <-fresh:
				b, err := json.Marshal(broadcast{Action: websocketActionNewTiles, Tiles: tiles})
				if err != nil {
					slog.Error("Failed to marshal new tiles event", "error", err)
					continue
				}
				if err := m.Broadcast(b); err != nil && !m.IsClosed() {
					s.logger.Warn("Failed to broadcast new tiles event", "error", err)
				}
			case <-sub.Err():
				return
			}
		}
	}()
	return m
}
