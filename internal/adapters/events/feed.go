package events

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
)

// Websocket feed timing constants.
const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Feed serves the live event stream over websocket so an external indexer
// can reconstruct state without polling.
type Feed struct {
	bus      *Bus
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewFeed creates a Feed over bus.
func NewFeed(bus *Bus, log logger.Logger) *Feed {
	return &Feed{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Indexers connect from their own origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleStream upgrades the connection and forwards events until the client
// disconnects or the bus closes.
func (f *Feed) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	sub, cancel := f.bus.Subscribe()
	defer cancel()

	// Drain client frames so pong handling and close frames work.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
