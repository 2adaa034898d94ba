package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// El dashboard se sirve desde otro origen, así que el upgrade acepta
// cualquier Origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS empuja el snapshot completo al cliente cada PushInterval, con un
// primer frame inmediato. El cliente no manda nada útil: el reader solo
// drena frames de control hasta que la conexión muera.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	slog.Debug("websocket client connected", "remote", conn.RemoteAddr().String())

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.PushInterval)
	defer ticker.Stop()

	for {
		// Deadline con reloj real: cfg.Now puede ser un reloj de test.
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(s.snapshot(r)); err != nil {
			slog.Debug("websocket push failed", "err", err)
			return
		}

		select {
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		case <-s.baseContext().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) snapshot(r *http.Request) snapshotView {
	return snapshotView{
		Status:  s.statusView(),
		Prices:  s.pricesView(r.Context()),
		Orders:  s.ordersView(),
		Trades:  s.tradesView(""),
		Metrics: s.metricsResponseView(),
	}
}
