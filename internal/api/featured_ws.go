package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/car-marketplace/internal/catalog"
	"github.com/terra-clan/car-marketplace/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Carousel message types
const (
	carouselNext  = "next"
	carouselPrev  = "prev"
	carouselPage  = "page"
	carouselError = "error"
)

// CarouselCommand is sent by the client to move the featured carousel
type CarouselCommand struct {
	Type string `json:"type"`
	Page int    `json:"page"`
}

// CarouselFrame is pushed to the client after every move
type CarouselFrame struct {
	Type  string                    `json:"type"`
	Data  *catalog.Page[models.Car] `json:"data,omitempty"`
	Error string                    `json:"error,omitempty"`
}

// handleFeaturedWS streams featured car pages. The client steps through them with
// next/prev/page commands; with ?interval=5s the server also advances on its own.
func (s *Server) handleFeaturedWS(w http.ResponseWriter, r *http.Request) {
	_, size, err := pageParams(r, s.featuredPageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if size <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_argument", "page_size must be positive")
		return
	}

	var interval time.Duration
	if raw := r.URL.Query().Get("interval"); raw != "" {
		if interval, err = time.ParseDuration(raw); err != nil || interval <= 0 {
			respondError(w, http.StatusBadRequest, "validation_error", "interval must be a positive duration")
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("featured websocket connected", "remote_addr", r.RemoteAddr)

	featured := catalog.FilterFeatured(s.catalog.Cars())
	index := 0

	show := func(target int) error {
		page, err := catalog.Paginate(featured, size, target)
		if err != nil {
			return s.sendCarouselFrame(conn, CarouselFrame{Type: carouselError, Error: err.Error()})
		}
		index = page.Page
		return s.sendCarouselFrame(conn, CarouselFrame{Type: carouselPage, Data: &page})
	}

	if err := show(index); err != nil {
		return
	}

	// Only this goroutine reads; all writes happen below
	commands := make(chan CarouselCommand)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var cmd CarouselCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				slog.Debug("invalid message format", "error", err)
				cmd = CarouselCommand{}
			}

			select {
			case commands <- cmd:
			case <-r.Context().Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		var err error

		select {
		case <-done:
			slog.Info("featured websocket disconnected", "remote_addr", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case <-tick:
			err = show(index + 1)
		case cmd := <-commands:
			switch cmd.Type {
			case carouselNext:
				err = show(index + 1)
			case carouselPrev:
				err = show(index - 1)
			case carouselPage:
				err = show(cmd.Page)
			default:
				err = s.sendCarouselFrame(conn, CarouselFrame{Type: carouselError, Error: "unknown command: " + cmd.Type})
			}
		}

		if err != nil {
			return
		}
	}
}

func (s *Server) sendCarouselFrame(conn *websocket.Conn, frame CarouselFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal carousel frame", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send carousel frame", "error", err)
		return err
	}
	return nil
}
