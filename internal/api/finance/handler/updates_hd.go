package financeHandler

import (
	"GymFinance/internal/api/finance"
	"GymFinance/internal/middleware"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	updatesReadTimeout  = 60 * time.Second
	updatesWriteTimeout = 10 * time.Second

	UpdateTypeSnapshot = "snapshot"
	UpdateTypeSlice    = "slice"
)

func (h *FinanceHandler) handleUpdates(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	logger := h.log.WithField("request_id", requestID)

	logger.Info("Finance updates client connected")
	defer logger.Info("Finance updates client disconnected")

	events, unsubscribe := h.financeStore.Subscribe()
	defer unsubscribe()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.WithField("error", err.Error()).Error("Error sending pong")
		}
		return nil
	})

	done := make(chan struct{})
	go h.readUntilClosed(c, logger, done)

	snapshot := toSnapshotResponse(h.financeStore.Snapshot())
	if err := h.writeUpdate(c, logger, finance.UpdateMessage{Type: UpdateTypeSnapshot, Snapshot: &snapshot}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				_ = c.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "finance store stopped"),
					time.Now().Add(updatesWriteTimeout))
				return
			}

			snapshot := toSnapshotResponse(h.financeStore.Snapshot())
			msg := finance.UpdateMessage{
				Type:     UpdateTypeSlice,
				Slice:    string(event.Slice),
				Status:   string(event.Status),
				Error:    event.Error,
				Snapshot: &snapshot,
			}
			if err := h.writeUpdate(c, logger, msg); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so control messages are handled, and
// closes done once the connection is gone.
func (h *FinanceHandler) readUntilClosed(c *websocket.Conn, logger *logrus.Entry, done chan<- struct{}) {
	defer close(done)

	for {
		if err := c.SetReadDeadline(time.Now().Add(updatesReadTimeout)); err != nil {
			logger.WithField("error", err.Error()).Error("Error setting read deadline")
			return
		}

		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithField("error", err.Error()).Error("Finance updates socket error")
			} else {
				logger.Debug("Finance updates socket closed")
			}
			return
		}
	}
}

func (h *FinanceHandler) writeUpdate(c *websocket.Conn, logger *logrus.Entry, msg finance.UpdateMessage) error {
	if err := c.SetWriteDeadline(time.Now().Add(updatesWriteTimeout)); err != nil {
		logger.WithField("error", err.Error()).Error("Error setting write deadline")
		return err
	}

	if err := c.WriteJSON(msg); err != nil {
		logger.WithField("error", err.Error()).Error("Error writing finance update")
		return err
	}

	return c.SetWriteDeadline(time.Time{})
}
