package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/smartd/connectivity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type eventResponse struct {
	State string `json:"state"`
}

// handleGetEvents streams every connection state change as it happens,
// starting with the current state.
func (a *Api) handleGetEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Errorf("Could not upgrade events connection: %v", err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		states := make(chan connectivity.State)

		// read pump
		go func() {
			defer cancel()

			c.SetReadLimit(512)
			_ = c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				return c.SetReadDeadline(time.Now().Add(pongWait))
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						a.log.Errorf("unexpected websocket closure: %v", err)
					}
					return
				}
			}
		}()

		// state watcher
		go func() {
			defer close(states)

			reporter := a.portal.Connectivity()
			state := reporter.CurrentState()

			for {
				select {
				case states <- state:
				case <-ctx.Done():
					return
				}

				if !reporter.WaitForStateChange(ctx, state) {
					return
				}

				state = reporter.CurrentState()
			}
		}()

		// write pump
		go func() {
			defer c.Close()
			defer cancel()

			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()

			for {
				select {
				case state, ok := <-states:
					_ = c.SetWriteDeadline(time.Now().Add(writeWait))

					if !ok {
						_ = c.WriteMessage(websocket.CloseMessage, []byte{})
						return
					}

					err := c.WriteJSON(&eventResponse{
						State: state.String(),
					})
					if err != nil {
						return
					}
				case <-ticker.C:
					_ = c.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
	}
}
