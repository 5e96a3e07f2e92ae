package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"
	"commentary-ai/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The backend binds to loopback; browser origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunProgressWS streams progress events for one run over a websocket. The
// stream ends when the run reaches a terminal stage or the client leaves.
func (h *Handler) RunProgressWS(c *gin.Context) {
	runId := c.Param("runId")
	if runId == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("RunProgressWS upgrade err", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.Service.Subscribe(runId)
	defer cancel()

	// A run that already ended has no hub to close this subscription; send
	// its terminal state and close right away instead of hanging. The stage
	// is persisted before the hub closes, so checking after subscribing
	// cannot miss a finish in flight.
	if run, err := storage.GetRun(runId); err == nil && run.Stage.Terminal() {
		conn.WriteJSON(types.ProgressEvent{
			RunId:    run.RunId,
			Stage:    run.Stage,
			StageStr: run.Stage.String(),
			Percent:  run.Stage.Progress(),
		})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
		return
	}

	// Reader loop only to observe the client closing the socket.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if err = conn.WriteJSON(event); err != nil {
				log.GetLogger().Debug("RunProgressWS write err",
					zap.String("run_id", runId), zap.Error(err))
				return
			}
		}
	}
}
