package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commentary-ai/config"
	"commentary-ai/internal/pipeline"
	"commentary-ai/internal/storage"
	"commentary-ai/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialProgressWS(t *testing.T, h *Handler, runId string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/commentary/run/:runId/progress", h.RunProgressWS)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/commentary/run/" + runId + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRunProgressWSClosesForFinishedRun(t *testing.T) {
	setupTestDB(t)
	saved := config.Conf
	t.Cleanup(func() { config.Conf = saved })
	config.Conf = config.Config{}

	svc, err := pipeline.NewService()
	require.NoError(t, err)

	require.NoError(t, storage.SaveRun(&types.PipelineRun{
		RunId:     "run-done",
		VideoPath: "in.mp4",
		Stage:     types.StageSucceeded,
	}))

	conn := dialProgressWS(t, &Handler{Service: svc}, "run-done")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// One terminal event, then a normal close instead of an open stream.
	var event types.ProgressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "run-done", event.RunId)
	assert.Equal(t, types.StageSucceeded, event.Stage)
	assert.EqualValues(t, 100, event.Percent)

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}
