package router

import (
	"github.com/gin-gonic/gin"

	"commentary-ai/internal/handler"
)

func SetupRouter(r *gin.Engine, hdl *handler.Handler) {
	api := r.Group("/api")
	{
		api.POST("/commentary/run", hdl.StartRun)
		api.GET("/commentary/run", hdl.GetRun)
		api.GET("/commentary/history", hdl.GetRunHistory)
		api.POST("/commentary/run/:runId/cancel", hdl.CancelRun)
		api.DELETE("/commentary/run/:runId", hdl.DeleteRun)
		api.GET("/commentary/run/:runId/artifact", hdl.DownloadArtifact)
		api.GET("/commentary/run/:runId/progress", hdl.RunProgressWS)
	}
}
