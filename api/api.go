package api

import (
	"github.com/gin-gonic/gin"

	batchproc "github.com/kreasipositif/batchproc"
)

type Api struct {
	processor *batchproc.Batchproc
	router    *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/api/v1/batch/start", a.StartJob)
	router.GET("/api/v1/batch/status/:id", a.GetJobStatus)
	return a.router
}

func NewAPI(b *batchproc.Batchproc) *Api {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{processor: b, router: r}
}
