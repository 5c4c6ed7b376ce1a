package router

import (
	"mnist-lab/internal/config"
	"mnist-lab/internal/handler"
	"mnist-lab/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, svcCtx *service.ServiceContext) *gin.Engine {
	if !cfg.Server.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	// 前端静态资源
	r.Use(static.Serve("/", static.LocalFile(cfg.Server.PublicDir, false)))

	experimentHandler := handler.NewExperimentHandler(svcCtx)

	// API路由
	api := r.Group("/api")
	{
		experiments := api.Group("/experiments")
		{
			experiments.GET("", experimentHandler.ListExperiments)
			experiments.POST("", experimentHandler.CreateExperiment)
			experiments.GET("/:id", experimentHandler.GetExperiment)
			experiments.DELETE("/:id", experimentHandler.DeleteExperiment)
			experiments.POST("/:id/run", experimentHandler.RunExperiment)
		}
	}

	return r
}
