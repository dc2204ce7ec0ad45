package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/yungbote/studyforge-backend/internal/handlers"
)

type RouterConfig struct {
  HealthcheckHandler *handlers.HealthcheckHandler
  GenerationHandler  *handlers.GenerationHandler
  ArtifactHandler    *handlers.ArtifactHandler
  ProgressHandler    *handlers.ProgressHandler
  RunHandler         *handlers.RunHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)

  api := router.Group("/api")
  {
    // Synchronous generation
    api.POST("/quiz/generate", cfg.GenerationHandler.GenerateQuiz)
    api.POST("/flashcards/generate", cfg.GenerationHandler.GenerateFlashcards)
    api.POST("/summary/generate", cfg.GenerationHandler.GenerateSummary)
    api.GET("/content/stats", cfg.GenerationHandler.GetContentStats)

    // Background generation runs
    api.POST("/artifacts/generate-async", cfg.RunHandler.GenerateAsync)
    api.GET("/runs/:id", cfg.RunHandler.GetRun)

    // Artifacts
    api.GET("/artifacts", cfg.ArtifactHandler.ListArtifacts)
    api.GET("/artifacts/:id", cfg.ArtifactHandler.GetArtifact)
    api.DELETE("/artifacts/:id", cfg.ArtifactHandler.DeleteArtifact)

    // Progress
    api.GET("/artifacts/:id/progress", cfg.ProgressHandler.GetProgress)
    api.POST("/artifacts/:id/progress/answer", cfg.ProgressHandler.SubmitAnswer)
    api.POST("/artifacts/:id/progress/position", cfg.ProgressHandler.SetPosition)
    api.DELETE("/artifacts/:id/progress", cfg.ProgressHandler.ResetProgress)
  }

  return router
}
