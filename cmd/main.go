package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  redisclient "github.com/yungbote/studyforge-backend/internal/clients/redis"
  "github.com/yungbote/studyforge-backend/internal/db"
  "github.com/yungbote/studyforge-backend/internal/handlers"
  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/qdrant"
  "github.com/yungbote/studyforge-backend/internal/repos"
  "github.com/yungbote/studyforge-backend/internal/server"
  "github.com/yungbote/studyforge-backend/internal/services"
  "github.com/yungbote/studyforge-backend/internal/utils"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  chunkThreshold := utils.GetEnvAsInt("CHUNK_THRESHOLD", services.DefaultChunkThreshold, log)
  maxSectionLength := utils.GetEnvAsInt("MAX_SECTION_LENGTH", services.DefaultMaxSectionLength, log)
  singlePassLimit := utils.GetEnvAsInt("SINGLE_PASS_LIMIT", services.DefaultSinglePassLimit, log)
  wordsPerMinute := utils.GetEnvAsInt("WORDS_PER_MINUTE", services.DefaultWordsPerMinute, log)
  parallelism := utils.GetEnvAsInt("GENERATION_PARALLELISM", services.DefaultUnitParallelism, log)
  cacheTTL := utils.GetEnvAsDuration("ARTIFACT_CACHE_TTL", 24*time.Hour, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  artifactRepo := repos.NewArtifactRepo(thePG, log)
  progressRepo := repos.NewArtifactProgressRepo(thePG, log)
  runRepo := repos.NewGenerationRunRepo(thePG, log)

  // Clients
  log.Info("Setting up clients from main...")
  artifactCache, err := redisclient.NewArtifactCache(log, cacheTTL)
  if err != nil {
    log.Warn("Artifact cache unavailable, serving from Postgres only", "error", err)
    artifactCache = nil
  }
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  qdrantCfg, err := qdrant.ResolveConfigFromEnv()
  if err != nil {
    log.Error("Could not resolve qdrant config", "error", err)
    os.Exit(1)
  }
  retriever, err := qdrant.NewChunkRetriever(log, qdrantCfg, openaiClient)
  if err != nil {
    log.Error("Could not init chunk retriever", "error", err)
    os.Exit(1)
  }

  // Services
  log.Info("Setting up Services from main...")
  notifier := services.NewDiscordNotifier(log)
  contentService := services.NewContentService(log, retriever, chunkThreshold, maxSectionLength, singlePassLimit, wordsPerMinute)
  artifactService := services.NewArtifactService(thePG, log, artifactRepo, artifactCache)
  quizService := services.NewQuizGenerationService(log, contentService, openaiClient, artifactService, notifier, parallelism, 0)
  flashcardService := services.NewFlashcardGenerationService(log, contentService, openaiClient, artifactService, notifier, parallelism, 0)
  summaryService := services.NewSummaryGenerationService(log, contentService, openaiClient, artifactService, notifier, parallelism, maxSectionLength, singlePassLimit)
  progressService := services.NewProgressService(log, artifactService, progressRepo, artifactCache, notifier)

  runCfg := services.RunConfig{
    PollInterval:      utils.GetEnvAsDuration("RUN_POLL_INTERVAL", 3*time.Second, log),
    HeartbeatInterval: utils.GetEnvAsDuration("RUN_HEARTBEAT_INTERVAL", 15*time.Second, log),
    MaxAttempts:       utils.GetEnvAsInt("RUN_MAX_ATTEMPTS", 3, log),
    RetryDelay:        utils.GetEnvAsDuration("RUN_RETRY_DELAY", 30*time.Second, log),
    StaleRunning:      utils.GetEnvAsDuration("RUN_STALE_RUNNING", 2*time.Minute, log),
  }
  runService := services.NewRunService(log, runRepo, quizService, flashcardService, summaryService, runCfg)
  runService.StartWorker(context.Background())

  // Handlers
  log.Info("Setting up handlers from main...")
  healthcheckHandler := handlers.NewHealthcheckHandler(log)
  generationHandler := handlers.NewGenerationHandler(log, contentService, quizService, flashcardService, summaryService)
  artifactHandler := handlers.NewArtifactHandler(log, artifactService)
  progressHandler := handlers.NewProgressHandler(log, progressService)
  runHandler := handlers.NewRunHandler(log, runService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    HealthcheckHandler: healthcheckHandler,
    GenerationHandler:  generationHandler,
    ArtifactHandler:    artifactHandler,
    ProgressHandler:    progressHandler,
    RunHandler:         runHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
