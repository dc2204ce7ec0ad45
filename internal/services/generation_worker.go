package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/repos"
  "github.com/yungbote/studyforge-backend/internal/types"
)

const (
  RunStatusQueued    = "queued"
  RunStatusRunning   = "running"
  RunStatusSucceeded = "succeeded"
  RunStatusFailed    = "failed"

  RunStageRetrieve  = "retrieve"
  RunStageGenerate  = "generate"
  RunStageAggregate = "aggregate"
  RunStagePersist   = "persist"
  RunStageDone      = "done"
)

// RunConfig tunes the background worker loop.
type RunConfig struct {
  PollInterval      time.Duration
  HeartbeatInterval time.Duration
  MaxAttempts       int
  RetryDelay        time.Duration
  StaleRunning      time.Duration
}

func DefaultRunConfig() RunConfig {
  return RunConfig{
    PollInterval:      3 * time.Second,
    HeartbeatInterval: 15 * time.Second,
    MaxAttempts:       3,
    RetryDelay:        30 * time.Second,
    StaleRunning:      2 * time.Minute,
  }
}

// RunService enqueues generation runs and executes them on a background
// worker. Runs survive process restarts: a crashed worker's run is reclaimed
// once its heartbeat goes stale.
type RunService interface {
  Enqueue(ctx context.Context, userID uuid.UUID, kind string, scope types.ContentScope, count int, questionType string) (*types.GenerationRun, error)
  Get(ctx context.Context, runID uuid.UUID) (*types.GenerationRun, error)
  StartWorker(ctx context.Context)
}

type runService struct {
  log        *logger.Logger
  runRepo    repos.GenerationRunRepo
  quiz       QuizGenerationService
  flashcards FlashcardGenerationService
  summaries  SummaryGenerationService
  cfg        RunConfig
}

func NewRunService(log *logger.Logger, runRepo repos.GenerationRunRepo, quiz QuizGenerationService, flashcards FlashcardGenerationService, summaries SummaryGenerationService, cfg RunConfig) RunService {
  def := DefaultRunConfig()
  if cfg.PollInterval <= 0 {
    cfg.PollInterval = def.PollInterval
  }
  if cfg.HeartbeatInterval <= 0 {
    cfg.HeartbeatInterval = def.HeartbeatInterval
  }
  if cfg.MaxAttempts <= 0 {
    cfg.MaxAttempts = def.MaxAttempts
  }
  if cfg.RetryDelay <= 0 {
    cfg.RetryDelay = def.RetryDelay
  }
  if cfg.StaleRunning <= 0 {
    cfg.StaleRunning = def.StaleRunning
  }
  return &runService{
    log:        log.With("service", "RunService"),
    runRepo:    runRepo,
    quiz:       quiz,
    flashcards: flashcards,
    summaries:  summaries,
    cfg:        cfg,
  }
}

func (s *runService) Enqueue(ctx context.Context, userID uuid.UUID, kind string, scope types.ContentScope, count int, questionType string) (*types.GenerationRun, error) {
  switch kind {
  case types.ArtifactKindQuizSet, types.ArtifactKindFlashcardSet, types.ArtifactKindSummary:
  default:
    return nil, fmt.Errorf("unknown generation kind %q", kind)
  }
  if !scope.Valid() {
    return nil, fmt.Errorf("exactly one of study_material_id or space_id is required")
  }

  studyMaterialID, spaceID := scopeRefs(scope)
  run := &types.GenerationRun{
    ID:              uuid.New(),
    UserID:          userID,
    Kind:            kind,
    StudyMaterialID: studyMaterialID,
    SpaceID:         spaceID,
    RequestedCount:  count,
    QuestionType:    questionType,
    Status:          RunStatusQueued,
    Stage:           RunStageRetrieve,
  }
  rows, err := s.runRepo.Create(ctx, nil, []*types.GenerationRun{run})
  if err != nil {
    return nil, fmt.Errorf("enqueue generation run: %w", err)
  }

  s.log.Info("Generation run enqueued", "run_id", run.ID.String(), "kind", kind)
  return rows[0], nil
}

func (s *runService) Get(ctx context.Context, runID uuid.UUID) (*types.GenerationRun, error) {
  return s.runRepo.GetByID(ctx, nil, runID)
}

func (s *runService) StartWorker(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(s.cfg.PollInterval)
    defer ticker.Stop()

    s.log.Info("Generation worker started", "poll_interval", s.cfg.PollInterval.String())
    for {
      select {
      case <-ctx.Done():
        s.log.Info("Generation worker stopped")
        return
      case <-ticker.C:
        s.drain(ctx)
      }
    }
  }()
}

// drain claims and processes runs until the queue is empty.
func (s *runService) drain(ctx context.Context) {
  for {
    run, err := s.runRepo.ClaimNextRunnable(ctx, nil, s.cfg.MaxAttempts, s.cfg.RetryDelay, s.cfg.StaleRunning)
    if err != nil {
      s.log.Error("Run claim failed", "error", err)
      return
    }
    if run == nil {
      return
    }
    s.processRun(ctx, run)
  }
}

func (s *runService) processRun(ctx context.Context, run *types.GenerationRun) {
  log := s.log.With("run_id", run.ID.String(), "kind", run.Kind)
  log.Info("Processing generation run", "attempt", run.Attempts+1)

  hbCtx, stopHeartbeat := context.WithCancel(ctx)
  defer stopHeartbeat()
  go s.heartbeatLoop(hbCtx, run.ID)

  fail := func(stage string, err error) {
    now := time.Now()
    uErr := s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
      "status":        RunStatusFailed,
      "stage":         stage,
      "error":         err.Error(),
      "last_error_at": now,
    })
    if uErr != nil {
      log.Error("Run failure update failed", "error", uErr)
    }
    log.Error("Generation run failed", "stage", stage, "error", err)
  }
  advance := func(stage string, progress int) {
    if err := s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
      "stage":    stage,
      "progress": progress,
    }); err != nil {
      log.Warn("Run progress update failed", "error", err)
    }
  }

  scope := runScope(run)
  if !scope.Valid() {
    fail(RunStageRetrieve, fmt.Errorf("run has no valid scope"))
    return
  }

  advance(RunStageGenerate, 10)

  var artifact *types.Artifact
  var err error
  switch run.Kind {
  case types.ArtifactKindQuizSet:
    artifact, err = s.quiz.Generate(ctx, run.UserID, scope, run.RequestedCount, run.QuestionType)
  case types.ArtifactKindFlashcardSet:
    artifact, err = s.flashcards.Generate(ctx, run.UserID, scope, run.RequestedCount)
  case types.ArtifactKindSummary:
    artifact, err = s.summaries.Generate(ctx, run.UserID, scope)
  default:
    err = fmt.Errorf("unknown generation kind %q", run.Kind)
  }
  if err != nil {
    fail(RunStageGenerate, err)
    return
  }

  advance(RunStagePersist, 90)

  if err := s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
    "status":      RunStatusSucceeded,
    "stage":       RunStageDone,
    "progress":    100,
    "error":       "",
    "artifact_id": artifact.ID,
  }); err != nil {
    log.Error("Run completion update failed", "error", err)
    return
  }
  log.Info("Generation run succeeded", "artifact_id", artifact.ID.String())
}

func (s *runService) heartbeatLoop(ctx context.Context, runID uuid.UUID) {
  ticker := time.NewTicker(s.cfg.HeartbeatInterval)
  defer ticker.Stop()
  for {
    select {
    case <-ctx.Done():
      return
    case <-ticker.C:
      if err := s.runRepo.Heartbeat(ctx, nil, runID); err != nil {
        s.log.Warn("Run heartbeat failed", "run_id", runID.String(), "error", err)
      }
    }
  }
}

func runScope(run *types.GenerationRun) types.ContentScope {
  var scope types.ContentScope
  if run.StudyMaterialID != nil {
    scope.StudyMaterialID = *run.StudyMaterialID
  }
  if run.SpaceID != nil {
    scope.SpaceID = *run.SpaceID
  }
  return scope
}
