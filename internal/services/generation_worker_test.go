package services

import (
  "context"
  "fmt"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/studyforge-backend/internal/types"
)

type fakeRunRepo struct {
  mu   sync.Mutex
  runs map[uuid.UUID]*types.GenerationRun
  seq  []uuid.UUID
}

func newFakeRunRepo() *fakeRunRepo {
  return &fakeRunRepo{runs: map[uuid.UUID]*types.GenerationRun{}}
}

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, run := range runs {
    run.CreatedAt = time.Now()
    f.runs[run.ID] = run
    f.seq = append(f.seq, run.ID)
  }
  return runs, nil
}

func (f *fakeRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GenerationRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  run, ok := f.runs[id]
  if !ok {
    return nil, nil
  }
  out := *run
  return &out, nil
}

func (f *fakeRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.GenerationRun, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, id := range f.seq {
    run := f.runs[id]
    if run.Status != RunStatusQueued {
      continue
    }
    run.Status = RunStatusRunning
    run.Attempts++
    out := *run
    return &out, nil
  }
  return nil, nil
}

func (f *fakeRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  run, ok := f.runs[id]
  if !ok {
    return fmt.Errorf("run %s not found", id)
  }
  if v, ok := updates["status"].(string); ok {
    run.Status = v
  }
  if v, ok := updates["stage"].(string); ok {
    run.Stage = v
  }
  if v, ok := updates["progress"].(int); ok {
    run.Progress = v
  }
  if v, ok := updates["error"].(string); ok {
    run.Error = v
  }
  if v, ok := updates["artifact_id"].(uuid.UUID); ok {
    run.ArtifactID = &v
  }
  if v, ok := updates["last_error_at"].(time.Time); ok {
    run.LastErrorAt = &v
  }
  return nil
}

func (f *fakeRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  return nil
}

type fakeQuizService struct {
  artifact *types.Artifact
  err      error
}

func (f *fakeQuizService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int, questionType string) (*types.Artifact, error) {
  return f.artifact, f.err
}

type fakeFlashcardService struct {
  artifact *types.Artifact
  err      error
}

func (f *fakeFlashcardService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int) (*types.Artifact, error) {
  return f.artifact, f.err
}

type fakeSummaryService struct {
  artifact *types.Artifact
  err      error
}

func (f *fakeSummaryService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope) (*types.Artifact, error) {
  return f.artifact, f.err
}

func runFixture(t *testing.T, quiz QuizGenerationService, flashcards FlashcardGenerationService, summaries SummaryGenerationService) (RunService, *fakeRunRepo) {
  t.Helper()
  repo := newFakeRunRepo()
  svc := NewRunService(testLogger(t), repo, quiz, flashcards, summaries, DefaultRunConfig())
  return svc, repo
}

func TestEnqueueValidatesKindAndScope(t *testing.T) {
  svc, _ := runFixture(t, &fakeQuizService{}, &fakeFlashcardService{}, &fakeSummaryService{})
  ctx := context.Background()

  if _, err := svc.Enqueue(ctx, testUserID(), "podcast", materialScope(), 5, ""); err == nil {
    t.Fatalf("expected unknown kind rejected")
  }
  if _, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindQuizSet, types.ContentScope{}, 5, ""); err == nil {
    t.Fatalf("expected empty scope rejected")
  }
  both := types.ContentScope{StudyMaterialID: uuid.New(), SpaceID: uuid.New()}
  if _, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindQuizSet, both, 5, ""); err == nil {
    t.Fatalf("expected double scope rejected")
  }

  run, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindQuizSet, materialScope(), 5, types.QuestionTypeMCQ)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  if run.Status != RunStatusQueued || run.Stage != RunStageRetrieve {
    t.Fatalf("unexpected fresh run state: status=%q stage=%q", run.Status, run.Stage)
  }
}

func TestWorkerProcessesQueuedRun(t *testing.T) {
  artifact := &types.Artifact{ID: uuid.New(), Kind: types.ArtifactKindQuizSet, ItemCount: 5}
  svc, repo := runFixture(t, &fakeQuizService{artifact: artifact}, &fakeFlashcardService{}, &fakeSummaryService{})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindQuizSet, materialScope(), 5, "")
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  svc.(*runService).drain(ctx)

  stored, err := svc.Get(ctx, run.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if stored.Status != RunStatusSucceeded {
    t.Fatalf("expected succeeded, got %q (error=%q)", stored.Status, stored.Error)
  }
  if stored.Stage != RunStageDone || stored.Progress != 100 {
    t.Fatalf("unexpected terminal state: stage=%q progress=%d", stored.Stage, stored.Progress)
  }
  if stored.ArtifactID == nil || *stored.ArtifactID != artifact.ID {
    t.Fatalf("expected artifact id recorded")
  }
  _ = repo
}

func TestWorkerRecordsFailure(t *testing.T) {
  svc, _ := runFixture(t, &fakeQuizService{err: ErrAllUnitsFailed}, &fakeFlashcardService{}, &fakeSummaryService{})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindQuizSet, materialScope(), 5, "")
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  svc.(*runService).drain(ctx)

  stored, err := svc.Get(ctx, run.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if stored.Status != RunStatusFailed {
    t.Fatalf("expected failed, got %q", stored.Status)
  }
  if stored.Error == "" || stored.LastErrorAt == nil {
    t.Fatalf("expected error details recorded")
  }
}

func TestWorkerDispatchesByKind(t *testing.T) {
  summaryArtifact := &types.Artifact{ID: uuid.New(), Kind: types.ArtifactKindSummary, ItemCount: 1}
  svc, _ := runFixture(t, &fakeQuizService{err: fmt.Errorf("wrong service")}, &fakeFlashcardService{err: fmt.Errorf("wrong service")}, &fakeSummaryService{artifact: summaryArtifact})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, testUserID(), types.ArtifactKindSummary, materialScope(), 0, "")
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  svc.(*runService).drain(ctx)

  stored, err := svc.Get(ctx, run.ID)
  if err != nil {
    t.Fatalf("Get: %v", err)
  }
  if stored.Status != RunStatusSucceeded {
    t.Fatalf("expected summary run succeeded, got %q (error=%q)", stored.Status, stored.Error)
  }
  if stored.ArtifactID == nil || *stored.ArtifactID != summaryArtifact.ID {
    t.Fatalf("expected summary artifact recorded")
  }
}
