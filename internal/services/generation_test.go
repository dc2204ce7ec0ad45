package services

import (
  "context"
  "fmt"
  "sync"
  "testing"

  "github.com/google/uuid"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("dev")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  return log
}

func materialScope() types.ContentScope {
  return types.ContentScope{StudyMaterialID: uuid.New()}
}

func testUserID() uuid.UUID {
  return uuid.MustParse("6f8a2d9e-0c44-4d34-9a34-0b6f3cce2a11")
}

func testChapters(n int) []types.Chapter {
  chapters := make([]types.Chapter, n)
  for i := range chapters {
    chapters[i] = types.Chapter{
      Title:      fmt.Sprintf("Chapter %d", i+1),
      Content:    fmt.Sprintf("Material for chapter %d.", i+1),
      StartIndex: i * 5,
      EndIndex:   i*5 + 4,
    }
  }
  return chapters
}

type fakeContentService struct {
  chapters []types.Chapter
  err      error
  wpm      int
}

func (f *fakeContentService) Chapters(ctx context.Context, scope types.ContentScope) ([]types.Chapter, error) {
  return f.chapters, f.err
}

func (f *fakeContentService) Stats(ctx context.Context, scope types.ContentScope) (*ContentStats, error) {
  return nil, f.err
}

func (f *fakeContentService) WordsPerMinute() int {
  if f.wpm > 0 {
    return f.wpm
  }
  return DefaultWordsPerMinute
}

// fakeAIClient routes each GenerateJSON call through a single function so
// tests can key responses off the user prompt or schema name.
type fakeAIClient struct {
  mu       sync.Mutex
  calls    []string
  generate func(system, user, schemaName string) (map[string]any, error)
}

func (f *fakeAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
  return make([][]float32, len(inputs)), nil
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
  f.mu.Lock()
  f.calls = append(f.calls, schemaName)
  f.mu.Unlock()
  return f.generate(system, user, schemaName)
}

func (f *fakeAIClient) callCount() int {
  f.mu.Lock()
  defer f.mu.Unlock()
  return len(f.calls)
}

type fakeArtifactService struct {
  mu      sync.Mutex
  saved   *types.Artifact
  saveErr error
}

func (f *fakeArtifactService) Save(ctx context.Context, artifact *types.Artifact) (*types.Artifact, error) {
  if f.saveErr != nil {
    return nil, f.saveErr
  }
  f.mu.Lock()
  f.saved = artifact
  f.mu.Unlock()
  return artifact, nil
}

func (f *fakeArtifactService) Get(ctx context.Context, artifactID uuid.UUID) (*types.Artifact, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.saved, nil
}

func (f *fakeArtifactService) GetSanitized(ctx context.Context, artifactID uuid.UUID) (*ArtifactView, error) {
  return nil, nil
}

func (f *fakeArtifactService) ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]ArtifactSummary, error) {
  return nil, nil
}

func (f *fakeArtifactService) Delete(ctx context.Context, userID, artifactID uuid.UUID) error {
  return nil
}

type fakeNotifier struct {
  mu            sync.Mutex
  succeeded     int
  unitSkipped   int
  failed        int
  persistFailed int
}

func (f *fakeNotifier) GenerationSucceeded(kind string, artifactID uuid.UUID, itemCount int) {
  f.mu.Lock()
  f.succeeded++
  f.mu.Unlock()
}

func (f *fakeNotifier) GenerationUnitSkipped(kind string, unit int, title string, err error) {
  f.mu.Lock()
  f.unitSkipped++
  f.mu.Unlock()
}

func (f *fakeNotifier) GenerationFailed(kind string, detail string, err error) {
  f.mu.Lock()
  f.failed++
  f.mu.Unlock()
}

func (f *fakeNotifier) PersistenceFailed(artifactID uuid.UUID, err error) {
  f.mu.Lock()
  f.persistFailed++
  f.mu.Unlock()
}

func (f *fakeNotifier) counts() (succeeded, unitSkipped, failed int) {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.succeeded, f.unitSkipped, f.failed
}
