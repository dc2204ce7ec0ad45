package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strconv"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  redisclient "github.com/yungbote/studyforge-backend/internal/clients/redis"
  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/repos"
  "github.com/yungbote/studyforge-backend/internal/types"
)

const persistRetryDelay = 500 * time.Millisecond

// ProgressService tracks a user's position and answers on an artifact.
// Writes are applied to an in-memory snapshot first and persisted
// asynchronously, so the interaction path never waits on the database.
type ProgressService interface {
  Get(ctx context.Context, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error)
  SubmitAnswer(ctx context.Context, userID, artifactID uuid.UUID, index int, answerID string) (*types.ArtifactProgress, error)
  SetPosition(ctx context.Context, userID, artifactID uuid.UUID, index int) (*types.ArtifactProgress, error)
  Reset(ctx context.Context, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error)
}

type progressService struct {
  log          *logger.Logger
  artifacts    ArtifactService
  progressRepo repos.ArtifactProgressRepo
  cache        redisclient.ArtifactCache
  notifier     Notifier

  // mu guards both maps. locks serializes operations per (user, artifact)
  // pair; entries is the per-pair write-through buffer. Both grow with the
  // number of distinct pairs seen by this instance; no eviction.
  mu      sync.Mutex
  locks   map[string]*sync.Mutex
  entries map[string]*types.ArtifactProgress
}

func NewProgressService(log *logger.Logger, artifacts ArtifactService, progressRepo repos.ArtifactProgressRepo, cache redisclient.ArtifactCache, notifier Notifier) ProgressService {
  return &progressService{
    log:          log.With("service", "ProgressService"),
    artifacts:    artifacts,
    progressRepo: progressRepo,
    cache:        cache,
    notifier:     notifier,
    locks:        map[string]*sync.Mutex{},
    entries:      map[string]*types.ArtifactProgress{},
  }
}

func progressKey(userID, artifactID uuid.UUID) string {
  return userID.String() + ":" + artifactID.String()
}

// lockFor serializes operations per user+artifact pair. Different pairs
// proceed concurrently.
func (s *progressService) lockFor(key string) *sync.Mutex {
  s.mu.Lock()
  defer s.mu.Unlock()
  mu, ok := s.locks[key]
  if !ok {
    mu = &sync.Mutex{}
    s.locks[key] = mu
  }
  return mu
}

// entry and storeEntry are the only accessors of the entries map. Operations
// on different pairs hold different per-key mutexes, so the map itself needs
// its own guard.
func (s *progressService) entry(key string) (*types.ArtifactProgress, bool) {
  s.mu.Lock()
  defer s.mu.Unlock()
  row, ok := s.entries[key]
  return row, ok
}

func (s *progressService) storeEntry(key string, row *types.ArtifactProgress) {
  s.mu.Lock()
  defer s.mu.Unlock()
  s.entries[key] = row
}

func (s *progressService) Get(ctx context.Context, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error) {
  key := progressKey(userID, artifactID)
  mu := s.lockFor(key)
  mu.Lock()
  defer mu.Unlock()

  row, _, err := s.load(ctx, key, userID, artifactID)
  if err != nil {
    return nil, err
  }
  return cloneProgress(row), nil
}

func (s *progressService) SubmitAnswer(ctx context.Context, userID, artifactID uuid.UUID, index int, answerID string) (*types.ArtifactProgress, error) {
  key := progressKey(userID, artifactID)
  mu := s.lockFor(key)
  mu.Lock()
  defer mu.Unlock()

  row, _, err := s.load(ctx, key, userID, artifactID)
  if err != nil {
    return nil, err
  }
  if index < 0 || index >= row.TotalItems {
    return nil, fmt.Errorf("%w: index %d of %d items", ErrIndexOutOfRange, index, row.TotalItems)
  }

  answers, err := decodeIndexMap(row.Answers)
  if err != nil {
    return nil, fmt.Errorf("decode answers: %w", err)
  }
  feedback, err := decodeFlagMap(row.FeedbackShown)
  if err != nil {
    return nil, fmt.Errorf("decode feedback flags: %w", err)
  }

  answers[strconv.Itoa(index)] = answerID
  feedback[strconv.Itoa(index)] = true

  now := time.Now().UTC()
  row.Answers = encodeJSON(answers)
  row.FeedbackShown = encodeJSON(feedback)
  row.LastAttemptedAt = &now
  if index > row.CurrentIndex {
    row.CurrentIndex = index
  }

  // Status only moves forward: not_started -> in_progress -> completed.
  if row.Status == types.ProgressStatusNotStarted {
    row.Status = types.ProgressStatusInProgress
  }
  if len(answers) >= row.TotalItems && row.Status != types.ProgressStatusCompleted {
    row.Status = types.ProgressStatusCompleted
    row.CompletedAt = &now
  }

  s.storeEntry(key, row)
  s.persistAsync(cloneProgress(row))
  return cloneProgress(row), nil
}

func (s *progressService) SetPosition(ctx context.Context, userID, artifactID uuid.UUID, index int) (*types.ArtifactProgress, error) {
  key := progressKey(userID, artifactID)
  mu := s.lockFor(key)
  mu.Lock()
  defer mu.Unlock()

  row, _, err := s.load(ctx, key, userID, artifactID)
  if err != nil {
    return nil, err
  }
  if index < 0 || index >= row.TotalItems {
    return nil, fmt.Errorf("%w: index %d of %d items", ErrIndexOutOfRange, index, row.TotalItems)
  }

  // Navigation moves the cursor only; status changes are driven by answers.
  row.CurrentIndex = index

  s.storeEntry(key, row)
  s.persistAsync(cloneProgress(row))
  return cloneProgress(row), nil
}

// Reset discards all progress and restamps the tracked artifact version. The
// write is synchronous: a reset the caller cannot rely on is useless.
func (s *progressService) Reset(ctx context.Context, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error) {
  key := progressKey(userID, artifactID)
  mu := s.lockFor(key)
  mu.Lock()
  defer mu.Unlock()

  artifact, err := s.artifacts.Get(ctx, artifactID)
  if err != nil {
    return nil, err
  }
  if artifact == nil {
    return nil, ErrArtifactNotFound
  }

  row := freshProgress(userID, artifact)
  if err := s.progressRepo.Upsert(ctx, nil, row); err != nil {
    return nil, fmt.Errorf("persist progress reset: %w", err)
  }
  s.storeEntry(key, row)

  if s.cache != nil {
    if err := s.cache.Invalidate(ctx, artifactID); err != nil {
      s.log.Warn("Artifact cache invalidation failed", "artifact_id", artifactID.String(), "error", err)
    }
  }
  return cloneProgress(row), nil
}

// load returns the working progress row for a pair, preferring the in-memory
// snapshot over the database, and a fresh unsaved row when neither exists.
func (s *progressService) load(ctx context.Context, key string, userID, artifactID uuid.UUID) (*types.ArtifactProgress, *types.Artifact, error) {
  artifact, err := s.artifacts.Get(ctx, artifactID)
  if err != nil {
    return nil, nil, err
  }
  if artifact == nil {
    return nil, nil, ErrArtifactNotFound
  }

  if row, ok := s.entry(key); ok {
    return row, artifact, nil
  }

  row, err := s.progressRepo.GetByUserAndArtifactID(ctx, nil, userID, artifactID)
  if err != nil {
    return nil, nil, fmt.Errorf("load progress: %w", err)
  }
  if row == nil {
    row = freshProgress(userID, artifact)
  }
  s.storeEntry(key, row)
  return row, artifact, nil
}

// persistAsync writes a snapshot to the database off the request path, with a
// single retry. A persistent failure is reported but never surfaced to the
// caller; the in-memory state stays ahead of the database.
func (s *progressService) persistAsync(row *types.ArtifactProgress) {
  go func() {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    err := s.progressRepo.Upsert(ctx, nil, row)
    if err != nil {
      time.Sleep(persistRetryDelay)
      err = s.progressRepo.Upsert(ctx, nil, row)
    }
    if err != nil {
      s.log.Error("Progress persistence failed",
        "artifact_id", row.ArtifactID.String(),
        "user_id", row.UserID.String(),
        "error", err,
      )
      if s.notifier != nil {
        s.notifier.PersistenceFailed(row.ArtifactID, err)
      }
    }
  }()
}

func freshProgress(userID uuid.UUID, artifact *types.Artifact) *types.ArtifactProgress {
  return &types.ArtifactProgress{
    ID:              uuid.New(),
    UserID:          userID,
    ArtifactID:      artifact.ID,
    Status:          types.ProgressStatusNotStarted,
    CurrentIndex:    0,
    TotalItems:      artifact.ItemCount,
    Answers:         datatypes.JSON([]byte("{}")),
    FeedbackShown:   datatypes.JSON([]byte("{}")),
    ArtifactVersion: artifact.Version,
  }
}

func cloneProgress(row *types.ArtifactProgress) *types.ArtifactProgress {
  if row == nil {
    return nil
  }
  out := *row
  out.Answers = append(datatypes.JSON(nil), row.Answers...)
  out.FeedbackShown = append(datatypes.JSON(nil), row.FeedbackShown...)
  if row.LastAttemptedAt != nil {
    t := *row.LastAttemptedAt
    out.LastAttemptedAt = &t
  }
  if row.CompletedAt != nil {
    t := *row.CompletedAt
    out.CompletedAt = &t
  }
  return &out
}

func decodeIndexMap(raw datatypes.JSON) (map[string]string, error) {
  out := map[string]string{}
  if len(raw) == 0 {
    return out, nil
  }
  if err := json.Unmarshal(raw, &out); err != nil {
    return nil, err
  }
  return out, nil
}

func decodeFlagMap(raw datatypes.JSON) (map[string]bool, error) {
  out := map[string]bool{}
  if len(raw) == 0 {
    return out, nil
  }
  if err := json.Unmarshal(raw, &out); err != nil {
    return nil, err
  }
  return out, nil
}

func encodeJSON(v any) datatypes.JSON {
  raw, err := json.Marshal(v)
  if err != nil {
    return datatypes.JSON([]byte("{}"))
  }
  return datatypes.JSON(raw)
}
