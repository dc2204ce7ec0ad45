package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  redisclient "github.com/yungbote/studyforge-backend/internal/clients/redis"
  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/repos"
  "github.com/yungbote/studyforge-backend/internal/types"
)

// ArtifactView is the answer-stripped shape served to clients. Correct option
// ids and flashcard answers never leave the server through this path.
type ArtifactView struct {
  ID                 uuid.UUID       `json:"id"`
  Kind               string          `json:"kind"`
  Title              string          `json:"title"`
  Version            string          `json:"version"`
  ItemCount          int             `json:"item_count"`
  ReadingTimeMinutes int             `json:"reading_time_minutes"`
  Difficulty         string          `json:"difficulty"`
  Items              json.RawMessage `json:"items"`
  CreatedAt          time.Time       `json:"created_at"`
}

// ArtifactSummary is the payload-free shape used in listings.
type ArtifactSummary struct {
  ID                 uuid.UUID `json:"id"`
  Kind               string    `json:"kind"`
  Title              string    `json:"title"`
  Version            string    `json:"version"`
  ItemCount          int       `json:"item_count"`
  ReadingTimeMinutes int       `json:"reading_time_minutes"`
  Difficulty         string    `json:"difficulty"`
  CreatedAt          time.Time `json:"created_at"`
}

type ArtifactService interface {
  Save(ctx context.Context, artifact *types.Artifact) (*types.Artifact, error)
  Get(ctx context.Context, artifactID uuid.UUID) (*types.Artifact, error)
  GetSanitized(ctx context.Context, artifactID uuid.UUID) (*ArtifactView, error)
  ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]ArtifactSummary, error)
  Delete(ctx context.Context, userID, artifactID uuid.UUID) error
}

type artifactService struct {
  db           *gorm.DB
  log          *logger.Logger
  artifactRepo repos.ArtifactRepo
  cache        redisclient.ArtifactCache
}

func NewArtifactService(db *gorm.DB, log *logger.Logger, artifactRepo repos.ArtifactRepo, cache redisclient.ArtifactCache) ArtifactService {
  return &artifactService{
    db:           db,
    log:          log.With("service", "ArtifactService"),
    artifactRepo: artifactRepo,
    cache:        cache,
  }
}

func (s *artifactService) Save(ctx context.Context, artifact *types.Artifact) (*types.Artifact, error) {
  if artifact == nil {
    return nil, fmt.Errorf("artifact required")
  }
  if artifact.Version == "" {
    artifact.Version = time.Now().UTC().Format(time.RFC3339Nano)
  }

  rows, err := s.artifactRepo.Create(ctx, nil, []*types.Artifact{artifact})
  if err != nil {
    return nil, fmt.Errorf("persist artifact: %w", err)
  }
  saved := rows[0]

  s.warmCache(ctx, saved)
  return saved, nil
}

func (s *artifactService) Get(ctx context.Context, artifactID uuid.UUID) (*types.Artifact, error) {
  return s.artifactRepo.GetByID(ctx, nil, artifactID)
}

func (s *artifactService) GetSanitized(ctx context.Context, artifactID uuid.UUID) (*ArtifactView, error) {
  artifact, err := s.artifactRepo.GetByID(ctx, nil, artifactID)
  if err != nil {
    return nil, err
  }
  if artifact == nil {
    return nil, nil
  }

  items := s.cachedItems(ctx, artifact)
  if items == nil {
    items, err = SanitizeArtifactItems(artifact.Kind, artifact.Payload)
    if err != nil {
      return nil, fmt.Errorf("sanitize artifact payload: %w", err)
    }
    s.warmCache(ctx, artifact)
  }

  return &ArtifactView{
    ID:                 artifact.ID,
    Kind:               artifact.Kind,
    Title:              artifact.Title,
    Version:            artifact.Version,
    ItemCount:          artifact.ItemCount,
    ReadingTimeMinutes: artifact.ReadingTimeMinutes,
    Difficulty:         artifact.Difficulty,
    Items:              items,
    CreatedAt:          artifact.CreatedAt,
  }, nil
}

func (s *artifactService) ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]ArtifactSummary, error) {
  rows, err := s.artifactRepo.GetByUserID(ctx, nil, userID, kind)
  if err != nil {
    return nil, fmt.Errorf("list artifacts: %w", err)
  }

  out := make([]ArtifactSummary, 0, len(rows))
  for _, row := range rows {
    out = append(out, ArtifactSummary{
      ID:                 row.ID,
      Kind:               row.Kind,
      Title:              row.Title,
      Version:            row.Version,
      ItemCount:          row.ItemCount,
      ReadingTimeMinutes: row.ReadingTimeMinutes,
      Difficulty:         row.Difficulty,
      CreatedAt:          row.CreatedAt,
    })
  }
  return out, nil
}

func (s *artifactService) Delete(ctx context.Context, userID, artifactID uuid.UUID) error {
  artifact, err := s.artifactRepo.GetByID(ctx, nil, artifactID)
  if err != nil {
    return err
  }
  if artifact == nil {
    return ErrArtifactNotFound
  }
  if artifact.UserID != userID {
    return ErrArtifactNotFound
  }

  if err := s.artifactRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{artifactID}); err != nil {
    return fmt.Errorf("delete artifact: %w", err)
  }
  if s.cache != nil {
    if err := s.cache.Invalidate(ctx, artifactID); err != nil {
      s.log.Warn("Artifact cache invalidation failed", "artifact_id", artifactID.String(), "error", err)
    }
  }
  return nil
}

// cachedItems returns cache-hit items only when the cached version still
// matches the stored artifact. The relational store stays authoritative.
func (s *artifactService) cachedItems(ctx context.Context, artifact *types.Artifact) json.RawMessage {
  if s.cache == nil {
    return nil
  }
  entry, err := s.cache.Get(ctx, artifact.ID)
  if err != nil {
    s.log.Warn("Artifact cache read failed", "artifact_id", artifact.ID.String(), "error", err)
    return nil
  }
  if entry == nil || entry.Version != artifact.Version {
    return nil
  }
  return entry.Items
}

func (s *artifactService) warmCache(ctx context.Context, artifact *types.Artifact) {
  if s.cache == nil {
    return
  }
  items, err := SanitizeArtifactItems(artifact.Kind, artifact.Payload)
  if err != nil {
    s.log.Warn("Artifact cache warm skipped", "artifact_id", artifact.ID.String(), "error", err)
    return
  }
  entry := redisclient.CachedArtifact{
    Version:  artifact.Version,
    Items:    items,
    CachedAt: time.Now().UnixMilli(),
  }
  if err := s.cache.Set(ctx, artifact.ID, entry); err != nil {
    s.log.Warn("Artifact cache write failed", "artifact_id", artifact.ID.String(), "error", err)
  }
}

// SanitizeArtifactItems strips answer keys from an artifact payload before it
// can be cached or served: correct option ids and explanations for quiz sets,
// answers for flashcard sets. Summaries carry no answer keys.
func SanitizeArtifactItems(kind string, payload []byte) (json.RawMessage, error) {
  switch kind {
  case types.ArtifactKindQuizSet:
    var p types.QuizSetPayload
    if err := json.Unmarshal(payload, &p); err != nil {
      return nil, err
    }
    for i := range p.Questions {
      p.Questions[i].CorrectOptionID = ""
      p.Questions[i].Explanation = ""
    }
    return json.Marshal(p)
  case types.ArtifactKindFlashcardSet:
    var p types.FlashcardSetPayload
    if err := json.Unmarshal(payload, &p); err != nil {
      return nil, err
    }
    for i := range p.Cards {
      p.Cards[i].Answer = ""
    }
    return json.Marshal(p)
  case types.ArtifactKindSummary:
    out := make(json.RawMessage, len(payload))
    copy(out, payload)
    return out, nil
  default:
    return nil, fmt.Errorf("unknown artifact kind %q", kind)
  }
}
