package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/types"
)

type SummaryGenerationService interface {
  Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope) (*types.Artifact, error)
}

type summaryGenerationService struct {
  log              *logger.Logger
  content          ContentService
  ai               OpenAIClient
  artifacts        ArtifactService
  notifier         Notifier
  parallelism      int
  maxSectionLength int
  singlePassLimit  int
}

func NewSummaryGenerationService(log *logger.Logger, content ContentService, ai OpenAIClient, artifacts ArtifactService, notifier Notifier, parallelism, maxSectionLength, singlePassLimit int) SummaryGenerationService {
  if parallelism <= 0 {
    parallelism = DefaultUnitParallelism
  }
  if maxSectionLength <= 0 {
    maxSectionLength = DefaultMaxSectionLength
  }
  if singlePassLimit <= 0 {
    singlePassLimit = DefaultSinglePassLimit
  }
  return &summaryGenerationService{
    log:              log.With("service", "SummaryGenerationService"),
    content:          content,
    ai:               ai,
    artifacts:        artifacts,
    notifier:         notifier,
    parallelism:      parallelism,
    maxSectionLength: maxSectionLength,
    singlePassLimit:  singlePassLimit,
  }
}

func (s *summaryGenerationService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope) (*types.Artifact, error) {
  const kind = types.ArtifactKindSummary

  chapters, err := s.content.Chapters(ctx, scope)
  if err != nil {
    if errors.Is(err, ErrNoContent) {
      s.notifier.GenerationFailed(kind, scopeLabel(scope), err)
    }
    return nil, err
  }

  content := joinChapters(chapters)

  var payload types.SummaryPayload
  if len(content) <= s.singlePassLimit {
    payload, err = s.generateSinglePass(ctx, content)
  } else {
    payload, err = s.generateSectioned(ctx, content)
  }
  if err != nil {
    s.notifier.GenerationFailed(kind, scopeLabel(scope), err)
    return nil, err
  }

  payloadRaw, err := json.Marshal(payload)
  if err != nil {
    return nil, fmt.Errorf("encode summary payload: %w", err)
  }

  itemCount := 1
  if len(payload.Sections) > 0 {
    itemCount = len(payload.Sections)
  }

  words := countWords(content)
  studyMaterialID, spaceID := scopeRefs(scope)
  artifact := &types.Artifact{
    ID:                 uuid.New(),
    UserID:             userID,
    Kind:               kind,
    StudyMaterialID:    studyMaterialID,
    SpaceID:            spaceID,
    Title:              payload.Title,
    Payload:            datatypes.JSON(payloadRaw),
    ItemCount:          itemCount,
    ReadingTimeMinutes: estimateReadingTime(words, s.content.WordsPerMinute()),
    Difficulty:         classifyDifficulty(content),
  }

  saved, err := s.artifacts.Save(ctx, artifact)
  if err != nil {
    return nil, err
  }

  s.log.Info("Summary generated",
    "artifact_id", saved.ID.String(),
    "sections", len(payload.Sections),
    "content_length", len(content),
  )
  s.notifier.GenerationSucceeded(kind, saved.ID, saved.ItemCount)
  return saved, nil
}

func (s *summaryGenerationService) generateSinglePass(ctx context.Context, content string) (types.SummaryPayload, error) {
  var payload types.SummaryPayload

  obj, err := s.ai.GenerateJSON(ctx, summarySystemPrompt, buildSummaryUserPrompt(content), "summary", summarySchema())
  if err != nil {
    return payload, fmt.Errorf("summary generation: %w", err)
  }
  if err := decodeInto(obj, &payload); err != nil {
    return payload, fmt.Errorf("decode summary output: %w", err)
  }
  return payload, nil
}

// generateSectioned summarizes each section, then synthesizes a roll-up over
// the per-section outputs. Section failures are fatal here: a summary with a
// hole in the middle is worse than no summary.
func (s *summaryGenerationService) generateSectioned(ctx context.Context, content string) (types.SummaryPayload, error) {
  var payload types.SummaryPayload

  sections := splitSections(content, s.maxSectionLength)
  results := make([]types.SectionSummary, len(sections))

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(s.parallelism)
  for i, section := range sections {
    i, section := i, section
    g.Go(func() error {
      obj, err := s.ai.GenerateJSON(gctx, summarySystemPrompt, buildSectionSummaryUserPrompt(i, section), "section_summary", sectionSummarySchema())
      if err != nil {
        return fmt.Errorf("section %d summary: %w", i+1, err)
      }
      var sec types.SectionSummary
      if err := decodeInto(obj, &sec); err != nil {
        return fmt.Errorf("decode section %d output: %w", i+1, err)
      }
      results[i] = sec
      return nil
    })
  }
  if err := g.Wait(); err != nil {
    return payload, err
  }

  obj, err := s.ai.GenerateJSON(ctx, summarySystemPrompt, buildRollupUserPrompt(results), "summary_rollup", summarySchema())
  if err != nil {
    return payload, fmt.Errorf("%w: %v", ErrRollupFailed, err)
  }
  if err := decodeInto(obj, &payload); err != nil {
    return payload, fmt.Errorf("%w: %v", ErrRollupFailed, err)
  }

  payload.Sections = results
  return payload, nil
}
