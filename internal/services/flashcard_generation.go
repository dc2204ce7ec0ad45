package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "math/rand"
  "sync"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/types"
)

type FlashcardGenerationService interface {
  Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int) (*types.Artifact, error)
}

type flashcardGenerationService struct {
  log         *logger.Logger
  content     ContentService
  ai          OpenAIClient
  artifacts   ArtifactService
  notifier    Notifier
  parallelism int

  rngMu sync.Mutex
  rng   *rand.Rand
}

func NewFlashcardGenerationService(log *logger.Logger, content ContentService, ai OpenAIClient, artifacts ArtifactService, notifier Notifier, parallelism int, seed int64) FlashcardGenerationService {
  if parallelism <= 0 {
    parallelism = DefaultUnitParallelism
  }
  if seed == 0 {
    seed = time.Now().UnixNano()
  }
  return &flashcardGenerationService{
    log:         log.With("service", "FlashcardGenerationService"),
    content:     content,
    ai:          ai,
    artifacts:   artifacts,
    notifier:    notifier,
    parallelism: parallelism,
    rng:         rand.New(rand.NewSource(seed)),
  }
}

func (s *flashcardGenerationService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int) (*types.Artifact, error) {
  const kind = types.ArtifactKindFlashcardSet

  if count <= 0 {
    count = DefaultFlashcardCount
  }
  if count > MaxFlashcardCount {
    count = MaxFlashcardCount
  }

  chapters, err := s.content.Chapters(ctx, scope)
  if err != nil {
    if errors.Is(err, ErrNoContent) {
      s.notifier.GenerationFailed(kind, scopeLabel(scope), err)
    }
    return nil, err
  }

  perUnit := ceilDiv(count, len(chapters))

  results := make([][]types.Flashcard, len(chapters))
  unitErrs := make([]error, len(chapters))

  var g errgroup.Group
  g.SetLimit(s.parallelism)
  for i, chapter := range chapters {
    i, chapter := i, chapter
    g.Go(func() error {
      cards, unitErr := s.generateUnit(ctx, chapter, perUnit)
      if unitErr != nil {
        unitErrs[i] = &UnitError{Unit: i + 1, Title: chapter.Title, Err: unitErr}
        return nil
      }
      results[i] = cards
      return nil
    })
  }
  _ = g.Wait()

  // A cancelled request is not a generation failure; bail before the
  // skip accounting misreads per-unit context errors as ErrAllUnitsFailed.
  if err := ctx.Err(); err != nil {
    return nil, err
  }

  var all []types.Flashcard
  for i := range results {
    if unitErrs[i] != nil {
      s.log.Warn("Flashcard unit failed, skipping", "unit", i+1, "chapter", chapters[i].Title, "error", unitErrs[i])
      s.notifier.GenerationUnitSkipped(kind, i+1, chapters[i].Title, unitErrs[i])
      continue
    }
    all = append(all, results[i]...)
  }
  if len(all) == 0 {
    s.notifier.GenerationFailed(kind, scopeLabel(scope), ErrAllUnitsFailed)
    return nil, ErrAllUnitsFailed
  }

  s.shuffle(all)
  if len(all) > count {
    all = all[:count]
  }

  content := joinChapters(chapters)
  words := countWords(content)

  payloadRaw, err := json.Marshal(types.FlashcardSetPayload{Cards: all})
  if err != nil {
    return nil, fmt.Errorf("encode flashcard payload: %w", err)
  }

  studyMaterialID, spaceID := scopeRefs(scope)
  artifact := &types.Artifact{
    ID:                 uuid.New(),
    UserID:             userID,
    Kind:               kind,
    StudyMaterialID:    studyMaterialID,
    SpaceID:            spaceID,
    Title:              fmt.Sprintf("Flashcards (%d cards)", len(all)),
    Payload:            datatypes.JSON(payloadRaw),
    ItemCount:          len(all),
    ReadingTimeMinutes: estimateReadingTime(words, s.content.WordsPerMinute()),
    Difficulty:         classifyDifficulty(content),
  }

  saved, err := s.artifacts.Save(ctx, artifact)
  if err != nil {
    return nil, err
  }

  s.log.Info("Flashcards generated",
    "artifact_id", saved.ID.String(),
    "chapters", len(chapters),
    "cards", saved.ItemCount,
  )
  s.notifier.GenerationSucceeded(kind, saved.ID, saved.ItemCount)
  return saved, nil
}

func (s *flashcardGenerationService) generateUnit(ctx context.Context, chapter types.Chapter, count int) ([]types.Flashcard, error) {
  obj, err := s.ai.GenerateJSON(ctx, flashcardSystemPrompt, buildFlashcardUserPrompt(chapter, count), "flashcards", flashcardSchema())
  if err != nil {
    return nil, err
  }

  var parsed types.FlashcardSetPayload
  if err := decodeInto(obj, &parsed); err != nil {
    return nil, fmt.Errorf("decode flashcard unit output: %w", err)
  }

  valid := parsed.Cards[:0]
  for _, card := range parsed.Cards {
    if card.Question == "" || card.Answer == "" {
      continue
    }
    card.ID = uuid.NewString()
    valid = append(valid, card)
  }
  if len(valid) == 0 {
    return nil, fmt.Errorf("unit produced no valid flashcards")
  }
  return valid, nil
}

func (s *flashcardGenerationService) shuffle(cards []types.Flashcard) {
  s.rngMu.Lock()
  defer s.rngMu.Unlock()
  s.rng.Shuffle(len(cards), func(i, j int) {
    cards[i], cards[j] = cards[j], cards[i]
  })
}
