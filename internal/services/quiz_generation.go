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

type QuizGenerationService interface {
  Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int, questionType string) (*types.Artifact, error)
}

type quizGenerationService struct {
  log         *logger.Logger
  content     ContentService
  ai          OpenAIClient
  artifacts   ArtifactService
  notifier    Notifier
  parallelism int

  rngMu sync.Mutex
  rng   *rand.Rand
}

func NewQuizGenerationService(log *logger.Logger, content ContentService, ai OpenAIClient, artifacts ArtifactService, notifier Notifier, parallelism int, seed int64) QuizGenerationService {
  if parallelism <= 0 {
    parallelism = DefaultUnitParallelism
  }
  if seed == 0 {
    seed = time.Now().UnixNano()
  }
  return &quizGenerationService{
    log:         log.With("service", "QuizGenerationService"),
    content:     content,
    ai:          ai,
    artifacts:   artifacts,
    notifier:    notifier,
    parallelism: parallelism,
    rng:         rand.New(rand.NewSource(seed)),
  }
}

func (s *quizGenerationService) Generate(ctx context.Context, userID uuid.UUID, scope types.ContentScope, count int, questionType string) (*types.Artifact, error) {
  const kind = types.ArtifactKindQuizSet

  if count <= 0 {
    count = DefaultQuizQuestionCount
  }
  if count > MaxQuizQuestionCount {
    count = MaxQuizQuestionCount
  }

  chapters, err := s.content.Chapters(ctx, scope)
  if err != nil {
    if errors.Is(err, ErrNoContent) {
      s.notifier.GenerationFailed(kind, scopeLabel(scope), err)
    }
    return nil, err
  }

  // Per-chapter share of the request; the aggregate is truncated back down.
  perUnit := ceilDiv(count, len(chapters))

  results := make([][]types.QuizQuestion, len(chapters))
  unitErrs := make([]error, len(chapters))

  var g errgroup.Group
  g.SetLimit(s.parallelism)
  for i, chapter := range chapters {
    i, chapter := i, chapter
    g.Go(func() error {
      questions, unitErr := s.generateUnit(ctx, chapter, perUnit, questionType)
      if unitErr != nil {
        unitErrs[i] = &UnitError{Unit: i + 1, Title: chapter.Title, Err: unitErr}
        return nil
      }
      results[i] = questions
      return nil
    })
  }
  _ = g.Wait()

  // A cancelled request is not a generation failure; bail before the
  // skip accounting misreads per-unit context errors as ErrAllUnitsFailed.
  if err := ctx.Err(); err != nil {
    return nil, err
  }

  var all []types.QuizQuestion
  for i := range results {
    if unitErrs[i] != nil {
      s.log.Warn("Quiz unit failed, skipping", "unit", i+1, "chapter", chapters[i].Title, "error", unitErrs[i])
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

  payloadRaw, err := json.Marshal(types.QuizSetPayload{Questions: all})
  if err != nil {
    return nil, fmt.Errorf("encode quiz payload: %w", err)
  }

  studyMaterialID, spaceID := scopeRefs(scope)
  artifact := &types.Artifact{
    ID:                 uuid.New(),
    UserID:             userID,
    Kind:               kind,
    StudyMaterialID:    studyMaterialID,
    SpaceID:            spaceID,
    Title:              fmt.Sprintf("Quiz (%d questions)", len(all)),
    Payload:            datatypes.JSON(payloadRaw),
    ItemCount:          len(all),
    ReadingTimeMinutes: estimateReadingTime(words, s.content.WordsPerMinute()),
    Difficulty:         classifyDifficulty(content),
  }

  saved, err := s.artifacts.Save(ctx, artifact)
  if err != nil {
    return nil, err
  }

  s.log.Info("Quiz generated",
    "artifact_id", saved.ID.String(),
    "chapters", len(chapters),
    "questions", saved.ItemCount,
  )
  s.notifier.GenerationSucceeded(kind, saved.ID, saved.ItemCount)
  return saved, nil
}

func (s *quizGenerationService) generateUnit(ctx context.Context, chapter types.Chapter, count int, questionType string) ([]types.QuizQuestion, error) {
  obj, err := s.ai.GenerateJSON(ctx, quizSystemPrompt, buildQuizUserPrompt(chapter, count, questionType), "quiz_questions", quizSchema())
  if err != nil {
    return nil, err
  }

  var parsed types.QuizSetPayload
  if err := decodeInto(obj, &parsed); err != nil {
    return nil, fmt.Errorf("decode quiz unit output: %w", err)
  }

  // The schema already constrains shape; re-check the answer-key invariants
  // anyway and drop anything that slipped through.
  valid := parsed.Questions[:0]
  for _, q := range parsed.Questions {
    if !validQuestion(q, questionType) {
      continue
    }
    q.ID = uuid.NewString()
    valid = append(valid, q)
  }
  if len(valid) == 0 {
    return nil, fmt.Errorf("unit produced no valid questions")
  }
  return valid, nil
}

func validQuestion(q types.QuizQuestion, requestedType string) bool {
  if q.Prompt == "" {
    return false
  }
  switch requestedType {
  case types.QuestionTypeMCQ:
    if q.Type != types.QuestionTypeMCQ {
      return false
    }
  case types.QuestionTypeText:
    if q.Type != types.QuestionTypeText {
      return false
    }
  }

  switch q.Type {
  case types.QuestionTypeMCQ:
    if len(q.Options) != 4 {
      return false
    }
    for _, opt := range q.Options {
      if opt.ID == q.CorrectOptionID {
        return true
      }
    }
    return false
  case types.QuestionTypeText:
    return len(q.Options) == 0 && q.CorrectOptionID == ""
  default:
    return false
  }
}

func (s *quizGenerationService) shuffle(questions []types.QuizQuestion) {
  s.rngMu.Lock()
  defer s.rngMu.Unlock()
  s.rng.Shuffle(len(questions), func(i, j int) {
    questions[i], questions[j] = questions[j], questions[i]
  })
}
