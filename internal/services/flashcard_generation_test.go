package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "strings"
  "testing"

  "github.com/yungbote/studyforge-backend/internal/types"
)

func flashcardResponse(cards ...map[string]any) map[string]any {
  items := make([]any, len(cards))
  for i, c := range cards {
    items[i] = c
  }
  return map[string]any{"cards": items}
}

func cardObj(question, answer string) map[string]any {
  return map[string]any{
    "question": question,
    "answer":   answer,
    "hint":     "think back to the chapter",
  }
}

func TestFlashcardGenerateAggregatesUnits(t *testing.T) {
  chapters := testChapters(2)
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      return flashcardResponse(
        cardObj("what is it", "the thing"),
        cardObj("why does it matter", "because"),
      ), nil
    },
  }
  artifacts := &fakeArtifactService{}

  svc := NewFlashcardGenerationService(testLogger(t), &fakeContentService{chapters: chapters}, ai, artifacts, &fakeNotifier{}, 2, 1)
  saved, err := svc.Generate(context.Background(), testUserID(), materialScope(), 3)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }

  // 2 chapters x 2 cards, truncated back to the requested 3.
  if saved.ItemCount != 3 {
    t.Fatalf("expected 3 cards, got %d", saved.ItemCount)
  }
  if saved.Title != "Flashcards (3 cards)" {
    t.Fatalf("unexpected title %q", saved.Title)
  }

  var payload types.FlashcardSetPayload
  if err := json.Unmarshal(saved.Payload, &payload); err != nil {
    t.Fatalf("decode saved payload: %v", err)
  }
  for _, card := range payload.Cards {
    if card.ID == "" {
      t.Fatalf("expected assigned card id")
    }
    if card.Answer == "" {
      t.Fatalf("expected stored payload to keep answers")
    }
  }
}

func TestFlashcardGenerateSkipsFailedUnit(t *testing.T) {
  chapters := testChapters(3)
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      if strings.Contains(user, "Chapter 3:") {
        return nil, fmt.Errorf("upstream refused")
      }
      return flashcardResponse(cardObj("q", "a")), nil
    },
  }
  notifier := &fakeNotifier{}

  svc := NewFlashcardGenerationService(testLogger(t), &fakeContentService{chapters: chapters}, ai, &fakeArtifactService{}, notifier, 2, 1)
  saved, err := svc.Generate(context.Background(), testUserID(), materialScope(), 10)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if saved.ItemCount != 2 {
    t.Fatalf("expected 2 cards from surviving units, got %d", saved.ItemCount)
  }

  succeeded, skipped, failed := notifier.counts()
  if succeeded != 1 || skipped != 1 || failed != 0 {
    t.Fatalf("unexpected notifications: succeeded=%d skipped=%d failed=%d", succeeded, skipped, failed)
  }
}

func TestFlashcardGenerateAllUnitsFailed(t *testing.T) {
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      return nil, fmt.Errorf("upstream refused")
    },
  }

  svc := NewFlashcardGenerationService(testLogger(t), &fakeContentService{chapters: testChapters(2)}, ai, &fakeArtifactService{}, &fakeNotifier{}, 2, 1)
  _, err := svc.Generate(context.Background(), testUserID(), materialScope(), 10)
  if !errors.Is(err, ErrAllUnitsFailed) {
    t.Fatalf("expected ErrAllUnitsFailed, got %v", err)
  }
}

func TestFlashcardGenerateCancelledContext(t *testing.T) {
  ctx, cancel := context.WithCancel(context.Background())
  cancel()

  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      return nil, ctx.Err()
    },
  }
  notifier := &fakeNotifier{}

  svc := NewFlashcardGenerationService(testLogger(t), &fakeContentService{chapters: testChapters(2)}, ai, &fakeArtifactService{}, notifier, 2, 1)
  _, err := svc.Generate(ctx, testUserID(), materialScope(), 10)
  if !errors.Is(err, context.Canceled) {
    t.Fatalf("expected context.Canceled, got %v", err)
  }
  if errors.Is(err, ErrAllUnitsFailed) {
    t.Fatalf("cancellation must not surface as ErrAllUnitsFailed")
  }

  _, skipped, failed := notifier.counts()
  if skipped != 0 || failed != 0 {
    t.Fatalf("unexpected notifications on cancel: skipped=%d failed=%d", skipped, failed)
  }
}

func TestFlashcardGenerateDropsIncompleteCards(t *testing.T) {
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      return flashcardResponse(
        cardObj("kept", "present"),
        map[string]any{"question": "no answer", "answer": "", "hint": ""},
        map[string]any{"question": "", "answer": "no question", "hint": ""},
      ), nil
    },
  }
  artifacts := &fakeArtifactService{}

  svc := NewFlashcardGenerationService(testLogger(t), &fakeContentService{chapters: testChapters(1)}, ai, artifacts, &fakeNotifier{}, 1, 1)
  saved, err := svc.Generate(context.Background(), testUserID(), materialScope(), 10)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if saved.ItemCount != 1 {
    t.Fatalf("expected incomplete cards dropped, got %d", saved.ItemCount)
  }
}
