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

func summaryResponse(title string) map[string]any {
  return map[string]any{
    "title":              title,
    "main_summary":       "the document explains the core ideas",
    "key_points":         []any{"first point", "second point"},
    "important_concepts": []any{"concept"},
  }
}

func sectionResponse(title string) map[string]any {
  return map[string]any{
    "title":      title,
    "summary":    "this section covers one part",
    "key_points": []any{"a point"},
  }
}

func longChapters(n, contentLen int) []types.Chapter {
  chapters := make([]types.Chapter, n)
  for i := range chapters {
    chapters[i] = types.Chapter{
      Title:   fmt.Sprintf("Chapter %d", i+1),
      Content: strings.Repeat("x", contentLen),
    }
  }
  return chapters
}

func TestSummaryGenerateSinglePass(t *testing.T) {
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      if schemaName != "summary" {
        return nil, fmt.Errorf("unexpected schema %q", schemaName)
      }
      return summaryResponse("Short Document"), nil
    },
  }
  artifacts := &fakeArtifactService{}

  svc := NewSummaryGenerationService(testLogger(t), &fakeContentService{chapters: testChapters(2)}, ai, artifacts, &fakeNotifier{}, 2, 100, 50000)
  saved, err := svc.Generate(context.Background(), testUserID(), materialScope())
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }

  if ai.callCount() != 1 {
    t.Fatalf("expected a single generation call, got %d", ai.callCount())
  }
  if saved.Title != "Short Document" {
    t.Fatalf("unexpected title %q", saved.Title)
  }
  if saved.ItemCount != 1 {
    t.Fatalf("expected item count 1 for single-pass summary, got %d", saved.ItemCount)
  }

  var payload types.SummaryPayload
  if err := json.Unmarshal(saved.Payload, &payload); err != nil {
    t.Fatalf("decode saved payload: %v", err)
  }
  if len(payload.Sections) != 0 {
    t.Fatalf("expected no sections on single-pass summary, got %d", len(payload.Sections))
  }
}

func TestSummaryGenerateSectionedWithRollup(t *testing.T) {
  // 3 chapters of 90 chars joined with separators: above the 50-char
  // single-pass limit, split into 3 sections at 100 chars each.
  chapters := longChapters(3, 90)
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      switch schemaName {
      case "section_summary":
        return sectionResponse("Section Title"), nil
      case "summary_rollup":
        return summaryResponse("Whole Document"), nil
      default:
        return nil, fmt.Errorf("unexpected schema %q", schemaName)
      }
    },
  }
  artifacts := &fakeArtifactService{}

  svc := NewSummaryGenerationService(testLogger(t), &fakeContentService{chapters: chapters}, ai, artifacts, &fakeNotifier{}, 2, 100, 50)
  saved, err := svc.Generate(context.Background(), testUserID(), materialScope())
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }

  // 3 section passes plus the roll-up.
  if ai.callCount() != 4 {
    t.Fatalf("expected 4 generation calls, got %d", ai.callCount())
  }
  if saved.Title != "Whole Document" {
    t.Fatalf("unexpected title %q", saved.Title)
  }
  if saved.ItemCount != 3 {
    t.Fatalf("expected item count 3, got %d", saved.ItemCount)
  }

  var payload types.SummaryPayload
  if err := json.Unmarshal(saved.Payload, &payload); err != nil {
    t.Fatalf("decode saved payload: %v", err)
  }
  if len(payload.Sections) != 3 {
    t.Fatalf("expected 3 retained sections, got %d", len(payload.Sections))
  }
  if payload.MainSummary == "" {
    t.Fatalf("expected roll-up main summary")
  }
}

func TestSummaryGenerateSectionFailureFatal(t *testing.T) {
  chapters := longChapters(3, 90)
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      if schemaName == "section_summary" && strings.Contains(user, "section 2") {
        return nil, fmt.Errorf("upstream refused")
      }
      return sectionResponse("Section Title"), nil
    },
  }
  artifacts := &fakeArtifactService{}
  notifier := &fakeNotifier{}

  svc := NewSummaryGenerationService(testLogger(t), &fakeContentService{chapters: chapters}, ai, artifacts, notifier, 1, 100, 50)
  _, err := svc.Generate(context.Background(), testUserID(), materialScope())
  if err == nil {
    t.Fatalf("expected section failure to fail the request")
  }
  if errors.Is(err, ErrRollupFailed) {
    t.Fatalf("section failure should not be reported as a roll-up failure")
  }
  if artifacts.saved != nil {
    t.Fatalf("expected no artifact persisted on section failure")
  }
  _, _, failed := notifier.counts()
  if failed != 1 {
    t.Fatalf("expected failure notification, got %d", failed)
  }
}

func TestSummaryGenerateRollupFailureFatal(t *testing.T) {
  chapters := longChapters(3, 90)
  ai := &fakeAIClient{
    generate: func(system, user, schemaName string) (map[string]any, error) {
      if schemaName == "summary_rollup" {
        return nil, fmt.Errorf("upstream refused")
      }
      return sectionResponse("Section Title"), nil
    },
  }
  artifacts := &fakeArtifactService{}

  svc := NewSummaryGenerationService(testLogger(t), &fakeContentService{chapters: chapters}, ai, artifacts, &fakeNotifier{}, 2, 100, 50)
  _, err := svc.Generate(context.Background(), testUserID(), materialScope())
  if !errors.Is(err, ErrRollupFailed) {
    t.Fatalf("expected ErrRollupFailed, got %v", err)
  }
  if artifacts.saved != nil {
    t.Fatalf("expected no artifact persisted on roll-up failure")
  }
}

func TestSummaryGenerateNoContent(t *testing.T) {
  notifier := &fakeNotifier{}
  svc := NewSummaryGenerationService(testLogger(t), &fakeContentService{err: ErrNoContent}, &fakeAIClient{}, &fakeArtifactService{}, notifier, 2, 100, 50)
  _, err := svc.Generate(context.Background(), testUserID(), materialScope())
  if !errors.Is(err, ErrNoContent) {
    t.Fatalf("expected ErrNoContent, got %v", err)
  }
}
