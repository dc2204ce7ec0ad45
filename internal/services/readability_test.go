package services

import (
  "strings"
  "testing"
)

func TestEstimateReadingTime(t *testing.T) {
  cases := []struct {
    words int
    want  int
  }{
    {0, 0},
    {1, 1},
    {200, 1},
    {201, 2},
    {50000, 250},
  }
  for _, c := range cases {
    if got := estimateReadingTime(c.words, 200); got != c.want {
      t.Fatalf("estimateReadingTime(%d): want=%d got=%d", c.words, c.want, got)
    }
  }
}

func TestClassifyDifficultyBeginner(t *testing.T) {
  text := "The cat sat. The dog ran. Birds fly high."
  if got := classifyDifficulty(text); got != DifficultyBeginner {
    t.Fatalf("difficulty: want=%q got=%q", DifficultyBeginner, got)
  }
}

func TestClassifyDifficultyIntermediate(t *testing.T) {
  text := strings.Repeat("The algorithm uses a methodology for implementation. ", 4)
  if got := classifyDifficulty(text); got != DifficultyIntermediate {
    t.Fatalf("difficulty: want=%q got=%q", DifficultyIntermediate, got)
  }
}

func TestClassifyDifficultyAdvanced(t *testing.T) {
  text := strings.Repeat("The algorithm methodology implementation infrastructure optimization. ", 5)
  if got := classifyDifficulty(text); got != DifficultyAdvanced {
    t.Fatalf("difficulty: want=%q got=%q", DifficultyAdvanced, got)
  }
}

func TestClassifyDifficultyDeterministic(t *testing.T) {
  text := "Photosynthesis converts light energy into chemical energy. Plants absorb carbon dioxide through stomata!"
  first := classifyDifficulty(text)
  for i := 0; i < 5; i++ {
    if got := classifyDifficulty(text); got != first {
      t.Fatalf("classifyDifficulty not deterministic: first=%q got=%q", first, got)
    }
  }
}

func TestSplitSentencesFiltersEmpties(t *testing.T) {
  got := splitSentences("Hello... World!! Fine?")
  if len(got) != 3 {
    t.Fatalf("sentence count: want=3 got=%d (%v)", len(got), got)
  }
}
