package services

import (
  "strings"
)

const DefaultWordsPerMinute = 200

const (
  DifficultyBeginner     = "beginner"
  DifficultyIntermediate = "intermediate"
  DifficultyAdvanced     = "advanced"
)

// Fixed vocabulary of terms that usually mark technical writing. Matching is
// case-insensitive substring counting, so "algorithms" counts for "algorithm".
var technicalVocabulary = []string{
  "algorithm",
  "methodology",
  "implementation",
  "infrastructure",
  "optimization",
}

// estimateReadingTime returns whole minutes, rounding up.
func estimateReadingTime(wordCount, wordsPerMinute int) int {
  if wordCount <= 0 {
    return 0
  }
  if wordsPerMinute <= 0 {
    wordsPerMinute = DefaultWordsPerMinute
  }
  return (wordCount + wordsPerMinute - 1) / wordsPerMinute
}

// classifyDifficulty scores text on sentence length, long words and technical
// vocabulary. Deterministic: the same text always gets the same tier.
func classifyDifficulty(text string) string {
  sentences := splitSentences(text)
  words := strings.Fields(text)

  avgSentenceLength := 0.0
  if len(sentences) > 0 {
    totalWords := 0
    for _, s := range sentences {
      totalWords += len(strings.Fields(s))
    }
    avgSentenceLength = float64(totalWords) / float64(len(sentences))
  }

  complexWords := 0
  for _, w := range words {
    if len(w) >= 10 {
      complexWords++
    }
  }

  lower := strings.ToLower(text)
  technicalTerms := 0
  for _, term := range technicalVocabulary {
    technicalTerms += strings.Count(lower, term)
  }

  score := avgSentenceLength/20.0 + float64(complexWords)/100.0 + float64(technicalTerms)/10.0
  switch {
  case score > 2:
    return DifficultyAdvanced
  case score > 1:
    return DifficultyIntermediate
  default:
    return DifficultyBeginner
  }
}

func splitSentences(text string) []string {
  raw := strings.FieldsFunc(text, func(r rune) bool {
    return r == '.' || r == '!' || r == '?'
  })
  out := make([]string, 0, len(raw))
  for _, s := range raw {
    if strings.TrimSpace(s) == "" {
      continue
    }
    out = append(out, s)
  }
  return out
}
