package services

import (
  "encoding/json"
  "fmt"
  "strings"

  "github.com/yungbote/studyforge-backend/internal/types"
)

const quizSystemPrompt = `You are an expert educator writing quiz questions from study material.
Every question must be answerable from the provided material alone.
For multiple-choice questions produce exactly four options with ids "a", "b", "c", "d",
one correct_option_id matching an option id, and a short explanation of the correct answer.
For open text questions leave options empty and correct_option_id blank.`

const flashcardSystemPrompt = `You are an expert educator writing study flashcards.
Each card has a question, a concise factual answer, and an optional short hint.
Base every card on the provided material alone.`

const summarySystemPrompt = `You are an expert at summarizing study material.
Write clear, structured summaries that preserve the important ideas and terminology
of the source without adding outside facts.`

func buildQuizUserPrompt(chapter types.Chapter, count int, questionType string) string {
  var sb strings.Builder
  fmt.Fprintf(&sb, "Write %d quiz questions for the material below.\n", count)
  switch questionType {
  case types.QuestionTypeMCQ:
    sb.WriteString("All questions must be multiple-choice (type \"mcq\").\n")
  case types.QuestionTypeText:
    sb.WriteString("All questions must be open text questions (type \"text\").\n")
  default:
    sb.WriteString("Mix multiple-choice (type \"mcq\") and open text (type \"text\") questions.\n")
  }
  fmt.Fprintf(&sb, "\n%s:\n%s\n", chapter.Title, chapter.Content)
  return sb.String()
}

func buildFlashcardUserPrompt(chapter types.Chapter, count int) string {
  var sb strings.Builder
  fmt.Fprintf(&sb, "Write %d flashcards for the material below.\n", count)
  fmt.Fprintf(&sb, "\n%s:\n%s\n", chapter.Title, chapter.Content)
  return sb.String()
}

func buildSummaryUserPrompt(content string) string {
  var sb strings.Builder
  sb.WriteString("Summarize the material below. Produce a title, a main summary, ")
  sb.WriteString("the key points, and the important concepts a learner should retain.\n\n")
  sb.WriteString(content)
  return sb.String()
}

func buildSectionSummaryUserPrompt(index int, content string) string {
  var sb strings.Builder
  fmt.Fprintf(&sb, "Summarize section %d of a longer document. ", index+1)
  sb.WriteString("Produce a short title, a summary, and the key points of this section only.\n\n")
  sb.WriteString(content)
  return sb.String()
}

// buildRollupUserPrompt formats the per-section outputs for the final
// synthesis pass over a sectioned document.
func buildRollupUserPrompt(sections []types.SectionSummary) string {
  var sb strings.Builder
  sb.WriteString("Below are summaries of consecutive sections of one document. ")
  sb.WriteString("Synthesize them into a single cohesive summary of the whole document ")
  sb.WriteString("with a title, a main summary, the key points, and the important concepts.\n")
  for i, sec := range sections {
    fmt.Fprintf(&sb, "\nSection %d: %s\n%s\n", i+1, sec.Title, sec.Summary)
    if len(sec.KeyPoints) > 0 {
      fmt.Fprintf(&sb, "Key Points: %s\n", strings.Join(sec.KeyPoints, "; "))
    }
  }
  return sb.String()
}

func quizSchema() map[string]any {
  return map[string]any{
    "type": "object",
    "properties": map[string]any{
      "questions": map[string]any{
        "type": "array",
        "items": map[string]any{
          "type": "object",
          "properties": map[string]any{
            "type":   map[string]any{"type": "string", "enum": []string{"mcq", "text"}},
            "prompt": map[string]any{"type": "string"},
            "options": map[string]any{
              "type": "array",
              "items": map[string]any{
                "type": "object",
                "properties": map[string]any{
                  "id":   map[string]any{"type": "string"},
                  "text": map[string]any{"type": "string"},
                },
                "required":             []string{"id", "text"},
                "additionalProperties": false,
              },
            },
            "correct_option_id": map[string]any{"type": "string"},
            "explanation":       map[string]any{"type": "string"},
          },
          "required":             []string{"type", "prompt", "options", "correct_option_id", "explanation"},
          "additionalProperties": false,
        },
      },
    },
    "required":             []string{"questions"},
    "additionalProperties": false,
  }
}

func flashcardSchema() map[string]any {
  return map[string]any{
    "type": "object",
    "properties": map[string]any{
      "cards": map[string]any{
        "type": "array",
        "items": map[string]any{
          "type": "object",
          "properties": map[string]any{
            "question": map[string]any{"type": "string"},
            "answer":   map[string]any{"type": "string"},
            "hint":     map[string]any{"type": "string"},
          },
          "required":             []string{"question", "answer", "hint"},
          "additionalProperties": false,
        },
      },
    },
    "required":             []string{"cards"},
    "additionalProperties": false,
  }
}

func summarySchema() map[string]any {
  return map[string]any{
    "type": "object",
    "properties": map[string]any{
      "title":        map[string]any{"type": "string"},
      "main_summary": map[string]any{"type": "string"},
      "key_points": map[string]any{
        "type":  "array",
        "items": map[string]any{"type": "string"},
      },
      "important_concepts": map[string]any{
        "type":  "array",
        "items": map[string]any{"type": "string"},
      },
    },
    "required":             []string{"title", "main_summary", "key_points", "important_concepts"},
    "additionalProperties": false,
  }
}

func sectionSummarySchema() map[string]any {
  return map[string]any{
    "type": "object",
    "properties": map[string]any{
      "title":   map[string]any{"type": "string"},
      "summary": map[string]any{"type": "string"},
      "key_points": map[string]any{
        "type":  "array",
        "items": map[string]any{"type": "string"},
      },
    },
    "required":             []string{"title", "summary", "key_points"},
    "additionalProperties": false,
  }
}

// decodeInto re-marshals a schema-validated generation result into a typed struct.
func decodeInto(obj map[string]any, out any) error {
  raw, err := json.Marshal(obj)
  if err != nil {
    return err
  }
  return json.Unmarshal(raw, out)
}
