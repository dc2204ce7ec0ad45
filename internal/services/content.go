package services

import (
  "context"
  "fmt"
  "sort"
  "strings"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/qdrant"
  "github.com/yungbote/studyforge-backend/internal/types"
)

const (
  DefaultChunkThreshold   = 5
  DefaultMaxSectionLength = 10000
  DefaultSinglePassLimit  = 50000
)

type ContentStats struct {
  ChunkCount         int    `json:"chunk_count"`
  ChapterCount       int    `json:"chapter_count"`
  ContentLength      int    `json:"content_length"`
  WordCount          int    `json:"word_count"`
  ReadingTimeMinutes int    `json:"reading_time_minutes"`
  Difficulty         string `json:"difficulty"`
  Sectioned          bool   `json:"sectioned"`
  SectionCount       int    `json:"section_count"`
}

// ContentService runs the deterministic front half of the pipeline:
// chunk retrieval and chapter organization. Generation services build on it.
type ContentService interface {
  Chapters(ctx context.Context, scope types.ContentScope) ([]types.Chapter, error)
  Stats(ctx context.Context, scope types.ContentScope) (*ContentStats, error)
  // WordsPerMinute is the configured reading rate, shared with the
  // generation services so stored artifacts and stats agree.
  WordsPerMinute() int
}

type contentService struct {
  log              *logger.Logger
  retriever        qdrant.ChunkRetriever
  chunkThreshold   int
  maxSectionLength int
  singlePassLimit  int
  wordsPerMinute   int
}

func NewContentService(log *logger.Logger, retriever qdrant.ChunkRetriever, chunkThreshold, maxSectionLength, singlePassLimit, wordsPerMinute int) ContentService {
  if chunkThreshold <= 0 {
    chunkThreshold = DefaultChunkThreshold
  }
  if maxSectionLength <= 0 {
    maxSectionLength = DefaultMaxSectionLength
  }
  if singlePassLimit <= 0 {
    singlePassLimit = DefaultSinglePassLimit
  }
  if wordsPerMinute <= 0 {
    wordsPerMinute = DefaultWordsPerMinute
  }
  return &contentService{
    log:              log.With("service", "ContentService"),
    retriever:        retriever,
    chunkThreshold:   chunkThreshold,
    maxSectionLength: maxSectionLength,
    singlePassLimit:  singlePassLimit,
    wordsPerMinute:   wordsPerMinute,
  }
}

func (s *contentService) WordsPerMinute() int {
  return s.wordsPerMinute
}

func (s *contentService) Chapters(ctx context.Context, scope types.ContentScope) ([]types.Chapter, error) {
  if !scope.Valid() {
    return nil, fmt.Errorf("exactly one of study_material_id or space_id is required")
  }

  chunks, err := s.retriever.RetrieveChunks(ctx, scope, 0)
  if err != nil {
    return nil, fmt.Errorf("chunk retrieval: %w", err)
  }
  if len(chunks) == 0 {
    return nil, ErrNoContent
  }

  chapters := organizeChapters(chunks, s.chunkThreshold)
  s.log.Debug("Organized chunks into chapters",
    "chunks", len(chunks),
    "chapters", len(chapters),
    "chunk_threshold", s.chunkThreshold,
  )
  return chapters, nil
}

func (s *contentService) Stats(ctx context.Context, scope types.ContentScope) (*ContentStats, error) {
  if !scope.Valid() {
    return nil, fmt.Errorf("exactly one of study_material_id or space_id is required")
  }

  chunks, err := s.retriever.RetrieveChunks(ctx, scope, 0)
  if err != nil {
    return nil, fmt.Errorf("chunk retrieval: %w", err)
  }
  if len(chunks) == 0 {
    return nil, ErrNoContent
  }

  chapters := organizeChapters(chunks, s.chunkThreshold)
  content := joinChapters(chapters)
  words := countWords(content)

  stats := &ContentStats{
    ChunkCount:         len(chunks),
    ChapterCount:       len(chapters),
    ContentLength:      len(content),
    WordCount:          words,
    ReadingTimeMinutes: estimateReadingTime(words, s.wordsPerMinute),
    Difficulty:         classifyDifficulty(content),
    Sectioned:          len(content) > s.singlePassLimit,
  }
  if stats.Sectioned {
    stats.SectionCount = len(splitSections(content, s.maxSectionLength))
  }
  return stats, nil
}

// organizeChapters groups position-sorted chunks into fixed-size chapters.
// A new chapter opens every chunkThreshold chunks; the last one may be short.
func organizeChapters(chunks []types.ContentChunk, chunkThreshold int) []types.Chapter {
  if chunkThreshold <= 0 {
    chunkThreshold = DefaultChunkThreshold
  }

  sorted := make([]types.ContentChunk, len(chunks))
  copy(sorted, chunks)
  sort.SliceStable(sorted, func(i, j int) bool {
    return sorted[i].ChunkIndex < sorted[j].ChunkIndex
  })

  var chapters []types.Chapter
  for i, chunk := range sorted {
    if i%chunkThreshold == 0 {
      chapters = append(chapters, types.Chapter{
        Title:      fmt.Sprintf("Chapter %d", len(chapters)+1),
        Content:    chunk.Text,
        StartIndex: chunk.ChunkIndex,
        EndIndex:   chunk.ChunkIndex,
      })
      continue
    }
    last := &chapters[len(chapters)-1]
    last.Content += "\n\n" + chunk.Text
    last.EndIndex = chunk.ChunkIndex
  }
  return chapters
}

// splitSections packs paragraphs greedily into sections of at most
// maxSectionLength characters. Paragraphs are never split; a single paragraph
// longer than the limit becomes its own oversized section.
func splitSections(content string, maxSectionLength int) []string {
  if maxSectionLength <= 0 {
    maxSectionLength = DefaultMaxSectionLength
  }
  if len(content) <= maxSectionLength {
    return []string{content}
  }

  paragraphs := strings.Split(content, "\n\n")
  var sections []string
  current := ""
  for _, paragraph := range paragraphs {
    if len(current)+len(paragraph) > maxSectionLength && len(current) > 0 {
      sections = append(sections, strings.TrimSpace(current))
      current = paragraph
      continue
    }
    if current == "" {
      current = paragraph
    } else {
      current += "\n\n" + paragraph
    }
  }
  if strings.TrimSpace(current) != "" {
    sections = append(sections, strings.TrimSpace(current))
  }
  return sections
}

func joinChapters(chapters []types.Chapter) string {
  parts := make([]string, 0, len(chapters))
  for _, ch := range chapters {
    parts = append(parts, ch.Content)
  }
  return strings.Join(parts, "\n\n")
}

func countWords(text string) int {
  return len(strings.Fields(text))
}

func ceilDiv(a, b int) int {
  if b <= 0 {
    return a
  }
  return (a + b - 1) / b
}
