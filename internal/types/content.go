package types

import (
	"github.com/google/uuid"
)

// ContentChunk is one indexed slice of study material, as stored in the
// vector collection payload.
type ContentChunk struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	ChunkIndex      int    `json:"chunk_index"`
	WordCount       int    `json:"word_count"`
	StudyMaterialID string `json:"study_material_id,omitempty"`
}

type Chapter struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// ContentScope selects which indexed material a request targets.
// Exactly one of StudyMaterialID or SpaceID must be set.
type ContentScope struct {
	StudyMaterialID uuid.UUID `json:"study_material_id,omitempty"`
	SpaceID         uuid.UUID `json:"space_id,omitempty"`
}

func (s ContentScope) Valid() bool {
	return (s.StudyMaterialID != uuid.Nil) != (s.SpaceID != uuid.Nil)
}
