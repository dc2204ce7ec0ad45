package qdrant

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/studyforge-backend/internal/types"
)

func TestScopeFilterStudyMaterial(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	got := scopeFilter(types.ContentScope{StudyMaterialID: id})

	must, ok := got["must"].([]any)
	if !ok || len(must) != 1 {
		t.Fatalf("must length: want=1 got=%v", got["must"])
	}
	cond, ok := must[0].(map[string]any)
	if !ok {
		t.Fatalf("condition type: got=%T", must[0])
	}
	if cond["key"] != "study_material_id" {
		t.Fatalf("condition key: want=study_material_id got=%v", cond["key"])
	}
	match, ok := cond["match"].(map[string]any)
	if !ok || match["value"] != id.String() {
		t.Fatalf("condition match: got=%v", cond["match"])
	}
}

func TestScopeFilterSpace(t *testing.T) {
	id := uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	got := scopeFilter(types.ContentScope{SpaceID: id})

	must, ok := got["must"].([]any)
	if !ok || len(must) != 1 {
		t.Fatalf("must length: want=1 got=%v", got["must"])
	}
	cond := must[0].(map[string]any)
	if cond["key"] != "space_id" {
		t.Fatalf("condition key: want=space_id got=%v", cond["key"])
	}
}

func TestChunkFromPayload(t *testing.T) {
	item := qdrantSearchResultItem{
		ID:    json.RawMessage(`"point-1"`),
		Score: 0.92,
		Payload: map[string]any{
			"text":              "Cells are the basic unit of life.",
			"chunk_index":       float64(7),
			"word_count":        float64(8),
			"study_material_id": "mat-1",
		},
	}

	chunk, ok := chunkFromPayload(item)
	if !ok {
		t.Fatalf("chunkFromPayload: expected ok")
	}
	if chunk.ID != "point-1" {
		t.Fatalf("chunk id: want=point-1 got=%q", chunk.ID)
	}
	if chunk.ChunkIndex != 7 {
		t.Fatalf("chunk index: want=7 got=%d", chunk.ChunkIndex)
	}
	if chunk.WordCount != 8 {
		t.Fatalf("word count: want=8 got=%d", chunk.WordCount)
	}
	if chunk.StudyMaterialID != "mat-1" {
		t.Fatalf("study material id: want=mat-1 got=%q", chunk.StudyMaterialID)
	}
}

func TestChunkFromPayloadSkipsEmptyText(t *testing.T) {
	item := qdrantSearchResultItem{
		ID:      json.RawMessage(`42`),
		Payload: map[string]any{"text": "   ", "chunk_index": float64(0)},
	}
	if _, ok := chunkFromPayload(item); ok {
		t.Fatalf("chunkFromPayload: expected skip for blank text")
	}
}

func TestParseEnvelopeStatus(t *testing.T) {
	if got := parseEnvelopeStatus(json.RawMessage(`"ok"`)); got != "" {
		t.Fatalf("ok status: want empty got=%q", got)
	}
	if got := parseEnvelopeStatus(json.RawMessage(`{"error":"collection not found"}`)); got != "collection not found" {
		t.Fatalf("error status: got=%q", got)
	}
}
