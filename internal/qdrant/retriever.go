package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studyforge-backend/internal/logger"
	"github.com/yungbote/studyforge-backend/internal/types"
)

const (
	payloadTextKey            = "text"
	payloadChunkIndexKey      = "chunk_index"
	payloadWordCountKey       = "word_count"
	payloadStudyMaterialIDKey = "study_material_id"
	payloadSpaceIDKey         = "space_id"

	maxErrorBodyBytes = 1024

	// Broad probe query: retrieval is scoped by payload filter, the vector
	// only ranks within the scope.
	probeQuery = "overview of the main topics and concepts covered in this material"
)

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type ChunkRetriever interface {
	RetrieveChunks(ctx context.Context, scope types.ContentScope, maxResults int) ([]types.ContentChunk, error)
}

type chunkRetriever struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	embedder Embedder
	http     *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewChunkRetriever(log *logger.Logger, cfg Config, embedder Embedder) (ChunkRetriever, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	r := &chunkRetriever{
		log:      log.With("service", "QdrantChunkRetriever"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		embedder: embedder,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	log.Info(
		"Qdrant chunk retriever configured",
		"url", r.baseURL,
		"collection", cfg.Collection,
		"probe_limit", cfg.ProbeLimit,
	)
	return r, nil
}

func (r *chunkRetriever) RetrieveChunks(ctx context.Context, scope types.ContentScope, maxResults int) ([]types.ContentChunk, error) {
	const op = "retrieve_chunks"
	if !scope.Valid() {
		return nil, opErr(op, OperationErrorValidation, "exactly one of study_material_id or space_id is required", nil)
	}
	if maxResults <= 0 {
		maxResults = r.cfg.ProbeLimit
	}

	vecs, err := r.embedder.Embed(ctx, []string{probeQuery})
	if err != nil {
		return nil, opErr(op, OperationErrorQueryFailed, "probe embedding failed", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, opErr(op, OperationErrorQueryFailed, "probe embedding empty", nil)
	}

	req := map[string]any{
		"vector":       vecs[0],
		"limit":        maxResults,
		"with_payload": true,
		"with_vector":  false,
		"filter":       scopeFilter(scope),
	}
	var rawResults []qdrantSearchResultItem
	if err := r.doJSON(
		ctx,
		op,
		http.MethodPost,
		r.collectionPath("/points/search"),
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	out := make([]types.ContentChunk, 0, len(rawResults))
	for _, item := range rawResults {
		chunk, ok := chunkFromPayload(item)
		if !ok {
			continue
		}
		out = append(out, chunk)
	}

	r.log.Debug("Chunk retrieval done",
		"collection", r.cfg.Collection,
		"requested", maxResults,
		"returned", len(out),
	)
	return out, nil
}

// scopeFilter builds the payload filter for a content scope.
func scopeFilter(scope types.ContentScope) map[string]any {
	key := payloadStudyMaterialIDKey
	value := scope.StudyMaterialID.String()
	if scope.SpaceID != uuid.Nil {
		key = payloadSpaceIDKey
		value = scope.SpaceID.String()
	}
	return map[string]any{
		"must": []any{
			map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			},
		},
	}
}

func chunkFromPayload(item qdrantSearchResultItem) (types.ContentChunk, bool) {
	text := stringFromAny(item.Payload[payloadTextKey])
	if strings.TrimSpace(text) == "" {
		return types.ContentChunk{}, false
	}
	return types.ContentChunk{
		ID:              decodePointID(item.ID),
		Text:            text,
		ChunkIndex:      intFromAny(item.Payload[payloadChunkIndexKey]),
		WordCount:       intFromAny(item.Payload[payloadWordCountKey]),
		StudyMaterialID: stringFromAny(item.Payload[payloadStudyMaterialIDKey]),
	}, true
}

func (r *chunkRetriever) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func intFromAny(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

func (r *chunkRetriever) collectionPath(suffix string) string {
	path := "/collections/" + r.cfg.Collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}
