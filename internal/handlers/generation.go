package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/services"
)

type GenerationHandler struct {
  log        *logger.Logger
  content    services.ContentService
  quiz       services.QuizGenerationService
  flashcards services.FlashcardGenerationService
  summaries  services.SummaryGenerationService
}

func NewGenerationHandler(log *logger.Logger, content services.ContentService, quiz services.QuizGenerationService, flashcards services.FlashcardGenerationService, summaries services.SummaryGenerationService) *GenerationHandler {
  return &GenerationHandler{
    log:        log.With("handler", "GenerationHandler"),
    content:    content,
    quiz:       quiz,
    flashcards: flashcards,
    summaries:  summaries,
  }
}

type generateQuizRequest struct {
  StudyMaterialID string `json:"study_material_id"`
  SpaceID         string `json:"space_id"`
  Count           int    `json:"count"`
  QuestionType    string `json:"question_type"`
}

type generateFlashcardsRequest struct {
  StudyMaterialID string `json:"study_material_id"`
  SpaceID         string `json:"space_id"`
  Count           int    `json:"count"`
}

type generateSummaryRequest struct {
  StudyMaterialID string `json:"study_material_id"`
  SpaceID         string `json:"space_id"`
}

// POST /api/quiz/generate
func (h *GenerationHandler) GenerateQuiz(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }

  var req generateQuizRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }
  scope, err := parseScope(req.StudyMaterialID, req.SpaceID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  artifact, err := h.quiz.Generate(c.Request.Context(), userID, scope, req.Count, req.QuestionType)
  if err != nil {
    respondGenerationError(c, err)
    return
  }
  RespondOK(c, artifact)
}

// POST /api/flashcards/generate
func (h *GenerationHandler) GenerateFlashcards(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }

  var req generateFlashcardsRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }
  scope, err := parseScope(req.StudyMaterialID, req.SpaceID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  artifact, err := h.flashcards.Generate(c.Request.Context(), userID, scope, req.Count)
  if err != nil {
    respondGenerationError(c, err)
    return
  }
  RespondOK(c, artifact)
}

// POST /api/summary/generate
func (h *GenerationHandler) GenerateSummary(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }

  var req generateSummaryRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }
  scope, err := parseScope(req.StudyMaterialID, req.SpaceID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  artifact, err := h.summaries.Generate(c.Request.Context(), userID, scope)
  if err != nil {
    respondGenerationError(c, err)
    return
  }
  RespondOK(c, artifact)
}

// GET /api/content/stats?study_material_id=|space_id=
func (h *GenerationHandler) GetContentStats(c *gin.Context) {
  scope, err := parseScope(c.Query("study_material_id"), c.Query("space_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  stats, err := h.content.Stats(c.Request.Context(), scope)
  if err != nil {
    respondGenerationError(c, err)
    return
  }
  RespondOK(c, stats)
}

func respondGenerationError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrNoContent):
    RespondError(c, http.StatusNotFound, CodeNoContent, err)
  case errors.Is(err, services.ErrAllUnitsFailed), errors.Is(err, services.ErrRollupFailed):
    RespondError(c, http.StatusBadGateway, CodeGenerationFailed, err)
  default:
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
  }
}
