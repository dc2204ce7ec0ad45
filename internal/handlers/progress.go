package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/services"
)

type ProgressHandler struct {
  log      *logger.Logger
  progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
  return &ProgressHandler{
    log:      log.With("handler", "ProgressHandler"),
    progress: progress,
  }
}

type submitAnswerRequest struct {
  Index    int    `json:"index"`
  AnswerID string `json:"answer_id"`
}

type setPositionRequest struct {
  Index int `json:"index"`
}

// GET /api/artifacts/:id/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }
  artifactID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.progress.Get(c.Request.Context(), userID, artifactID)
  if err != nil {
    respondProgressError(c, err)
    return
  }
  RespondOK(c, row)
}

// POST /api/artifacts/:id/progress/answer
func (h *ProgressHandler) SubmitAnswer(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }
  artifactID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  var req submitAnswerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.progress.SubmitAnswer(c.Request.Context(), userID, artifactID, req.Index, req.AnswerID)
  if err != nil {
    respondProgressError(c, err)
    return
  }
  RespondOK(c, row)
}

// POST /api/artifacts/:id/progress/position
func (h *ProgressHandler) SetPosition(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }
  artifactID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  var req setPositionRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.progress.SetPosition(c.Request.Context(), userID, artifactID, req.Index)
  if err != nil {
    respondProgressError(c, err)
    return
  }
  RespondOK(c, row)
}

// DELETE /api/artifacts/:id/progress
func (h *ProgressHandler) ResetProgress(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }
  artifactID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  row, err := h.progress.Reset(c.Request.Context(), userID, artifactID)
  if err != nil {
    respondProgressError(c, err)
    return
  }
  RespondOK(c, row)
}

func respondProgressError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrArtifactNotFound):
    RespondError(c, http.StatusNotFound, CodeNotFound, err)
  case errors.Is(err, services.ErrIndexOutOfRange):
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
  default:
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
  }
}
