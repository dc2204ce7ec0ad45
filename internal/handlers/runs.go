package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/services"
)

type RunHandler struct {
  log  *logger.Logger
  runs services.RunService
}

func NewRunHandler(log *logger.Logger, runs services.RunService) *RunHandler {
  return &RunHandler{
    log:  log.With("handler", "RunHandler"),
    runs: runs,
  }
}

type generateAsyncRequest struct {
  Kind            string `json:"kind"`
  StudyMaterialID string `json:"study_material_id"`
  SpaceID         string `json:"space_id"`
  Count           int    `json:"count"`
  QuestionType    string `json:"question_type"`
}

// POST /api/artifacts/generate-async
// Enqueues a generation run; poll GET /api/runs/:id for the outcome.
func (h *RunHandler) GenerateAsync(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }

  var req generateAsyncRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }
  scope, err := parseScope(req.StudyMaterialID, req.SpaceID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  run, err := h.runs.Enqueue(c.Request.Context(), userID, req.Kind, scope, req.Count, req.QuestionType)
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }
  RespondAccepted(c, run)
}

// GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
  runID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  run, err := h.runs.Get(c.Request.Context(), runID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
    return
  }
  if run == nil {
    RespondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("run not found"))
    return
  }
  RespondOK(c, run)
}
