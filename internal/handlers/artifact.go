package handlers

import (
  "errors"
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/services"
)

type ArtifactHandler struct {
  log       *logger.Logger
  artifacts services.ArtifactService
}

func NewArtifactHandler(log *logger.Logger, artifacts services.ArtifactService) *ArtifactHandler {
  return &ArtifactHandler{
    log:       log.With("handler", "ArtifactHandler"),
    artifacts: artifacts,
  }
}

// GET /api/artifacts/:id
// Serves the answer-stripped view: quiz answer keys and flashcard answers
// never reach the client here.
func (h *ArtifactHandler) GetArtifact(c *gin.Context) {
  artifactID, err := pathUUID(c, "id")
  if err != nil {
    RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
    return
  }

  view, err := h.artifacts.GetSanitized(c.Request.Context(), artifactID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
    return
  }
  if view == nil {
    RespondError(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("artifact not found"))
    return
  }
  RespondOK(c, view)
}

// GET /api/artifacts?kind=
func (h *ArtifactHandler) ListArtifacts(c *gin.Context) {
  userID, err := userIDFrom(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, CodeInvalidUser, err)
    return
  }

  rows, err := h.artifacts.ListByUser(c.Request.Context(), userID, c.Query("kind"))
  if err != nil {
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
    return
  }
  RespondOK(c, gin.H{"artifacts": rows})
}

// DELETE /api/artifacts/:id
func (h *ArtifactHandler) DeleteArtifact(c *gin.Context) {
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

  if err := h.artifacts.Delete(c.Request.Context(), userID, artifactID); err != nil {
    if errors.Is(err, services.ErrArtifactNotFound) {
      RespondError(c, http.StatusNotFound, CodeNotFound, err)
      return
    }
    RespondError(c, http.StatusInternalServerError, CodeInternalError, err)
    return
  }
  RespondOK(c, gin.H{"deleted": artifactID})
}
