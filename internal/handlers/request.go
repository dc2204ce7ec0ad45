package handlers

import (
  "fmt"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/studyforge-backend/internal/types"
)

const userIDHeader = "X-User-ID"

// userIDFrom reads the caller identity from the X-User-ID header. Requests
// without a parseable user id are rejected before touching any service.
func userIDFrom(c *gin.Context) (uuid.UUID, error) {
  raw := c.GetHeader(userIDHeader)
  if raw == "" {
    return uuid.Nil, fmt.Errorf("%s header required", userIDHeader)
  }
  id, err := uuid.Parse(raw)
  if err != nil {
    return uuid.Nil, fmt.Errorf("invalid %s header", userIDHeader)
  }
  return id, nil
}

// parseScope builds a content scope from the raw id strings of a request.
// Exactly one of the two must be set.
func parseScope(studyMaterialID, spaceID string) (types.ContentScope, error) {
  var scope types.ContentScope
  if (studyMaterialID == "") == (spaceID == "") {
    return scope, fmt.Errorf("exactly one of study_material_id or space_id is required")
  }
  if studyMaterialID != "" {
    id, err := uuid.Parse(studyMaterialID)
    if err != nil {
      return scope, fmt.Errorf("invalid study_material_id")
    }
    scope.StudyMaterialID = id
  }
  if spaceID != "" {
    id, err := uuid.Parse(spaceID)
    if err != nil {
      return scope, fmt.Errorf("invalid space_id")
    }
    scope.SpaceID = id
  }
  return scope, nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
  id, err := uuid.Parse(c.Param(name))
  if err != nil {
    return uuid.Nil, fmt.Errorf("invalid %s", name)
  }
  return id, nil
}
