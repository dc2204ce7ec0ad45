package services

import (
  "fmt"

  "github.com/google/uuid"

  "github.com/yungbote/studyforge-backend/internal/types"
)

const (
  DefaultQuizQuestionCount = 5
  MaxQuizQuestionCount     = 20
  DefaultFlashcardCount    = 20
  MaxFlashcardCount        = 50

  DefaultUnitParallelism = 4
)

func scopeLabel(scope types.ContentScope) string {
  if scope.SpaceID != uuid.Nil {
    return fmt.Sprintf("space_id=%s", scope.SpaceID.String())
  }
  return fmt.Sprintf("study_material_id=%s", scope.StudyMaterialID.String())
}

func scopeRefs(scope types.ContentScope) (studyMaterialID, spaceID *uuid.UUID) {
  if scope.StudyMaterialID != uuid.Nil {
    id := scope.StudyMaterialID
    studyMaterialID = &id
  }
  if scope.SpaceID != uuid.Nil {
    id := scope.SpaceID
    spaceID = &id
  }
  return studyMaterialID, spaceID
}
