package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/types"
)

type ArtifactProgressRepo interface {
  GetByUserAndArtifactID(ctx context.Context, tx *gorm.DB, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ArtifactProgress, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.ArtifactProgress) error
  DeleteByUserAndArtifactID(ctx context.Context, tx *gorm.DB, userID, artifactID uuid.UUID) error
}

type artifactProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewArtifactProgressRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactProgressRepo {
  repoLog := baseLog.With("repo", "ArtifactProgressRepo")
  return &artifactProgressRepo{db: db, log: repoLog}
}

func (r *artifactProgressRepo) GetByUserAndArtifactID(ctx context.Context, tx *gorm.DB, userID, artifactID uuid.UUID) (*types.ArtifactProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || artifactID == uuid.Nil {
    return nil, nil
  }

  var row types.ArtifactProgress
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND artifact_id = ?", userID, artifactID).
    Limit(1).
    Find(&row).Error
  if err != nil {
    return nil, err
  }
  if row.ID == uuid.Nil {
    return nil, nil
  }
  return &row, nil
}

func (r *artifactProgressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ArtifactProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ArtifactProgress
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *artifactProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ArtifactProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Upsert by unique user_id + artifact_id
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND artifact_id = ?", row.UserID, row.ArtifactID).
    Assign(row).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *artifactProgressRepo) DeleteByUserAndArtifactID(ctx context.Context, tx *gorm.DB, userID, artifactID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || artifactID == uuid.Nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("user_id = ? AND artifact_id = ?", userID, artifactID).
    Delete(&types.ArtifactProgress{}).Error; err != nil {
    return err
  }
  return nil
}
