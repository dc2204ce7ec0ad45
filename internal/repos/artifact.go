package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/studyforge-backend/internal/logger"
  "github.com/yungbote/studyforge-backend/internal/types"
)

type ArtifactRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Artifact) ([]*types.Artifact, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Artifact, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind string) ([]*types.Artifact, error)
  SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type artifactRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
  repoLog := baseLog.With("repo", "ArtifactRepo")
  return &artifactRepo{db: db, log: repoLog}
}

func (r *artifactRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Artifact) ([]*types.Artifact, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Artifact{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *artifactRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Artifact, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if id == uuid.Nil {
    return nil, nil
  }

  var row types.Artifact
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
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

func (r *artifactRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind string) ([]*types.Artifact, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Artifact
  if userID == uuid.Nil {
    return results, nil
  }

  q := transaction.WithContext(ctx).Where("user_id = ?", userID)
  if kind != "" {
    q = q.Where("kind = ?", kind)
  }
  if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *artifactRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(ids) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Delete(&types.Artifact{}).Error; err != nil {
    return err
  }
  return nil
}
