package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProgressStatusNotStarted = "not_started"
	ProgressStatusInProgress = "in_progress"
	ProgressStatusCompleted  = "completed"
)

type ArtifactProgress struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_artifact,unique" json:"user_id"`
	ArtifactID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_artifact,unique" json:"artifact_id"`
	Artifact        *Artifact      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ArtifactID;references:ID" json:"artifact,omitempty"`
	Status          string         `gorm:"column:status;not null;default:'not_started'" json:"status"`
	CurrentIndex    int            `gorm:"column:current_index;not null;default:0" json:"current_index"`
	TotalItems      int            `gorm:"column:total_items;not null;default:0" json:"total_items"`
	Answers         datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`
	FeedbackShown   datatypes.JSON `gorm:"type:jsonb;column:feedback_shown" json:"feedback_shown"`
	ArtifactVersion string         `gorm:"column:artifact_version" json:"artifact_version"`
	LastAttemptedAt *time.Time     `gorm:"column:last_attempted_at" json:"last_attempted_at,omitempty"`
	CompletedAt     *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ArtifactProgress) TableName() string { return "artifact_progress" }
