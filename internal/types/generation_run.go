package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationRun struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind            string         `gorm:"column:kind;not null;index" json:"kind"` // quiz_set|flashcard_set|summary
	StudyMaterialID *uuid.UUID     `gorm:"type:uuid;index" json:"study_material_id,omitempty"`
	SpaceID         *uuid.UUID     `gorm:"type:uuid;index" json:"space_id,omitempty"`
	RequestedCount  int            `gorm:"column:requested_count;not null;default:0" json:"requested_count"`
	QuestionType    string         `gorm:"column:question_type" json:"question_type,omitempty"`
	Status          string         `gorm:"column:status;not null;index" json:"status"` // queued|running|succeeded|failed
	Stage           string         `gorm:"column:stage;not null;index" json:"stage"`   // retrieve|organize|generate|aggregate|persist|done
	Progress        int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Attempts        int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error           string         `gorm:"column:error" json:"error"`
	LastErrorAt     *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt        *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt     *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	ArtifactID      *uuid.UUID     `gorm:"type:uuid;index" json:"artifact_id,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GenerationRun) TableName() string { return "generation_run" }
