package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ArtifactKindQuizSet      = "quiz_set"
	ArtifactKindFlashcardSet = "flashcard_set"
	ArtifactKindSummary      = "summary"
)

type Artifact struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind               string         `gorm:"column:kind;not null;index" json:"kind"` // quiz_set|flashcard_set|summary
	StudyMaterialID    *uuid.UUID     `gorm:"type:uuid;index" json:"study_material_id,omitempty"`
	SpaceID            *uuid.UUID     `gorm:"type:uuid;index" json:"space_id,omitempty"`
	Title              string         `gorm:"column:title" json:"title"`
	Payload            datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Version            string         `gorm:"column:version;not null" json:"version"`
	ItemCount          int            `gorm:"column:item_count;not null;default:0" json:"item_count"`
	ReadingTimeMinutes int            `gorm:"column:reading_time_minutes;not null;default:0" json:"reading_time_minutes"`
	Difficulty         string         `gorm:"column:difficulty" json:"difficulty"` // beginner|intermediate|advanced
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Artifact) TableName() string { return "artifact" }
