package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Checkpoint struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ThreadId           string         `gorm:"type:varchar(255);not null;index"`
	ParentCheckpointId *uuid.UUID     `gorm:"type:uuid"`
	StateSnapshot      datatypes.JSON `gorm:"type:jsonb;not null"`
	ChannelVersions    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt          time.Time      `gorm:"default:now();not null;index"`
}

func (Checkpoint) TableName() string {
	return "workflow_checkpoints"
}
