package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ai-docqa-be/internal/model"
	"ai-docqa-be/pkg/checkpoint"
)

type CheckpointRepositoryImpl struct {
	db *gorm.DB
}

func NewCheckpointRepository(db *gorm.DB) checkpoint.Repository {
	return &CheckpointRepositoryImpl{db: db}
}

func (r *CheckpointRepositoryImpl) Create(ctx context.Context, record *checkpoint.Record) error {
	m, err := toCheckpointModel(record)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *CheckpointRepositoryImpl) FindByID(ctx context.Context, threadID, checkpointID string) (*checkpoint.Record, error) {
	id, err := uuid.Parse(checkpointID)
	if err != nil {
		return nil, err
	}
	var m model.Checkpoint
	err = r.db.WithContext(ctx).
		Where("thread_id = ? AND id = ?", threadID, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toCheckpointRecord(&m)
}

func (r *CheckpointRepositoryImpl) FindLatest(ctx context.Context, threadID string) (*checkpoint.Record, error) {
	var m model.Checkpoint
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toCheckpointRecord(&m)
}

func (r *CheckpointRepositoryImpl) ListByThread(ctx context.Context, threadID string) ([]*checkpoint.Record, error) {
	var models []*model.Checkpoint
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]*checkpoint.Record, len(models))
	for i, m := range models {
		record, err := toCheckpointRecord(m)
		if err != nil {
			return nil, err
		}
		records[i] = record
	}
	return records, nil
}

func (r *CheckpointRepositoryImpl) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Delete(&model.Checkpoint{})
	return res.RowsAffected, res.Error
}

func (r *CheckpointRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Checkpoint{})
	return res.RowsAffected, res.Error
}

func toCheckpointModel(record *checkpoint.Record) (*model.Checkpoint, error) {
	id, err := uuid.Parse(record.CheckpointID)
	if err != nil {
		return nil, err
	}
	var parentId *uuid.UUID
	if record.ParentCheckpointID != nil {
		parsed, err := uuid.Parse(*record.ParentCheckpointID)
		if err != nil {
			return nil, err
		}
		parentId = &parsed
	}
	versions, err := json.Marshal(record.ChannelVersions)
	if err != nil {
		return nil, err
	}
	return &model.Checkpoint{
		Id:                 id,
		ThreadId:           record.ThreadID,
		ParentCheckpointId: parentId,
		StateSnapshot:      datatypes.JSON(record.StateSnapshot),
		ChannelVersions:    datatypes.JSON(versions),
		CreatedAt:          record.Timestamp,
	}, nil
}

func toCheckpointRecord(m *model.Checkpoint) (*checkpoint.Record, error) {
	var versions map[string]int
	if len(m.ChannelVersions) > 0 {
		if err := json.Unmarshal(m.ChannelVersions, &versions); err != nil {
			return nil, err
		}
	}
	var parentId *string
	if m.ParentCheckpointId != nil {
		s := m.ParentCheckpointId.String()
		parentId = &s
	}
	return &checkpoint.Record{
		CheckpointID:       m.Id.String(),
		ThreadID:           m.ThreadId,
		ParentCheckpointID: parentId,
		StateSnapshot:      []byte(m.StateSnapshot),
		ChannelVersions:    versions,
		Timestamp:          m.CreatedAt,
	}, nil
}
