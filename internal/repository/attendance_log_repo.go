package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visit-sync/backend/internal/model"
)

// AttendanceLogRepository 分组同步水位线数据访问接口
type AttendanceLogRepository interface {
	// GetByGroup 查询分组水位线，不存在返回 gorm.ErrRecordNotFound
	GetByGroup(ctx context.Context, groupID string) (*model.GroupAttendanceLog, error)
	// Upsert 按 group_id 幂等写入水位线
	Upsert(ctx context.Context, log *model.GroupAttendanceLog) error
}

type attendanceLogRepo struct {
	db *gorm.DB
}

// NewAttendanceLogRepo 创建 AttendanceLogRepository 实例
func NewAttendanceLogRepo(db *gorm.DB) AttendanceLogRepository {
	return &attendanceLogRepo{db: db}
}

func (r *attendanceLogRepo) GetByGroup(ctx context.Context, groupID string) (*model.GroupAttendanceLog, error) {
	var log model.GroupAttendanceLog
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *attendanceLogRepo) Upsert(ctx context.Context, log *model.GroupAttendanceLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_parsed_at", "start_date", "end_date"}),
		}).
		Create(log).Error
}
