package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visit-sync/backend/internal/model"
)

// GroupRepository 学生分组数据访问接口
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetByPortalID(ctx context.Context, portalID int) (*model.Group, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Group, error)
	// Upsert 按门户分组 ID 幂等写入：已存在时更新名称与策展教师
	Upsert(ctx context.Context, group *model.Group) error
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Where("group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetByPortalID(ctx context.Context, portalID int) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Where("portal_id = ?", portalID).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("name").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) Upsert(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "portal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "teacher_id", "updated_at"}),
		}).
		Create(group).Error
}
