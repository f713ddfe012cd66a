package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visit-sync/backend/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]model.Student, error)
	// MapByKodstud 按门户学号批量查询，返回 kodstud → 学生 的映射
	MapByKodstud(ctx context.Context, kodstuds []int) (map[int]model.Student, error)
	// Upsert 按 kodstud 幂等写入：已存在时更新姓名与所属分组
	Upsert(ctx context.Context, student *model.Student) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) ListByGroup(ctx context.Context, groupID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("full_name").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) MapByKodstud(ctx context.Context, kodstuds []int) (map[int]model.Student, error) {
	result := make(map[int]model.Student, len(kodstuds))
	if len(kodstuds) == 0 {
		return result, nil
	}

	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("kodstud IN ?", kodstuds).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	for _, s := range students {
		result[s.Kodstud] = s
	}
	return result, nil
}

func (r *studentRepo) Upsert(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kodstud"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "group_id", "stud_id", "updated_at"}),
		}).
		Create(student).Error
}
