package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visit-sync/backend/internal/model"
)

// AbsenceRow 缺勤报表行（联表查询产物）
type AbsenceRow struct {
	StudentID  string                 `json:"student_id"`
	FullName   string                 `json:"full_name"`
	Date       time.Time              `json:"date"`
	PairNumber int                    `json:"pair_number"`
	Discipline string                 `json:"discipline"`
	Status     model.AttendanceStatus `json:"status"`
	Detail     string                 `json:"detail"`
}

// VisitRepository 考勤记录数据访问接口
// 考勤记录只追加不修改，历史事实一经写入不再变更
type VisitRepository interface {
	// BatchCreate 批量写入，(student_id, pair_id) 冲突时跳过
	BatchCreate(ctx context.Context, visits []model.Visit) (int64, error)
	CountByGroup(ctx context.Context, groupID string) (int64, error)
	// ListAbsences 查询分组在区间内的非出勤记录
	ListAbsences(ctx context.Context, groupID string, start, end time.Time) ([]AbsenceRow, error)
}

type visitRepo struct {
	db *gorm.DB
}

// NewVisitRepo 创建 VisitRepository 实例
func NewVisitRepo(db *gorm.DB) VisitRepository {
	return &visitRepo{db: db}
}

func (r *visitRepo) BatchCreate(ctx context.Context, visits []model.Visit) (int64, error) {
	if len(visits) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "pair_id"}},
			DoNothing: true,
		}).
		CreateInBatches(visits, 200)
	return result.RowsAffected, result.Error
}

func (r *visitRepo) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Joins("JOIN students ON students.student_id = visits.student_id").
		Where("students.group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *visitRepo) ListAbsences(ctx context.Context, groupID string, start, end time.Time) ([]AbsenceRow, error) {
	var rows []AbsenceRow
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Select(`visits.student_id, students.full_name, pairs.date, pairs.pair_number,
			pairs.discipline, visits.status, visits.detail`).
		Joins("JOIN students ON students.student_id = visits.student_id").
		Joins("JOIN pairs ON pairs.pair_id = visits.pair_id").
		Where("students.group_id = ?", groupID).
		Where("visits.status <> ?", model.StatusPresent).
		Where("pairs.date >= ? AND pairs.date <= ?", start, end).
		Order("pairs.date, pairs.pair_number, students.full_name").
		Scan(&rows).Error
	return rows, err
}
