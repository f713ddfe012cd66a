package dto

// RosterRefreshResult 名册刷新结果
type RosterRefreshResult struct {
	GroupsUpserted   int `json:"groups_upserted"`
	StudentsUpserted int `json:"students_upserted"`
}

// GroupItem 分组列表条目
type GroupItem struct {
	GroupID  string `json:"group_id"`
	PortalID int    `json:"portal_id"`
	Name     string `json:"name"`
	Students int    `json:"students,omitempty"`
}

// StudentItem 学生列表条目
type StudentItem struct {
	StudentID string `json:"student_id"`
	Kodstud   int    `json:"kodstud"`
	FullName  string `json:"full_name"`
}
