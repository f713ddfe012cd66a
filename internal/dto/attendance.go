package dto

import "time"

// AbsenceReportRequest 缺勤报表查询请求
// 日期格式 2006-01-02；End 缺省为当天
type AbsenceReportRequest struct {
	Start string `form:"start" binding:"required,datetime=2006-01-02"`
	End   string `form:"end" binding:"omitempty,datetime=2006-01-02"`
}

// AbsenceItem 缺勤报表条目
type AbsenceItem struct {
	StudentID  string    `json:"student_id"`
	FullName   string    `json:"full_name"`
	Date       time.Time `json:"date"`
	PairNumber int       `json:"pair_number"`
	Discipline string    `json:"discipline"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
}

// AbsenceReportResponse 缺勤报表响应
type AbsenceReportResponse struct {
	GroupID   string        `json:"group_id"`
	GroupName string        `json:"group_name"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Total     int           `json:"total"`
	Items     []AbsenceItem `json:"items"`
}
