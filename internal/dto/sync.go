package dto

import "time"

// SyncWindowQuery 可选的显式同步区间（缺省为 [纪元, 今天]）
type SyncWindowQuery struct {
	Start string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" binding:"omitempty,datetime=2006-01-02"`
}

// GroupSyncResult 单个分组的同步结果
type GroupSyncResult struct {
	GroupID      string     `json:"group_id"`
	GroupName    string     `json:"group_name"`
	WindowStart  *time.Time `json:"window_start,omitempty"`
	WindowEnd    *time.Time `json:"window_end,omitempty"`
	PairsSeen    int        `json:"pairs_seen"`
	VisitsParsed int        `json:"visits_parsed"`
	VisitsSaved  int64      `json:"visits_saved"`
	Skipped      bool       `json:"skipped"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// SyncSummary 一次同步运行的汇总
type SyncSummary struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Groups     []GroupSyncResult `json:"groups"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
}
