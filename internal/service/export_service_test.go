package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/dto"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// ════════════════════════════════════════════════════════════
// 课表导出服务测试
// ════════════════════════════════════════════════════════════

func newTestExportService() (ExportService, ScheduleService, *mockCourseRepo, *mockSessionRepo) {
	repo, courseRepo, sessionRepo, _, _, _ := newTestRepository()
	exportSvc := NewExportService(repo, time.UTC, zap.NewNop())
	scheduleSvc := NewScheduleService(repo, zap.NewNop())
	return exportSvc, scheduleSvc, courseRepo, sessionRepo
}

// buildExportFixture 装配一张含 1 个班次 + 1 个日程的课表
func buildExportFixture(t *testing.T, scheduleSvc ScheduleService, courseRepo *mockCourseRepo, sessionRepo *mockSessionRepo) string {
	t.Helper()
	ctx := context.Background()

	courseRepo.BatchCreate(ctx, []model.Course{testCourse(testTerm, "024960", "CS 540")})
	lecture := testSession(testTerm, "024960", "LEC001",
		lectureMeeting([]string{model.Monday, model.Wednesday}, 9, 30, 10, 45))
	sessionRepo.BatchCreate(ctx, []model.Session{lecture})

	schedule, err := scheduleSvc.Create(ctx, testOwner, &dto.CreateScheduleRequest{TermCode: testTerm})
	if err != nil {
		t.Fatalf("创建课表失败: %v", err)
	}
	if _, err := scheduleSvc.AddSession(ctx, schedule.ID, testOwner, &dto.AddScheduleSessionRequest{
		SessionID: lecture.ID,
	}); err != nil {
		t.Fatalf("挂接班次失败: %v", err)
	}
	if _, err := scheduleSvc.AddEvent(ctx, schedule.ID, testOwner, &dto.AddEventRequest{
		Title:           "Research meeting",
		Location:        "CS 4310",
		MeetingDaysList: []string{model.Friday},
		StartTime:       dto.TimePoint{Month: 9, Day: 6, Hour: 14, Minute: 0},
		EndTime:         dto.TimePoint{Month: 12, Day: 6, Hour: 15, Minute: 0},
	}); err != nil {
		t.Fatalf("添加日程失败: %v", err)
	}
	return schedule.ID
}

func TestExportICS(t *testing.T) {
	exportSvc, scheduleSvc, courseRepo, sessionRepo := newTestExportService()
	scheduleID := buildExportFixture(t, scheduleSvc, courseRepo, sessionRepo)

	buf, filename, err := exportSvc.ExportICS(context.Background(), scheduleID, testOwner)
	if err != nil {
		t.Fatalf("导出 ICS 失败: %v", err)
	}
	if filename != "schedule_1252.ics" {
		t.Errorf("文件名期望 schedule_1252.ics, 实际 %s", filename)
	}

	content := buf.String()
	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("缺少 VCALENDAR 块")
	}
	if strings.Count(content, "BEGIN:VEVENT") != 2 {
		t.Errorf("VEVENT 数量期望 2, 实际 %d", strings.Count(content, "BEGIN:VEVENT"))
	}
	if !strings.Contains(content, "CS 540 (LEC001)") {
		t.Error("班次事件应以课程名 + 班次号为标题")
	}
	if !strings.Contains(content, "BYDAY=MO,WE") {
		t.Error("班次事件缺少周一/周三重复规则")
	}
	if !strings.Contains(content, "BYDAY=FR") {
		t.Error("日程事件缺少周五重复规则")
	}
	if !strings.Contains(content, "Research meeting") {
		t.Error("缺少自定义日程事件")
	}
}

func TestExportExcel(t *testing.T) {
	exportSvc, scheduleSvc, courseRepo, sessionRepo := newTestExportService()
	scheduleID := buildExportFixture(t, scheduleSvc, courseRepo, sessionRepo)

	buf, filename, err := exportSvc.ExportExcel(context.Background(), scheduleID, testOwner)
	if err != nil {
		t.Fatalf("导出 Excel 失败: %v", err)
	}
	if filename != "schedule_1252.xlsx" {
		t.Errorf("文件名期望 schedule_1252.xlsx, 实际 %s", filename)
	}
	if buf.Len() == 0 {
		t.Error("Excel 内容不应为空")
	}
}

func TestExport_EmptyScheduleRejected(t *testing.T) {
	exportSvc, scheduleSvc, _, _ := newTestExportService()
	ctx := context.Background()

	schedule, err := scheduleSvc.Create(ctx, testOwner, &dto.CreateScheduleRequest{TermCode: testTerm})
	if err != nil {
		t.Fatalf("创建课表失败: %v", err)
	}

	if _, _, err := exportSvc.ExportICS(ctx, schedule.ID, testOwner); !errors.Is(err, ErrExportEmptySchedule) {
		t.Errorf("空课表导出期望 ErrExportEmptySchedule, 实际 %v", err)
	}
}

func TestExport_OwnershipEnforced(t *testing.T) {
	exportSvc, scheduleSvc, courseRepo, sessionRepo := newTestExportService()
	scheduleID := buildExportFixture(t, scheduleSvc, courseRepo, sessionRepo)

	if _, _, err := exportSvc.ExportICS(context.Background(), scheduleID, testIntruder); !errors.Is(err, ErrScheduleForbidden) {
		t.Errorf("他人导出期望 ErrScheduleForbidden, 实际 %v", err)
	}
}

func TestTermYear(t *testing.T) {
	// 1252 → 2024-25 学年：秋季月份落在 2024，春季月份落在 2025
	if got := termYear("1252", 9); got != 2024 {
		t.Errorf("1252 年 9 月期望 2024, 实际 %d", got)
	}
	if got := termYear("1252", 2); got != 2025 {
		t.Errorf("1252 年 2 月期望 2025, 实际 %d", got)
	}
	if got := termYear("1194", 10); got != 2018 {
		t.Errorf("1194 年 10 月期望 2018, 实际 %d", got)
	}
}

func TestContainsWeekday(t *testing.T) {
	days := []string{model.Monday, model.Wednesday}
	if !containsWeekday(days, time.Monday) {
		t.Error("MONDAY 应匹配 time.Monday")
	}
	if containsWeekday(days, time.Sunday) {
		t.Error("不含周日的列表不应匹配 time.Sunday")
	}
	// 未知标记不得因零值落在周日而误匹配
	if containsWeekday([]string{"FUNDAY"}, time.Sunday) {
		t.Error("未知周几标记不应匹配 time.Sunday")
	}
}
