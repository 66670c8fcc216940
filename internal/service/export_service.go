package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmptySchedule = errors.New("课表为空，无可导出内容")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - ICS 按 RFC 5545 生成周期性事件，日历应用可直接订阅导入
//   - Excel 为扁平清单：每个会议/日程一行，按周几 + 开始时间排序
//   - 两种格式均以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportICS 导出课表为 iCalendar
	ExportICS(ctx context.Context, scheduleID, callerEmail string) (*bytes.Buffer, string, error)
	// ExportExcel 导出课表为 Excel
	ExportExcel(ctx context.Context, scheduleID, callerEmail string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, location *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, location: location, logger: logger}
}

// exportEntry 导出用的扁平条目：一个会议或一个自定义日程
type exportEntry struct {
	Title           string
	Location        string
	MeetingType     string
	MeetingDaysList []string
	StartTime       model.MonthDayTime
	EndTime         model.MonthDayTime
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, scheduleID, callerEmail string) (*bytes.Buffer, string, error) {
	schedule, entries, err := s.loadEntries(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//CollegeMate//Schedule API//EN")
	cal.SetXWRCalName(fmt.Sprintf("CollegeMate %s", schedule.TermCode))

	now := time.Now()
	for i, entry := range entries {
		start, end, ok := s.recurrenceWindow(schedule.TermCode, entry)
		if !ok {
			// 无会议日或边界不合法的条目（如异步网课）不产出事件
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%d@collegemate", scheduleID, i))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(meetingDuration(entry)))
		event.SetSummary(entry.Title)
		if entry.Location != "" {
			event.SetLocation(entry.Location)
		}
		event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
			icsByDay(entry.MeetingDaysList), end.UTC().Format("20060102T150405Z")))
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("序列化 ICS 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.ics", schedule.TermCode)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportExcel — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，表头：星期 | 名称 | 类型 | 地点 | 开始 | 结束
//   - 行按周几 + 开始时间排序，多会议日的条目每天一行

func (s *exportService) ExportExcel(ctx context.Context, scheduleID, callerEmail string) (*bytes.Buffer, string, error) {
	schedule, entries, err := s.loadEntries(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, "", err
	}

	type rowDef struct {
		dayIndex int
		dayName  string
		entry    exportEntry
	}
	var rows []rowDef
	for _, entry := range entries {
		for _, day := range entry.MeetingDaysList {
			rows = append(rows, rowDef{
				dayIndex: weekdayIndex(day),
				dayName:  weekdayLabel(day),
				entry:    entry,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].dayIndex != rows[j].dayIndex {
			return rows[i].dayIndex < rows[j].dayIndex
		}
		a, b := rows[i].entry.StartTime, rows[j].entry.StartTime
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.Minute < b.Minute
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课程表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 24)
	f.SetColWidth(sheetName, "E", "F", 8)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 课程表", schedule.TermCode))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"星期", "名称", "类型", "地点", "开始", "结束"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, 2), h)
	}

	row := 3
	for _, rd := range rows {
		f.SetCellValue(sheetName, cell("A", row), rd.dayName)
		f.SetCellValue(sheetName, cell("B", row), rd.entry.Title)
		f.SetCellValue(sheetName, cell("C", row), rd.entry.MeetingType)
		f.SetCellValue(sheetName, cell("D", row), rd.entry.Location)
		f.SetCellValue(sheetName, cell("E", row), clockLabel(rd.entry.StartTime))
		f.SetCellValue(sheetName, cell("F", row), clockLabel(rd.entry.EndTime))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.xlsx", schedule.TermCode)
	return buf, filename, nil
}

// ── 内部辅助 ──

// loadEntries 加载课表并摊平为导出条目（含考试会议）
func (s *exportService) loadEntries(ctx context.Context, scheduleID, callerEmail string) (*model.Schedule, []exportEntry, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, nil, err
	}
	if schedule.Email != callerEmail {
		return nil, nil, ErrScheduleForbidden
	}

	var entries []exportEntry
	for _, ref := range schedule.SessionList {
		session, err := s.repo.Session.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warn("课表引用的教学班不存在", zap.String("session", ref.ID))
				continue
			}
			return nil, nil, err
		}

		title := session.SessionID
		course, err := s.repo.Course.GetByID(ctx, model.CourseID(session.TermCode, session.CourseID))
		if err == nil {
			title = fmt.Sprintf("%s (%s)", course.CourseName, session.SessionID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}

		for _, meeting := range session.Meetings {
			location := meeting.BuildingName
			if meeting.Room != "" {
				location += " " + meeting.Room
			}
			entries = append(entries, exportEntry{
				Title:           title,
				Location:        location,
				MeetingType:     meeting.MeetingType,
				MeetingDaysList: meeting.MeetingDaysList,
				StartTime:       meeting.StartTime,
				EndTime:         meeting.EndTime,
			})
		}
	}

	for _, event := range schedule.EventList {
		entries = append(entries, exportEntry{
			Title:           event.Title,
			Location:        event.Location,
			MeetingType:     "EVENT",
			MeetingDaysList: event.MeetingDaysList,
			StartTime:       event.StartTime,
			EndTime:         event.EndTime,
		})
	}

	if len(entries) == 0 {
		return nil, nil, ErrExportEmptySchedule
	}
	return schedule, entries, nil
}

// recurrenceWindow 计算条目的首次发生时刻与重复截止时刻
// 时间边界不含年份，日历年由学期代码推算（见 termYear）
func (s *exportService) recurrenceWindow(termCode string, entry exportEntry) (time.Time, time.Time, bool) {
	if len(entry.MeetingDaysList) == 0 {
		return time.Time{}, time.Time{}, false
	}
	if entry.StartTime.Month < 1 || entry.StartTime.Month > 12 || entry.StartTime.Day < 1 {
		return time.Time{}, time.Time{}, false
	}

	startYear := termYear(termCode, entry.StartTime.Month)
	endYear := termYear(termCode, entry.EndTime.Month)

	first := time.Date(startYear, time.Month(entry.StartTime.Month), entry.StartTime.Day,
		entry.StartTime.Hour, entry.StartTime.Minute, 0, 0, s.location)
	// 推进到首个落在会议日集合内的日期
	for i := 0; i < 7; i++ {
		if containsWeekday(entry.MeetingDaysList, first.Weekday()) {
			break
		}
		first = first.AddDate(0, 0, 1)
	}

	until := time.Date(endYear, time.Month(entry.EndTime.Month), entry.EndTime.Day,
		23, 59, 59, 0, s.location)
	if until.Before(first) {
		return time.Time{}, time.Time{}, false
	}
	return first, until, true
}

// termYear 由学期代码推算日历年
func termYear(termCode string, month int) int {
	if len(termCode) != 4 {
		return time.Now().Year()
	}
	century, err1 := strconv.Atoi(termCode[:1])
	yy, err2 := strconv.Atoi(termCode[1:3])
	if err1 != nil || err2 != nil {
		return time.Now().Year()
	}
	year := 1900 + century*100 + yy
	// 秋季学期的 8-12 月属学年起始的上一日历年
	if month >= 8 {
		year--
	}
	return year
}

// meetingDuration 单次会议时长（按起止时刻的墙钟差）
func meetingDuration(entry exportEntry) time.Duration {
	startMin := entry.StartTime.Hour*60 + entry.StartTime.Minute
	endMin := entry.EndTime.Hour*60 + entry.EndTime.Minute
	if endMin <= startMin {
		return time.Hour
	}
	return time.Duration(endMin-startMin) * time.Minute
}

var icsWeekdayCodes = map[string]string{
	model.Monday:    "MO",
	model.Tuesday:   "TU",
	model.Wednesday: "WE",
	model.Thursday:  "TH",
	model.Friday:    "FR",
	model.Saturday:  "SA",
	model.Sunday:    "SU",
}

func icsByDay(days []string) string {
	out := ""
	for _, day := range days {
		code, ok := icsWeekdayCodes[day]
		if !ok {
			continue
		}
		if out != "" {
			out += ","
		}
		out += code
	}
	return out
}

var goWeekdays = map[string]time.Weekday{
	model.Monday:    time.Monday,
	model.Tuesday:   time.Tuesday,
	model.Wednesday: time.Wednesday,
	model.Thursday:  time.Thursday,
	model.Friday:    time.Friday,
	model.Saturday:  time.Saturday,
	model.Sunday:    time.Sunday,
}

func containsWeekday(days []string, w time.Weekday) bool {
	for _, day := range days {
		// 未知周几标记不参与匹配，避免零值落在周日上
		if wd, ok := goWeekdays[day]; ok && wd == w {
			return true
		}
	}
	return false
}

var weekdayOrder = map[string]int{
	model.Monday:    1,
	model.Tuesday:   2,
	model.Wednesday: 3,
	model.Thursday:  4,
	model.Friday:    5,
	model.Saturday:  6,
	model.Sunday:    7,
}

func weekdayIndex(day string) int {
	if idx, ok := weekdayOrder[day]; ok {
		return idx
	}
	return 8
}

var weekdayLabels = map[string]string{
	model.Monday:    "周一",
	model.Tuesday:   "周二",
	model.Wednesday: "周三",
	model.Thursday:  "周四",
	model.Friday:    "周五",
	model.Saturday:  "周六",
	model.Sunday:    "周日",
}

func weekdayLabel(day string) string {
	if label, ok := weekdayLabels[day]; ok {
		return label
	}
	return day
}

func clockLabel(t model.MonthDayTime) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
