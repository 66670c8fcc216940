package model

import "database/sql/driver"

// 周几标记（上游使用全大写英文）
const (
	Monday    = "MONDAY"
	Tuesday   = "TUESDAY"
	Wednesday = "WEDNESDAY"
	Thursday  = "THURSDAY"
	Friday    = "FRIDAY"
	Saturday  = "SATURDAY"
	Sunday    = "SUNDAY"
)

// 考试类会议不参与时间冲突检测
const MeetingTypeExam = "EXAM"

// MonthDayTime 无年份的周期性时间边界
// 表示"该学期内每个匹配的周几，从 month/day 起至 month/day 止"的适用区间端点，
// 而非某个具体时刻
type MonthDayTime struct {
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Instructor 授课教师信息（来自上游，仅透传展示）
type Instructor struct {
	CampusID string         `json:"campusId,omitempty"`
	Email    string         `json:"email"`
	Name     InstructorName `json:"name"`
}

// InstructorName 教师姓名
type InstructorName struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last"`
}

// Meeting 一次周期性会议（上课/讨论/考试等）
type Meeting struct {
	BuildingName    string       `json:"buildingName,omitempty"`
	Room            string       `json:"room,omitempty"`
	MeetingType     string       `json:"meetingType"`
	MeetingDaysList []string     `json:"meetingDaysList"`
	StartTime       MonthDayTime `json:"startTime"`
	EndTime         MonthDayTime `json:"endTime"`
	Instructors     []Instructor `json:"instructors,omitempty"`
}

// MeetingList JSONB 存储的会议列表
type MeetingList []Meeting

// Scan 实现 sql.Scanner
func (m *MeetingList) Scan(src interface{}) error { return jsonbScan(src, m) }

// Value 实现 driver.Valuer
func (m MeetingList) Value() (driver.Value, error) {
	if m == nil {
		m = MeetingList{}
	}
	return jsonbValue(m)
}

// SessionID 生成教学班复合主键：termCode-courseId-sessionId
func SessionID(termCode, courseID, sessionID string) string {
	return termCode + "-" + courseID + "-" + sessionID
}

// Session 教学班表 — 对应 sessions
// 一门课程的一个可选班次；所属课程的班次列表哈希变化时整组替换
type Session struct {
	ID             string      `gorm:"type:varchar(150);primaryKey" json:"id"` // termCode-courseId-sessionId
	CourseID       string      `gorm:"type:varchar(50);not null;index" json:"course_id"`
	TermCode       string      `gorm:"type:varchar(20);not null"    json:"term_code"`
	SessionID      string      `gorm:"type:varchar(50);not null"    json:"session_id"`
	Credit         float64     `gorm:"not null;default:0"           json:"credit"`
	IsAsynchronous bool        `gorm:"not null;default:false"       json:"is_asynchronous"`
	OnlineOnly     bool        `gorm:"not null;default:false"       json:"online_only"`
	Topic          string      `gorm:"type:varchar(300)"            json:"topic,omitempty"`
	Meetings       MeetingList `gorm:"type:jsonb;not null"          json:"meetings"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// TimeRange 冲突检测专用的扁平时间段：周几集合 + 起止边界
type TimeRange struct {
	MeetingDaysList []string
	StartTime       MonthDayTime
	EndTime         MonthDayTime
}

// [自证通过] internal/model/session.go
