package dto

// ── 目录模块 DTO ──

// SyncCourseListRequest 触发学期课程目录同步请求
// forceUpdate 为必填，缺省视为请求体不合法（与历史 API 行为一致）
type SyncCourseListRequest struct {
	ForceUpdate *bool `json:"forceUpdate" binding:"required"`
}

// TermListResponse 可用学期列表响应
type TermListResponse struct {
	TermList []string `json:"termList"`
}

// CourseSearchRequest 课程搜索请求
type CourseSearchRequest struct {
	TermCode   string `form:"termCode"   binding:"required"`
	CourseName string `form:"courseName" binding:"required"`
}

// CourseSearchResponse 课程搜索响应
type CourseSearchResponse struct {
	Found  bool                `json:"found"`
	Result *CourseSearchResult `json:"result,omitempty"`
}

// CourseSearchResult 命中课程及其全部教学班
type CourseSearchResult struct {
	CourseID       string            `json:"courseId"`
	CourseName     string            `json:"courseName"`
	FullCourseName string            `json:"fullCourseName"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	SessionList    []SessionResponse `json:"sessionList"`
}

// SessionResponse 教学班响应
type SessionResponse struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"sessionId"`
	Credit         float64           `json:"credits"`
	IsAsynchronous bool              `json:"isAsynchronous"`
	OnlineOnly     bool              `json:"onlineOnly"`
	Topic          string            `json:"topic,omitempty"`
	Meetings       []MeetingResponse `json:"meetings"`
}

// MeetingResponse 会议响应
type MeetingResponse struct {
	BuildingName    string    `json:"buildingName,omitempty"`
	Room            string    `json:"room,omitempty"`
	MeetingType     string    `json:"meetingType"`
	MeetingDaysList []string  `json:"meetingDaysList"`
	StartTime       TimePoint `json:"startTime"`
	EndTime         TimePoint `json:"endTime"`
}

// TimePoint 无年份时间边界 DTO
type TimePoint struct {
	Month  int `json:"month"  binding:"min=1,max=12"`
	Day    int `json:"day"    binding:"min=1,max=31"`
	Hour   int `json:"hour"   binding:"min=0,max=23"`
	Minute int `json:"minute" binding:"min=0,max=59"`
}
