package dto

// ── 课表模块 DTO ──

// CreateScheduleRequest 创建课表请求
type CreateScheduleRequest struct {
	TermCode string `json:"termCode" binding:"required"`
}

// ScheduleResponse 课表详情响应
type ScheduleResponse struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	TermCode    string               `json:"termCode"`
	SessionList []SessionRefResponse `json:"sessionList"`
	EventList   []EventResponse      `json:"eventList"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
}

// ScheduleSummaryResponse 课表列表项响应
type ScheduleSummaryResponse struct {
	ID       string `json:"id"`
	TermCode string `json:"termCode"`
}

// SessionRefResponse 课表中的班次引用响应
type SessionRefResponse struct {
	ID        string `json:"id"`
	ColorCode int    `json:"colorCode"`
}

// EventResponse 自定义日程响应
type EventResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Location        string    `json:"location,omitempty"`
	MeetingDaysList []string  `json:"meetingDaysList"`
	StartTime       TimePoint `json:"startTime"`
	EndTime         TimePoint `json:"endTime"`
	Memo            string    `json:"memo,omitempty"`
	ColorCode       int       `json:"colorCode"`
}

// AddEventRequest 新增自定义日程请求
type AddEventRequest struct {
	Title           string    `json:"title"           binding:"required,max=100"`
	Location        string    `json:"location"        binding:"max=200"`
	MeetingDaysList []string  `json:"meetingDaysList" binding:"required,min=1,dive,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime       TimePoint `json:"startTime"       binding:"required"`
	EndTime         TimePoint `json:"endTime"         binding:"required"`
	Memo            string    `json:"memo"            binding:"max=500"`
	ColorCode       int       `json:"colorCode"       binding:"min=0"`
}

// UpdateEventRequest 修改自定义日程请求（字段均可选，nil 表示不变）
type UpdateEventRequest struct {
	Title           *string    `json:"title"           binding:"omitempty,max=100"`
	Location        *string    `json:"location"        binding:"omitempty,max=200"`
	MeetingDaysList []string   `json:"meetingDaysList" binding:"omitempty,min=1,dive,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime       *TimePoint `json:"startTime"`
	EndTime         *TimePoint `json:"endTime"`
	Memo            *string    `json:"memo"            binding:"omitempty,max=500"`
	ColorCode       *int       `json:"colorCode"       binding:"omitempty,min=0"`
}

// TouchesTime 判断本次修改是否引入了新的时间信息
// 仅改颜色/备注等字段时跳过冲突检测
func (r *UpdateEventRequest) TouchesTime() bool {
	return r.StartTime != nil || r.EndTime != nil || len(r.MeetingDaysList) > 0
}

// AddScheduleSessionRequest 课表挂接目录班次请求
type AddScheduleSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"` // 目录 Session 复合主键
	ColorCode int    `json:"colorCode" binding:"min=0"`
}
