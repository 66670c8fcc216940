package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// CatalogClient 上游选课目录客户端契约
// 目录同步引擎只依赖该接口；真实实现访问公开选课 API
type CatalogClient interface {
	// FetchCourseList 抓取某学期全部课程
	FetchCourseList(ctx context.Context, termCode string) ([]model.Course, error)
	// FetchSessionList 抓取某门课程的全部教学班
	FetchSessionList(ctx context.Context, termCode, subjectCode, courseID string) ([]model.Session, error)
}

// 上游 meetingTimeStart/End 为自午夜起的毫秒偏移，且相对 UTC-6 基准
const meetingTimeBaseOffsetMillis = 21600000

// HTTPClient 基于公开选课 API 的 CatalogClient 实现
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	location   *time.Location
}

// NewHTTPClient 创建上游客户端
// 时区加载失败时退回 UTC（仅影响会议时间的本地化展示）
func NewHTTPClient(cfg *config.UpstreamConfig) *HTTPClient {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		location:   loc,
	}
}

// ── 上游响应结构 ──

type searchRequest struct {
	SelectedTerm string `json:"selectedTerm"`
	QueryString  string `json:"queryString"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
}

type searchResponse struct {
	Found int         `json:"found"`
	Hits  []searchHit `json:"hits"`
}

type searchHit struct {
	CourseID              string `json:"courseId"`
	CourseDesignation     string `json:"courseDesignation"`
	FullCourseDesignation string `json:"fullCourseDesignation"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Subject               struct {
		SubjectCode string `json:"subjectCode"`
	} `json:"subject"`
}

type enrollmentPackage struct {
	ID           json.Number `json:"id"`
	Credits      float64     `json:"credits"`
	OnlineOnly   bool        `json:"onlineOnly"`
	Asynchronous bool        `json:"isAsynchronous"`
	Sections     []section   `json:"sections"`
}

type section struct {
	Topic         string         `json:"topic"`
	StartDate     int64          `json:"startDate"` // epoch 毫秒
	EndDate       int64          `json:"endDate"`
	ClassMeetings []classMeeting `json:"classMeetings"`
	Instructors   []instructor   `json:"instructors"`
}

type classMeeting struct {
	MeetingType      string   `json:"meetingType"`
	MeetingTimeStart int64    `json:"meetingTimeStart"`
	MeetingTimeEnd   int64    `json:"meetingTimeEnd"`
	MeetingDaysList  []string `json:"meetingDaysList"`
	Building         *struct {
		BuildingName string `json:"buildingName"`
	} `json:"building"`
	Room string `json:"room"`
}

type instructor struct {
	CampusID string `json:"campusId"`
	Email    string `json:"email"`
	Name     struct {
		First  string `json:"first"`
		Middle string `json:"middle"`
		Last   string `json:"last"`
	} `json:"name"`
}

// FetchCourseList 抓取某学期全部课程
// 上游搜索接口需要先以 pageSize=1 探测总量，再一次性取回全部
func (c *HTTPClient) FetchCourseList(ctx context.Context, termCode string) ([]model.Course, error) {
	probe, err := c.search(ctx, searchRequest{
		SelectedTerm: termCode,
		QueryString:  "*",
		Page:         1,
		PageSize:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("探测课程总量失败: %w", err)
	}
	if probe.Found == 0 {
		return []model.Course{}, nil
	}

	full, err := c.search(ctx, searchRequest{
		SelectedTerm: termCode,
		QueryString:  "*",
		Page:         1,
		PageSize:     probe.Found,
	})
	if err != nil {
		return nil, fmt.Errorf("抓取课程列表失败: %w", err)
	}

	courses := make([]model.Course, 0, len(full.Hits))
	for _, hit := range full.Hits {
		courses = append(courses, model.Course{
			ID:             model.CourseID(termCode, hit.CourseID),
			CourseID:       hit.CourseID,
			TermCode:       termCode,
			SubjectCode:    hit.Subject.SubjectCode,
			CourseName:     hit.CourseDesignation,
			FullCourseName: hit.FullCourseDesignation,
			Title:          hit.Title,
			Description:    hit.Description,
		})
	}
	return courses, nil
}

func (c *HTTPClient) search(ctx context.Context, body searchRequest) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上游返回异常状态: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchSessionList 抓取某门课程的全部教学班
func (c *HTTPClient) FetchSessionList(ctx context.Context, termCode, subjectCode, courseID string) ([]model.Session, error) {
	url := fmt.Sprintf("%s/enrollmentPackages/%s/%s/%s", c.baseURL, termCode, subjectCode, courseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上游返回异常状态: %d", resp.StatusCode)
	}

	var packages []enrollmentPackage
	if err := json.NewDecoder(resp.Body).Decode(&packages); err != nil {
		return nil, err
	}

	sessions := make([]model.Session, 0, len(packages))
	for _, pkg := range packages {
		sessionID := pkg.ID.String()
		session := model.Session{
			ID:             model.SessionID(termCode, courseID, sessionID),
			CourseID:       courseID,
			TermCode:       termCode,
			SessionID:      sessionID,
			Credit:         pkg.Credits,
			IsAsynchronous: pkg.Asynchronous,
			OnlineOnly:     pkg.OnlineOnly,
			Meetings:       model.MeetingList{},
		}
		for _, sec := range pkg.Sections {
			if sec.Topic != "" {
				session.Topic = sec.Topic
			}
			instructors := convertInstructors(sec.Instructors)
			for _, meeting := range sec.ClassMeetings {
				session.Meetings = append(session.Meetings, model.Meeting{
					BuildingName:    buildingName(meeting),
					Room:            meeting.Room,
					MeetingType:     meeting.MeetingType,
					MeetingDaysList: meeting.MeetingDaysList,
					StartTime:       c.startBoundary(sec, meeting),
					EndTime:         c.endBoundary(sec, meeting),
					Instructors:     instructors,
				})
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// startBoundary 起始边界：月/日/时/分均来自 startDate + meetingTimeStart
func (c *HTTPClient) startBoundary(sec section, m classMeeting) model.MonthDayTime {
	t := time.UnixMilli(sec.StartDate + m.MeetingTimeStart - meetingTimeBaseOffsetMillis).In(c.location)
	return model.MonthDayTime{Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

// endBoundary 结束边界：月/日取自 endDate，时/分以 startDate 当日的 meetingTimeEnd 换算
func (c *HTTPClient) endBoundary(sec section, m classMeeting) model.MonthDayTime {
	datePart := time.UnixMilli(sec.EndDate + m.MeetingTimeEnd - meetingTimeBaseOffsetMillis).In(c.location)
	timePart := time.UnixMilli(sec.StartDate + m.MeetingTimeEnd - meetingTimeBaseOffsetMillis).In(c.location)
	return model.MonthDayTime{
		Month:  int(datePart.Month()),
		Day:    datePart.Day(),
		Hour:   timePart.Hour(),
		Minute: timePart.Minute(),
	}
}

func buildingName(m classMeeting) string {
	if m.Building == nil {
		return ""
	}
	return m.Building.BuildingName
}

func convertInstructors(src []instructor) []model.Instructor {
	if len(src) == 0 {
		return nil
	}
	result := make([]model.Instructor, 0, len(src))
	for _, ins := range src {
		result = append(result, model.Instructor{
			CampusID: ins.CampusID,
			Email:    ins.Email,
			Name: model.InstructorName{
				First:  ins.Name.First,
				Middle: ins.Name.Middle,
				Last:   ins.Name.Last,
			},
		})
	}
	return result
}
