package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
	pkgerrors "github.com/hyecheol123/CollegeMate-Schedule-API/pkg/errors"
)

// ── Course ──

type mockCourseRepo struct {
	mu         sync.Mutex
	courses    map[string]model.Course // id → course
	countCalls int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]model.Course)}
}

func (m *mockCourseRepo) BatchCreate(_ context.Context, courses []model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListCourseIDs(_ context.Context, termCode string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, c := range m.courses {
		if c.TermCode == termCode {
			ids = append(ids, c.CourseID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockCourseRepo) SearchByName(_ context.Context, termCode, courseName string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Course
	for _, c := range m.courses {
		if c.TermCode == termCode && (c.CourseName == courseName || c.FullCourseName == courseName) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) CountByTerm(_ context.Context, termCode string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	var count int64
	for _, c := range m.courses {
		if c.TermCode == termCode {
			count++
		}
	}
	return count, nil
}

func (m *mockCourseRepo) DeleteByTerm(_ context.Context, termCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.courses {
		if c.TermCode == termCode {
			delete(m.courses, id)
		}
	}
	return nil
}

// ── Session ──

type mockSessionRepo struct {
	mu         sync.Mutex
	sessions   map[string]model.Session // id → session
	countCalls int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]model.Session)}
}

func (m *mockSessionRepo) BatchCreate(_ context.Context, sessions []model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByCourse(_ context.Context, termCode, courseID string) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Session
	for _, s := range m.sessions {
		if s.TermCode == termCode && s.CourseID == courseID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SessionID < result[j].SessionID })
	return result, nil
}

func (m *mockSessionRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	var count int64
	for _, s := range m.sessions {
		if s.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *mockSessionRepo) DeleteByCourse(_ context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.CourseID == courseID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// ── CourseListMeta ──

type mockCourseListMetaRepo struct {
	mu    sync.Mutex
	metas map[string]model.CourseListMetaData // termCode → meta
}

func newMockCourseListMetaRepo() *mockCourseListMetaRepo {
	return &mockCourseListMetaRepo{metas: make(map[string]model.CourseListMetaData)}
}

func (m *mockCourseListMetaRepo) Get(_ context.Context, termCode string) (*model.CourseListMetaData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta, ok := m.metas[termCode]; ok {
		return &meta, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseListMetaRepo) Upsert(_ context.Context, meta *model.CourseListMetaData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metas[meta.TermCode] = *meta
	return nil
}

func (m *mockCourseListMetaRepo) ListTermCodes(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []string
	for code := range m.metas {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// ── SessionListMeta ──

type mockSessionListMetaRepo struct {
	mu    sync.Mutex
	metas map[string]model.SessionListMetaData // id(termCode-courseId) → meta
}

func newMockSessionListMetaRepo() *mockSessionListMetaRepo {
	return &mockSessionListMetaRepo{metas: make(map[string]model.SessionListMetaData)}
}

func (m *mockSessionListMetaRepo) Get(_ context.Context, termCode, courseID string) (*model.SessionListMetaData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta, ok := m.metas[model.SessionListMetaDataID(termCode, courseID)]; ok {
		return &meta, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionListMetaRepo) Upsert(_ context.Context, meta *model.SessionListMetaData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metas[meta.ID] = *meta
	return nil
}

func (m *mockSessionListMetaRepo) DeleteByCourse(_ context.Context, termCode, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metas, model.SessionListMetaDataID(termCode, courseID))
	return nil
}

// ── Schedule ──

type mockScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]model.Schedule // id → schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]model.Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[schedule.ID] = *schedule
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListByEmail(_ context.Context, email string) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Schedule
	for _, s := range m.schedules {
		if s.Email == email {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockScheduleRepo) ExistsByEmailAndTerm(_ context.Context, email, termCode string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.schedules {
		if s.Email == email && s.TermCode == termCode {
			return true, nil
		}
	}
	return false, nil
}

// patch 模拟乐观锁单列更新：版本不匹配返回 ErrOptimisticLock
func (m *mockScheduleRepo) patch(schedule *model.Schedule, apply func(*model.Schedule)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.schedules[schedule.ID]
	if !ok || stored.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	apply(&stored)
	stored.Version++
	m.schedules[schedule.ID] = stored
	schedule.Version = stored.Version
	return nil
}

func (m *mockScheduleRepo) UpdateSessionList(_ context.Context, schedule *model.Schedule) error {
	return m.patch(schedule, func(s *model.Schedule) { s.SessionList = schedule.SessionList })
}

func (m *mockScheduleRepo) UpdateEventList(_ context.Context, schedule *model.Schedule) error {
	return m.patch(schedule, func(s *model.Schedule) { s.EventList = schedule.EventList })
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

// ── 上游目录客户端 ──

type mockCatalogClient struct {
	mu sync.Mutex
	// termCode → 课程列表
	courseLists map[string][]model.Course
	// "termCode:courseId" → 班次列表
	sessionLists map[string][]model.Session

	courseListCalls  int
	sessionListCalls int

	courseListErr  error
	sessionListErr error
}

func newMockCatalogClient() *mockCatalogClient {
	return &mockCatalogClient{
		courseLists:  make(map[string][]model.Course),
		sessionLists: make(map[string][]model.Session),
	}
}

func (m *mockCatalogClient) FetchCourseList(_ context.Context, termCode string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courseListCalls++
	if m.courseListErr != nil {
		return nil, m.courseListErr
	}
	return m.courseLists[termCode], nil
}

func (m *mockCatalogClient) FetchSessionList(_ context.Context, termCode, _ string, courseID string) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionListCalls++
	if m.sessionListErr != nil {
		return nil, m.sessionListErr
	}
	return m.sessionLists[termCode+":"+courseID], nil
}

// ── 测试装配 ──

func newTestRepository() (*repository.Repository, *mockCourseRepo, *mockSessionRepo, *mockCourseListMetaRepo, *mockSessionListMetaRepo, *mockScheduleRepo) {
	courseRepo := newMockCourseRepo()
	sessionRepo := newMockSessionRepo()
	courseMetaRepo := newMockCourseListMetaRepo()
	sessionMetaRepo := newMockSessionListMetaRepo()
	scheduleRepo := newMockScheduleRepo()
	repo := &repository.Repository{
		Course:          courseRepo,
		Session:         sessionRepo,
		CourseListMeta:  courseMetaRepo,
		SessionListMeta: sessionMetaRepo,
		Schedule:        scheduleRepo,
	}
	return repo, courseRepo, sessionRepo, courseMetaRepo, sessionMetaRepo, scheduleRepo
}

// 测试数据构造辅助

func testCourse(termCode, courseID, name string) model.Course {
	return model.Course{
		ID:             model.CourseID(termCode, courseID),
		CourseID:       courseID,
		TermCode:       termCode,
		SubjectCode:    "266",
		CourseName:     name,
		FullCourseName: "COMP SCI " + strings.TrimPrefix(name, "CS "),
		Title:          name,
		Description:    "test course",
	}
}

func testSession(termCode, courseID, sessionID string, meetings ...model.Meeting) model.Session {
	return model.Session{
		ID:        model.SessionID(termCode, courseID, sessionID),
		CourseID:  courseID,
		TermCode:  termCode,
		SessionID: sessionID,
		Credit:    3,
		Meetings:  meetings,
	}
}

func lectureMeeting(days []string, startHour, startMin, endHour, endMin int) model.Meeting {
	return model.Meeting{
		MeetingType:     "CLASS",
		MeetingDaysList: days,
		StartTime:       model.MonthDayTime{Month: 9, Day: 3, Hour: startHour, Minute: startMin},
		EndTime:         model.MonthDayTime{Month: 12, Day: 10, Hour: endHour, Minute: endMin},
	}
}
