package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// ════════════════════════════════════════════════════════════
// 目录同步引擎测试
// ════════════════════════════════════════════════════════════

const testTerm = "1252"

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		RefreshInterval: 12 * time.Hour,
		RateLimitEvery:  10,
		RateLimitDelay:  time.Second,
		LockTTL:         30 * time.Minute,
		SearchCacheTTL:  5 * time.Minute,
	}
}

// newTestCatalogService 装配无 Redis 的目录服务，限速暂停替换为计数器
func newTestCatalogService(client *mockCatalogClient) (*catalogService, *mockCourseRepo, *mockSessionRepo, *mockCourseListMetaRepo, *mockSessionListMetaRepo, *int) {
	repo, courseRepo, sessionRepo, courseMetaRepo, sessionMetaRepo, _ := newTestRepository()
	svc := NewCatalogService(repo, client, nil, testSyncConfig(), zap.NewNop()).(*catalogService)
	sleepCount := 0
	svc.sleep = func(time.Duration) { sleepCount++ }
	return svc, courseRepo, sessionRepo, courseMetaRepo, sessionMetaRepo, &sleepCount
}

func seedUpstream(client *mockCatalogClient, courseIDs ...string) {
	var courses []model.Course
	for _, id := range courseIDs {
		courses = append(courses, testCourse(testTerm, id, "CS "+id))
		client.sessionLists[testTerm+":"+id] = []model.Session{
			testSession(testTerm, id, "LEC001", lectureMeeting([]string{model.Monday, model.Wednesday}, 9, 30, 10, 45)),
			testSession(testTerm, id, "LEC002", lectureMeeting([]string{model.Tuesday, model.Thursday}, 13, 0, 14, 15)),
		}
	}
	client.courseLists[testTerm] = courses
}

func TestRunSync_InitialPopulation(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960", "024961")
	svc, courseRepo, sessionRepo, courseMetaRepo, sessionMetaRepo, _ := newTestCatalogService(client)

	if err := svc.runSync(context.Background(), testTerm); err != nil {
		t.Fatalf("runSync 失败: %v", err)
	}

	if len(courseRepo.courses) != 2 {
		t.Errorf("课程数量期望 2, 实际 %d", len(courseRepo.courses))
	}
	if len(sessionRepo.sessions) != 4 {
		t.Errorf("班次数量期望 4, 实际 %d", len(sessionRepo.sessions))
	}
	if _, ok := courseMetaRepo.metas[testTerm]; !ok {
		t.Error("课程列表元数据未写入")
	}
	if len(sessionMetaRepo.metas) != 2 {
		t.Errorf("班次元数据数量期望 2, 实际 %d", len(sessionMetaRepo.metas))
	}
}

func TestRunSync_UnchangedFastPath(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960")
	svc, courseRepo, sessionRepo, courseMetaRepo, _, _ := newTestCatalogService(client)

	ctx := context.Background()
	if err := svc.runSync(ctx, testTerm); err != nil {
		t.Fatalf("首次 runSync 失败: %v", err)
	}
	firstChecked := courseMetaRepo.metas[testTerm].LastChecked

	// 直接篡改本地数据模拟漂移：快路径命中时不应被上游覆盖
	courseID := model.CourseID(testTerm, "024960")
	drifted := courseRepo.courses[courseID]
	drifted.Title = "local drift"
	courseRepo.courses[courseID] = drifted

	sessionID := model.SessionID(testTerm, "024960", "LEC001")
	driftedSession := sessionRepo.sessions[sessionID]
	driftedSession.Topic = "local drift"
	sessionRepo.sessions[sessionID] = driftedSession

	time.Sleep(5 * time.Millisecond)
	if err := svc.runSync(ctx, testTerm); err != nil {
		t.Fatalf("二次 runSync 失败: %v", err)
	}

	// 内容哈希未变：课程行与班次行均未重建
	if courseRepo.courses[courseID].Title != "local drift" {
		t.Error("课程列表哈希未变时不应重建课程行")
	}
	if sessionRepo.sessions[sessionID].Topic != "local drift" {
		t.Error("班次列表哈希未变时不应重建班次行")
	}
	// 但 lastChecked 必须推进，节流窗口从本次检查起算
	if !courseMetaRepo.metas[testTerm].LastChecked.After(firstChecked) {
		t.Error("哈希未变时 lastChecked 仍应推进")
	}
	// 快路径日志带库中课程数，走 CountByTerm
	if courseRepo.countCalls == 0 {
		t.Error("快路径应读取库中课程数")
	}
}

func TestRunSync_Idempotent(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960", "024961")
	svc, courseRepo, sessionRepo, _, _, _ := newTestCatalogService(client)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := svc.runSync(ctx, testTerm); err != nil {
			t.Fatalf("第 %d 次 runSync 失败: %v", i+1, err)
		}
	}

	if len(courseRepo.courses) != 2 {
		t.Errorf("重复同步后课程数量期望 2, 实际 %d", len(courseRepo.courses))
	}
	if len(sessionRepo.sessions) != 4 {
		t.Errorf("重复同步后班次数量期望 4, 实际 %d", len(sessionRepo.sessions))
	}
}

func TestRunSync_OrphanCleanup(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960", "024961")
	svc, courseRepo, sessionRepo, _, sessionMetaRepo, _ := newTestCatalogService(client)

	ctx := context.Background()
	if err := svc.runSync(ctx, testTerm); err != nil {
		t.Fatalf("首次 runSync 失败: %v", err)
	}

	// 上游下架 024961
	seedUpstream(client, "024960")
	delete(client.sessionLists, testTerm+":024961")

	if err := svc.runSync(ctx, testTerm); err != nil {
		t.Fatalf("二次 runSync 失败: %v", err)
	}

	if len(courseRepo.courses) != 1 {
		t.Errorf("下架后课程数量期望 1, 实际 %d", len(courseRepo.courses))
	}
	for id, s := range sessionRepo.sessions {
		if s.CourseID == "024961" {
			t.Errorf("下架课程的班次未清理: %s", id)
		}
	}
	if _, ok := sessionMetaRepo.metas[model.SessionListMetaDataID(testTerm, "024961")]; ok {
		t.Error("下架课程的班次元数据未清理")
	}
	// 清理日志带被删班次数，走 CountByCourse
	if sessionRepo.countCalls == 0 {
		t.Error("孤儿清理应统计被删班次数")
	}
}

func TestRunSync_RateLimitPause(t *testing.T) {
	client := newMockCatalogClient()
	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		ids = append(ids, "02"+string(rune('a'+i/10))+string(rune('0'+i%10))+"00")
	}
	seedUpstream(client, ids...)
	svc, _, _, _, _, sleepCount := newTestCatalogService(client)

	if err := svc.runSync(context.Background(), testTerm); err != nil {
		t.Fatalf("runSync 失败: %v", err)
	}

	// 25 门课程、每 10 门暂停一次 → 第 10/20 门前各暂停一次
	if *sleepCount != 2 {
		t.Errorf("限速暂停次数期望 2, 实际 %d", *sleepCount)
	}
}

func TestRunSync_UpstreamFailureAborts(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960")
	client.sessionListErr = errors.New("upstream 500")
	svc, courseRepo, _, _, _, _ := newTestCatalogService(client)

	err := svc.runSync(context.Background(), testTerm)
	if err == nil {
		t.Fatal("上游失败时 runSync 应返回错误")
	}

	// 课程阶段已完成，目录停留在部分更新状态，由下次同步收敛
	if len(courseRepo.courses) != 1 {
		t.Errorf("课程阶段应已完成, 实际课程数 %d", len(courseRepo.courses))
	}
}

func TestSynchronize_Throttled(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960")
	svc, _, _, courseMetaRepo, _, _ := newTestCatalogService(client)

	// 节流窗口内存在检查记录
	courseMetaRepo.metas[testTerm] = model.CourseListMetaData{
		TermCode:    testTerm,
		Hash:        "whatever",
		LastChecked: time.Now().Add(-time.Hour),
	}

	err := svc.Synchronize(context.Background(), testTerm, false)
	if !errors.Is(err, ErrSyncThrottled) {
		t.Fatalf("期望 ErrSyncThrottled, 实际 %v", err)
	}
	if client.courseListCalls != 0 {
		t.Error("节流拒绝不应产生任何上游调用")
	}
}

func TestSynchronize_ForceBypassesThrottle(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960")
	svc, courseRepo, _, courseMetaRepo, _, _ := newTestCatalogService(client)

	courseMetaRepo.metas[testTerm] = model.CourseListMetaData{
		TermCode:    testTerm,
		Hash:        "whatever",
		LastChecked: time.Now().Add(-time.Hour),
	}

	done := make(chan string, 1)
	svc.syncDone = func(termCode string) { done <- termCode }

	if err := svc.Synchronize(context.Background(), testTerm, true); err != nil {
		t.Fatalf("forceUpdate 应绕过节流: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("后台同步未在期限内完成")
	}

	if len(courseRepo.courses) != 1 {
		t.Errorf("强制同步后课程数量期望 1, 实际 %d", len(courseRepo.courses))
	}
}

func TestSynchronize_EmptyTermCode(t *testing.T) {
	client := newMockCatalogClient()
	svc, _, _, _, _, _ := newTestCatalogService(client)

	if err := svc.Synchronize(context.Background(), "", false); !errors.Is(err, ErrTermCodeRequired) {
		t.Fatalf("期望 ErrTermCodeRequired, 实际 %v", err)
	}
}

func TestSynchronize_StaleWindowProceeds(t *testing.T) {
	client := newMockCatalogClient()
	seedUpstream(client, "024960")
	svc, _, _, courseMetaRepo, _, _ := newTestCatalogService(client)

	// 上次检查已超出 12 小时窗口
	courseMetaRepo.metas[testTerm] = model.CourseListMetaData{
		TermCode:    testTerm,
		Hash:        "whatever",
		LastChecked: time.Now().Add(-13 * time.Hour),
	}

	done := make(chan string, 1)
	svc.syncDone = func(termCode string) { done <- termCode }

	if err := svc.Synchronize(context.Background(), testTerm, false); err != nil {
		t.Fatalf("超出节流窗口应受理: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("后台同步未在期限内完成")
	}
}
