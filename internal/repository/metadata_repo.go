package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// CourseListMetaRepository 学期课程列表元数据访问接口
type CourseListMetaRepository interface {
	Get(ctx context.Context, termCode string) (*model.CourseListMetaData, error)
	Upsert(ctx context.Context, meta *model.CourseListMetaData) error
	ListTermCodes(ctx context.Context) ([]string, error)
}

type courseListMetaRepo struct {
	db *gorm.DB
}

// NewCourseListMetaRepo 创建 CourseListMetaRepository 实例
func NewCourseListMetaRepo(db *gorm.DB) CourseListMetaRepository {
	return &courseListMetaRepo{db: db}
}

func (r *courseListMetaRepo) Get(ctx context.Context, termCode string) (*model.CourseListMetaData, error) {
	var meta model.CourseListMetaData
	err := r.db.WithContext(ctx).
		Where("term_code = ?", termCode).
		First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Upsert 不存在则创建，存在则整行替换
func (r *courseListMetaRepo) Upsert(ctx context.Context, meta *model.CourseListMetaData) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "term_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"hash", "last_checked"}),
		}).
		Create(meta).Error
}

// ListTermCodes 返回已同步过的全部学期（按最近检查时间倒序）
func (r *courseListMetaRepo) ListTermCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&model.CourseListMetaData{}).
		Order("last_checked DESC").
		Pluck("term_code", &codes).Error
	return codes, err
}

// SessionListMetaRepository 班次列表元数据访问接口
type SessionListMetaRepository interface {
	Get(ctx context.Context, termCode, courseID string) (*model.SessionListMetaData, error)
	Upsert(ctx context.Context, meta *model.SessionListMetaData) error
	DeleteByCourse(ctx context.Context, termCode, courseID string) error
}

type sessionListMetaRepo struct {
	db *gorm.DB
}

// NewSessionListMetaRepo 创建 SessionListMetaRepository 实例
func NewSessionListMetaRepo(db *gorm.DB) SessionListMetaRepository {
	return &sessionListMetaRepo{db: db}
}

func (r *sessionListMetaRepo) Get(ctx context.Context, termCode, courseID string) (*model.SessionListMetaData, error) {
	var meta model.SessionListMetaData
	err := r.db.WithContext(ctx).
		Where("id = ?", model.SessionListMetaDataID(termCode, courseID)).
		First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Upsert 不存在则创建，存在则替换哈希
func (r *sessionListMetaRepo) Upsert(ctx context.Context, meta *model.SessionListMetaData) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hash"}),
		}).
		Create(meta).Error
}

func (r *sessionListMetaRepo) DeleteByCourse(ctx context.Context, termCode, courseID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", model.SessionListMetaDataID(termCode, courseID)).
		Delete(&model.SessionListMetaData{}).Error
}
