package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// SessionRepository 教学班数据访问接口
type SessionRepository interface {
	BatchCreate(ctx context.Context, sessions []model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListByCourse(ctx context.Context, termCode, courseID string) ([]model.Session, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	DeleteByCourse(ctx context.Context, courseID string) error
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) BatchCreate(ctx context.Context, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(sessions, 500).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByCourse(ctx context.Context, termCode, courseID string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("term_code = ? AND course_id = ?", termCode, courseID).
		Order("session_id").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// DeleteByCourse 删除某 courseId 的全部班次（孤儿清理与整组替换共用）
func (r *sessionRepo) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&model.Session{}).Error
}
