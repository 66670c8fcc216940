package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hyecheol123/CollegeMate-Schedule-API/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	BatchCreate(ctx context.Context, courses []model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	ListCourseIDs(ctx context.Context, termCode string) ([]string, error)
	SearchByName(ctx context.Context, termCode, courseName string) ([]model.Course, error)
	CountByTerm(ctx context.Context, termCode string) (int64, error)
	DeleteByTerm(ctx context.Context, termCode string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) BatchCreate(ctx context.Context, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(courses, 500).Error
}

// GetByID 按复合主键（termCode-courseId）查询课程
func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// ListCourseIDs 返回某学期全部 courseId（上游标识，非复合主键）
func (r *courseRepo) ListCourseIDs(ctx context.Context, termCode string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("term_code = ?", termCode).
		Pluck("course_id", &ids).Error
	return ids, err
}

// SearchByName 按课程简称或全称精确匹配
func (r *courseRepo) SearchByName(ctx context.Context, termCode, courseName string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("term_code = ? AND (course_name = ? OR full_course_name = ?)", termCode, courseName, courseName).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) CountByTerm(ctx context.Context, termCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("term_code = ?", termCode).
		Count(&count).Error
	return count, err
}

func (r *courseRepo) DeleteByTerm(ctx context.Context, termCode string) error {
	return r.db.WithContext(ctx).
		Where("term_code = ?", termCode).
		Delete(&model.Course{}).Error
}
