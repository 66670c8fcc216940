package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Course          CourseRepository
	Session         SessionRepository
	CourseListMeta  CourseListMetaRepository
	SessionListMeta SessionListMetaRepository
	Schedule        ScheduleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Course:          NewCourseRepo(db),
		Session:         NewSessionRepo(db),
		CourseListMeta:  NewCourseListMetaRepo(db),
		SessionListMeta: NewSessionListMetaRepo(db),
		Schedule:        NewScheduleRepo(db),
	}
}
