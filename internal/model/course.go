package model

// CourseID 生成课程复合主键：termCode-courseId
func CourseID(termCode, courseID string) string {
	return termCode + "-" + courseID
}

// Course 课程表 — 对应 courses
// 目录同步引擎独占写入：上游不再提供时整学期删除重建
type Course struct {
	ID             string `gorm:"type:varchar(100);primaryKey"  json:"id"` // termCode-courseId
	CourseID       string `gorm:"type:varchar(50);not null"     json:"course_id"`
	TermCode       string `gorm:"type:varchar(20);not null;index" json:"term_code"`
	SubjectCode    string `gorm:"type:varchar(20);not null"     json:"subject_code"`
	CourseName     string `gorm:"type:varchar(200);not null"    json:"course_name"`
	FullCourseName string `gorm:"type:varchar(300);not null"    json:"full_course_name"`
	Title          string `gorm:"type:varchar(300);not null"    json:"title"`
	Description    string `gorm:"type:text;not null"            json:"description"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
