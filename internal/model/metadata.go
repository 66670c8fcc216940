package model

import "time"

// CourseListMetaData 学期课程列表元数据 — 对应 course_list_meta_data
// hash 为序列化课程列表的内容哈希；lastChecked 驱动 12 小时软刷新节流
type CourseListMetaData struct {
	TermCode    string    `gorm:"type:varchar(20);primaryKey" json:"term_code"`
	Hash        string    `gorm:"type:varchar(120);not null"  json:"hash"`
	LastChecked time.Time `gorm:"not null"                    json:"last_checked"`
}

// TableName 指定表名
func (CourseListMetaData) TableName() string { return "course_list_meta_data" }

// SessionListMetaDataID 生成班次列表元数据主键：termCode-courseId
func SessionListMetaDataID(termCode, courseID string) string {
	return termCode + "-" + courseID
}

// SessionListMetaData 单门课程班次列表元数据 — 对应 session_list_meta_data
type SessionListMetaData struct {
	ID       string `gorm:"type:varchar(100);primaryKey" json:"id"` // termCode-courseId
	TermCode string `gorm:"type:varchar(20);not null;index" json:"term_code"`
	CourseID string `gorm:"type:varchar(50);not null"    json:"course_id"`
	Hash     string `gorm:"type:varchar(120);not null"   json:"hash"`
}

// TableName 指定表名
func (SessionListMetaData) TableName() string { return "session_list_meta_data" }
