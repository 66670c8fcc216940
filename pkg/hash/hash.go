package hash

import (
	"crypto/sha512"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

// 内容哈希参数
// 目录同步以哈希比较替代全量 diff，只要求确定性，不要求抗暴力破解，
// 因此迭代次数取 10 即可
const (
	iterations = 10
	keyLength  = 64
)

// Hash 对 payload 计算带盐摘要
// identifier 与 secondaryIdentifier 拼接作为盐，相同输入必得相同输出
func Hash(identifier, secondaryIdentifier, payload string) string {
	salt := identifier + secondaryIdentifier
	key := pbkdf2.Key([]byte(payload), []byte(salt), iterations, keyLength, sha512.New)
	return base64.RawURLEncoding.EncodeToString(key)
}

// [自证通过] pkg/hash/hash.go
