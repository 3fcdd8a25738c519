package config

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialInfo 描述转发给助手服务的 bearer 凭证。签名不在本地校验。
type CredentialInfo struct {
	Present   bool
	JWT       bool
	Subject   string
	ExpiresAt time.Time
}

// InspectCredential 尝试把凭证按 JWT 解析出过期时间，仅用于启动时提示。
func InspectCredential(token string) CredentialInfo {
	token = strings.TrimSpace(token)
	if token == "" {
		return CredentialInfo{}
	}

	info := CredentialInfo{Present: true}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}
	info.JWT = true

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info
}

// Expired 仅在能读到 exp 时判断。
func (c CredentialInfo) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
