package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User 用户
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session 当前会话；远程模式下携带访问令牌
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"accessToken,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	Remote      bool      `json:"remote,omitempty"`
}

// AvatarGlyph 取名字首字母（大写）作为头像
func AvatarGlyph(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
