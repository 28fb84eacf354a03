package model

import (
	"time"
)

// UserModel 远程存储中的用户表
type UserModel struct {
	Id           string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     string    `json:"full_name"`
	School       string    `json:"school"`
	Class        string    `json:"class"`
	Role         string    `json:"role" gorm:"default:'student'"`
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "users"
}

// ToUser 转换为会话用户
func (m *UserModel) ToUser() User {
	name := m.FullName
	if name == "" {
		name = m.Email
	}
	return User{
		ID:        m.Id,
		Name:      name,
		Email:     m.Email,
		Avatar:    AvatarGlyph(name),
		CreatedAt: m.CreatedAt,
	}
}
