package model

import (
	"time"
)

// ProjectModel 远程存储中的项目表
type ProjectModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category" gorm:"index"`

	// 众筹信息
	Goal          int64 `json:"goal" gorm:"not null"`
	CurrentAmount int64 `json:"current_amount" gorm:"default:0"`
	Donors        int   `json:"donors" gorm:"default:0"`
	Deadline      int   `json:"deadline"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'active'"`

	// 创建者信息
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email" gorm:"index"`

	RatingTotal int `json:"rating_total" gorm:"default:0"`
	RatingCount int `json:"rating_count" gorm:"default:0"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "projects"
}

// NewProjectModel 由本地项目生成远程行
func NewProjectModel(p *Project) ProjectModel {
	m := ProjectModel{
		Id:            p.ID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Title:         p.Title,
		Description:   p.Description,
		ImageURL:      p.Image,
		Category:      p.Category,
		Goal:          p.Goal,
		CurrentAmount: p.Collected,
		Donors:        p.Donors,
		Deadline:      p.Deadline,
		Status:        p.Status,
		Author:        p.Author,
		AuthorEmail:   p.AuthorEmail,
	}
	if p.Rating != nil {
		m.RatingTotal = p.Rating.Total
		m.RatingCount = p.Rating.Count
	}
	return m
}

// ToProject 远程行转换为本地项目
func (m *ProjectModel) ToProject() Project {
	p := Project{
		ID:          m.Id,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Image:       m.ImageURL,
		Goal:        m.Goal,
		Collected:   m.CurrentAmount,
		Donors:      m.Donors,
		Deadline:    m.Deadline,
		Status:      m.Status,
		Author:      m.Author,
		AuthorEmail: m.AuthorEmail,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	if m.RatingCount > 0 {
		p.Rating = &Rating{Total: m.RatingTotal, Count: m.RatingCount}
		p.AverageRating = float64(m.RatingTotal) / float64(m.RatingCount)
	}
	return p
}
