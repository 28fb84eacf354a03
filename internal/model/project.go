package model

import (
	"time"
)

// Project 众筹项目
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`

	// 众筹信息
	Goal      int64 `json:"goal"`
	Collected int64 `json:"collected"`
	Donors    int   `json:"donors"`
	Deadline  int   `json:"deadline,omitempty"` // 剩余天数

	// 状态
	Status ProjectStatus `json:"status"`

	// 作者信息
	Author      string `json:"author"`
	AuthorEmail string `json:"authorEmail,omitempty"`

	// 互动信息（按当前用户冗余保存）
	IsFavorite    bool    `json:"isFavorite,omitempty"`
	Rating        *Rating `json:"rating,omitempty"`
	AverageRating float64 `json:"averageRating,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rating 评分累加器
type Rating struct {
	Total int `json:"total"`
	Count int `json:"count"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusCompleted ProjectStatus = "completed" // 已达成目标
)

// Progress 返回完成比例，goal 为 0 时返回 0
func (p *Project) Progress() float64 {
	if p.Goal <= 0 {
		return 0
	}
	return float64(p.Collected) / float64(p.Goal)
}

// GoalReached 是否达到目标金额
func (p *Project) GoalReached() bool {
	return p.Goal > 0 && p.Collected >= p.Goal
}

// AddRating 记录一次评分并重新计算平均分
func (p *Project) AddRating(stars int) {
	if p.Rating == nil {
		p.Rating = &Rating{}
	}
	p.Rating.Total += stars
	p.Rating.Count++
	p.AverageRating = float64(p.Rating.Total) / float64(p.Rating.Count)
}

// Clone 深拷贝，避免外部修改仓库内部数据
func (p *Project) Clone() *Project {
	cp := *p
	if p.Rating != nil {
		r := *p.Rating
		cp.Rating = &r
	}
	return &cp
}
