package handler

import (
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Warning string      `json:"warning,omitempty"` // 本地保存失败等非致命问题
}

// 项目相关请求响应模型

// GetProjectsResponse 获取项目列表响应
type GetProjectsResponse struct {
	Projects []model.Project    `json:"projects"`
	Total    int                `json:"total"`
	Filter   logic.FilterConfig `json:"filter"`
}

// GetProjectResponse 获取项目详情响应
type GetProjectResponse struct {
	Project      model.Project         `json:"project"`
	Achievements []logic.Achievement   `json:"achievements"`
	Estimate     logic.SuccessEstimate `json:"estimate"`
	DaysLeft     int                   `json:"daysLeft"`
	Comments     []model.Comment       `json:"comments"`
}

// SupportRequest 支持请求
type SupportRequest struct {
	Amount int64 `json:"amount" form:"amount"`
}

// RateRequest 评分请求
type RateRequest struct {
	Stars int `json:"stars" form:"stars"`
}

// GetStatsResponse 平台统计响应
type GetStatsResponse struct {
	Stats      logic.PlatformStats   `json:"stats"`
	Categories []logic.CategoryStats `json:"categories"`
	Trending   []model.Project       `json:"trending"`
}

// 聊天相关模型

// ChatRequest 聊天消息
type ChatRequest struct {
	Message string `json:"message" form:"message"`
}

// ChatResponse websocket 下发的消息
type ChatResponse struct {
	Intent    string `json:"intent,omitempty"`
	Text      string `json:"text,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
	Error     string `json:"error,omitempty"`
}
