package handler

import (
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/router"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	base
}

func NewProjectHandler(ctl *app.Controller) *ProjectHandler {
	return &ProjectHandler{base{ctl: ctl}}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var in logic.CreateProjectInput
	if err := c.ShouldBind(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	project, err := h.ctl.CreateProject(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, "Проект успешно создан", project, err)
}

// GetProjects 获取项目列表，支持 category、q、sort 参数
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	var filter logic.FilterConfig
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, err)
		return
	}

	projects := h.ctl.ApplyFilters(filter)
	SuccessResponse(c, http.StatusOK, "", GetProjectsResponse{
		Projects: projects,
		Total:    len(projects),
		Filter:   filter,
	})
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.ctl.Project(c.Param("id"))
	if err != nil {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}
	comments, _ := h.ctl.Comments(project.ID)

	now := h.ctl.State().Now
	SuccessResponse(c, http.StatusOK, "", GetProjectResponse{
		Project:      project,
		Achievements: logic.Achievements(project),
		Estimate:     logic.EstimateSuccess(project, now),
		DaysLeft:     logic.DaysLeft(project, now),
		Comments:     comments,
	})
}

// UpdateProject 更新项目
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var patch logic.ProjectPatch
	if err := c.ShouldBind(&patch); err != nil {
		h.badRequest(c, err)
		return
	}

	project, err := h.ctl.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	h.respond(c, http.StatusOK, "Проект обновлён", project, err)
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	err := h.ctl.DeleteProject(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, "Проект удалён", nil, err)
}

// SupportProject 支持项目
func (h *ProjectHandler) SupportProject(c *gin.Context) {
	var req SupportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	id := c.Param("id")
	if isForm(c) {
		h.ctl.Navigate(router.ViewProjectDetail, id)
	}
	result, err := h.ctl.SupportProject(c.Request.Context(), id, req.Amount)
	h.respond(c, http.StatusOK, "Спасибо за поддержку!", result, err)
}

// ToggleFavorite 收藏或取消收藏
func (h *ProjectHandler) ToggleFavorite(c *gin.Context) {
	project, err := h.ctl.ToggleFavorite(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, "", project, err)
}

// RateProject 评分
func (h *ProjectHandler) RateProject(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	project, err := h.ctl.RateProject(c.Request.Context(), c.Param("id"), req.Stars)
	h.respond(c, http.StatusOK, "Спасибо за вашу оценку!", project, err)
}

// GetComments 项目评论
func (h *ProjectHandler) GetComments(c *gin.Context) {
	comments, err := h.ctl.Comments(c.Param("id"))
	if err != nil {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}
	SuccessResponse(c, http.StatusOK, "", comments)
}

// AddComment 添加评论
func (h *ProjectHandler) AddComment(c *gin.Context) {
	var in logic.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	comment, err := h.ctl.AddComment(c.Request.Context(), c.Param("id"), in)
	h.respond(c, http.StatusCreated, "Комментарий добавлен", comment, err)
}

// GetStats 平台统计
func (h *ProjectHandler) GetStats(c *gin.Context) {
	stats, categories := h.ctl.Stats()
	SuccessResponse(c, http.StatusOK, "", GetStatsResponse{
		Stats:      stats,
		Categories: categories,
		Trending:   logic.Trending(h.ctl.Projects()),
	})
}
