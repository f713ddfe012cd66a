package errors

import "errors"

// ErrSyncInProgress 同分组的同步任务已在运行中
var ErrSyncInProgress = errors.New("该分组的同步任务正在运行中")

// ErrPortalUnavailable 教务门户不可达或会话无法建立
var ErrPortalUnavailable = errors.New("教务门户暂时不可用")
