// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novel-platform-api/internal/domain/repository"
	apperrors "novel-platform-api/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Success bool      `json:"success"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Kind      apperrors.Kind    `json:"kind"`
	ErrorCode string            `json:"error_code,omitempty"`
	Details   string            `json:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Success bool         `json:"success"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Success: true,
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// SuccessWithPage 返回带分页的成功响应
func SuccessWithPage[T any](c *gin.Context, page *repository.PagedResult[T]) {
	c.JSON(http.StatusOK, Response[[]T]{
		Success: true,
		Code:    http.StatusOK,
		Message: "success",
		Data:    page.Items,
		Meta: &PageMeta{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
		TraceID: c.GetString("trace_id"),
	})
}

// Created 返回创建成功响应 (201)
func Created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, Response[T]{
		Success: true,
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// Message 只带提示信息的成功响应
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response[any]{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// Fail 按错误分类返回错误响应，内部错误不暴露细节
func Fail(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.HTTPStatus, errorBody(c, err))
}

// Abort 终止中间件链并返回错误响应
func Abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, errorBody(c, err))
}

func errorBody(c *gin.Context, err *apperrors.AppError) ErrorResponse {
	detail := &ErrorDetail{
		Kind:      err.Kind,
		ErrorCode: string(err.Code),
		Details:   err.Detail,
		Fields:    err.Fields,
	}
	message := err.Message
	if err.Kind == apperrors.KindInternal {
		message = "internal server error"
		detail.Details = ""
	}
	return ErrorResponse{
		Success: false,
		Code:    err.HTTPStatus,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	}
}
