// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired     ErrorCode = "2001"
	CodeTokenInvalid     ErrorCode = "2002"
	CodeTokenMissing     ErrorCode = "2003"
	CodePermissionDenied ErrorCode = "2004"
	CodePremiumRequired  ErrorCode = "2005"

	// 资源错误 (3xxx)
	CodeNovelNotFound        ErrorCode = "3001"
	CodeChapterNotFound      ErrorCode = "3002"
	CodeUserNotFound         ErrorCode = "3003"
	CodeNotificationNotFound ErrorCode = "3004"
	CodeCommentNotFound      ErrorCode = "3005"
	CodeReviewNotFound       ErrorCode = "3006"

	// 业务错误 (4xxx)
	CodeValidationFailed   ErrorCode = "4001"
	CodeAlreadyProcessed   ErrorCode = "4002"
	CodeDuplicateReview    ErrorCode = "4003"
	CodeDuplicateSubscribe ErrorCode = "4004"
	CodeDuplicateAccount   ErrorCode = "4005"

	// 外部服务错误 (5xxx)
	CodeDatabaseError  ErrorCode = "5001"
	CodeCacheError     ErrorCode = "5002"
	CodeMessagingError ErrorCode = "5003"
)

// Kind 面向调用方的错误分类
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindAuthorization  Kind = "authorization"
	KindAuthentication Kind = "authentication"
	KindRateLimited    Kind = "rate_limited"
	KindUnavailable    Kind = "unavailable"
	KindInternal       Kind = "internal"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode         `json:"code"`
	Kind       Kind              `json:"kind"`
	Message    string            `json:"message"`
	Detail     string            `json:"detail,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is(err, ErrAlreadyProcessed)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 添加详细信息（返回副本，预定义错误可安全复用）
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithField 添加字段级校验信息
func (e *AppError) WithField(field, reason string) *AppError {
	cp := *e
	cp.Fields = make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[field] = reason
	return &cp
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       codeToKind(code),
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// Validation 输入校验错误
func Validation(message string) *AppError {
	return New(CodeValidationFailed, message)
}

// ValidationField 单字段校验错误
func ValidationField(field, reason string) *AppError {
	return New(CodeValidationFailed, "validation failed").WithField(field, reason)
}

// NotFound 资源不存在（也用于隐藏无权访问的资源）
func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found")
}

// Conflict 状态冲突
func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

// Forbidden 已认证但无权操作
func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// Unauthenticated 未认证或会话无效
func Unauthenticated(message string) *AppError {
	return New(CodeUnauthorized, message)
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeForbidden, CodePermissionDenied, CodePremiumRequired:
		return http.StatusForbidden
	case CodeNotFound, CodeNovelNotFound, CodeChapterNotFound, CodeUserNotFound,
		CodeNotificationNotFound, CodeCommentNotFound, CodeReviewNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyProcessed, CodeDuplicateReview, CodeDuplicateSubscribe, CodeDuplicateAccount:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// codeToKind 错误码转错误分类
func codeToKind(code ErrorCode) Kind {
	switch codeToHTTPStatus(code) {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")

	ErrNovelNotFound        = New(CodeNovelNotFound, "novel not found")
	ErrChapterNotFound      = New(CodeChapterNotFound, "chapter not found")
	ErrUserNotFound         = New(CodeUserNotFound, "user not found")
	ErrNotificationNotFound = New(CodeNotificationNotFound, "notification not found")
	ErrCommentNotFound      = New(CodeCommentNotFound, "comment not found")
	ErrReviewNotFound       = New(CodeReviewNotFound, "review not found")

	ErrAlreadyProcessed   = New(CodeAlreadyProcessed, "already processed")
	ErrDuplicateReview    = New(CodeDuplicateReview, "you have already reviewed this novel")
	ErrDuplicateSubscribe = New(CodeDuplicateSubscribe, "already subscribed")
	ErrDuplicateAccount   = New(CodeDuplicateAccount, "username or email already registered")
	ErrPremiumRequired    = New(CodePremiumRequired, "premium chapter requires a premium account")
	ErrValidationFailed   = New(CodeValidationFailed, "validation failed")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "internal server error")
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}
