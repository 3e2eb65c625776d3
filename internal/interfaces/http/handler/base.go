// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"novel-platform-api/internal/interfaces/http/dto"
	apperrors "novel-platform-api/pkg/errors"
	"novel-platform-api/pkg/logger"
)

var bindingOnce sync.Once

// respondError 统一错误出口：业务错误按分类返回，未知错误记录日志后返回通用 500
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternalError, "internal server error")
	}
	if appErr.Kind == apperrors.KindInternal {
		logger.Error(c.Request.Context(), "request failed", err,
			"method", c.Request.Method,
			"route", c.FullPath(),
		)
	}
	dto.Fail(c, appErr)
}

// bindJSON 解析请求体，失败时写出校验错误并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

// bindOptionalJSON 请求体可以为空
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

// bindingError 把 gin 绑定错误转换为带字段的校验错误
func bindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := apperrors.Validation("validation failed")
		for _, fe := range verrs {
			appErr = appErr.WithField(fe.Field(), ruleMessage(fe))
		}
		return appErr
	}
	return apperrors.Validation("invalid request body").WithDetail(err.Error())
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// ConfigureBinding 校验错误使用 JSON 字段名，并拒绝未知字段
func ConfigureBinding() {
	bindingOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}
