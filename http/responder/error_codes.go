package responder

import apperrors "github.com/leeforge/giftstudio/errors"

// HTTP 状态码相关的错误码
const (
	// 4xxx - 客户端错误
	ErrCodeBadRequest       = 4000 // 请求格式错误
	ErrCodeBindFailed       = 4001 // 参数绑定错误
	ErrCodeValidationFailed = 4002 // 数据验证失败
	ErrCodeNotFound         = 4003 // 资源不存在
	ErrCodeRouteNotFound    = 4004 // 路由不存在
	ErrCodeForbidden        = 4005 // 权限不足
	ErrCodeUnauthorized     = 4006 // 认证失败
	ErrCodeConflict         = 4008 // 数据冲突
	ErrCodeTooManyRequests  = 4009 // 请求过于频繁
	ErrCodePixelAccess      = 4010 // 跨域图片像素不可读
	ErrCodeNotReady         = 4011 // 图片尚未加载

	// 5xxx - 服务端错误
	ErrCodeInternalServer     = 5000 // 内部服务器错误
	ErrCodeServiceUnavailable = 5003 // 服务繁忙
	ErrCodeStorageService     = 5004 // 存储服务错误
	ErrCodeExternalService    = 5005 // 外部服务错误
	ErrCodeTimeout            = 5006 // 请求超时
)

// 错误消息映射
var errorMessages = map[int]string{
	ErrCodeBadRequest:         "Bad Request",
	ErrCodeBindFailed:         "Invalid Request Body",
	ErrCodeValidationFailed:   "Validation Failed",
	ErrCodeNotFound:           "Resource Not Found",
	ErrCodeRouteNotFound:      "Route Not Found",
	ErrCodeForbidden:          "Forbidden",
	ErrCodeUnauthorized:       "Unauthorized",
	ErrCodeConflict:           "Data Conflict",
	ErrCodeTooManyRequests:    "Too Many Requests",
	ErrCodePixelAccess:        "Image Pixels Not Readable",
	ErrCodeNotReady:           "Images Not Loaded",
	ErrCodeInternalServer:     "Internal Server Error",
	ErrCodeServiceUnavailable: "Service Unavailable",
	ErrCodeStorageService:     "Storage Service Error",
	ErrCodeExternalService:    "External Service Error",
	ErrCodeTimeout:            "Request Timeout",
}

// 应用错误类型到错误码
var typeCodes = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeValidation:   ErrCodeValidationFailed,
	apperrors.ErrorTypeRequired:     ErrCodeValidationFailed,
	apperrors.ErrorTypeInvalid:      ErrCodeValidationFailed,
	apperrors.ErrorTypeNotFound:     ErrCodeNotFound,
	apperrors.ErrorTypeUnauthorized: ErrCodeUnauthorized,
	apperrors.ErrorTypeForbidden:    ErrCodeForbidden,
	apperrors.ErrorTypePixelAccess:  ErrCodePixelAccess,
	apperrors.ErrorTypeNotReady:     ErrCodeNotReady,
	apperrors.ErrorTypeRateLimit:    ErrCodeTooManyRequests,
	apperrors.ErrorTypeTimeout:      ErrCodeTimeout,
	apperrors.ErrorTypeUnavailable:  ErrCodeServiceUnavailable,
	apperrors.ErrorTypeExternal:     ErrCodeExternalService,
	apperrors.ErrorTypeInternal:     ErrCodeInternalServer,
	apperrors.ErrorTypeUnknown:      ErrCodeInternalServer,
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// CodeFor returns the response code for an application error type.
func CodeFor(t apperrors.ErrorType) int {
	if code, ok := typeCodes[t]; ok {
		return code
	}
	return ErrCodeInternalServer
}

// NewError creates a new Error with code and message
func NewError(code int, message string) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new Error with code, message and details
func NewErrorWithDetails(code int, message string, details any) Error {
	err := NewError(code, message)
	err.Details = details
	return err
}
