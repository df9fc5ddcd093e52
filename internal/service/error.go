package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode int

const (
	// 系统级错误码
	ErrInternal ErrorCode = iota + 1
	ErrDatabase
	ErrValidation
	ErrAuthentication

	// 业务级错误码（族谱图一致性规则）
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidRole
	ErrImplausibleAge
	ErrImplausibleDeathWindow
	ErrCycleDetected
	ErrDisconnectedPerson
	ErrDuplicateProgenitor
	ErrIdentityMismatch
	ErrHasDependents
	ErrSelfParent
)

// String 返回错误码名称
func (c ErrorCode) String() string {
	switch c {
	case ErrInternal:
		return "Internal"
	case ErrDatabase:
		return "Database"
	case ErrValidation:
		return "Validation"
	case ErrAuthentication:
		return "Authentication"
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidRole:
		return "InvalidRole"
	case ErrImplausibleAge:
		return "ImplausibleAge"
	case ErrImplausibleDeathWindow:
		return "ImplausibleDeathWindow"
	case ErrCycleDetected:
		return "CycleDetected"
	case ErrDisconnectedPerson:
		return "DisconnectedPerson"
	case ErrDuplicateProgenitor:
		return "DuplicateProgenitor"
	case ErrIdentityMismatch:
		return "IdentityMismatch"
	case ErrHasDependents:
		return "HasDependents"
	case ErrSelfParent:
		return "SelfParent"
	}
	return "Unknown"
}

// HTTPStatus 返回错误码对应的HTTP状态码
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrAuthentication:
		return http.StatusUnauthorized
	case ErrHasDependents, ErrDuplicateProgenitor, ErrIdentityMismatch, ErrCycleDetected:
		return http.StatusConflict
	case ErrInternal, ErrDatabase:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// AppError 应用程序错误
// 每个校验失败都携带违反的规则、相关ID和参与比较的值，
// 调用方可以据此渲染可操作的错误信息
type AppError struct {
	Code    ErrorCode              // 错误码
	Message string                 // 错误消息
	Err     error                  // 原始错误
	Context map[string]interface{} // 上下文信息
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现errors.Unwrap接口
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新的应用程序错误
func NewError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// Errorf 创建带格式化消息的应用程序错误
func Errorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return NewError(code, fmt.Sprintf(format, args...), nil)
}

// WithContext 添加上下文信息
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// CodeOf 提取错误对应的错误码，非AppError返回ErrInternal
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
