package service

import (
	"fmt"
	"strings"

	"familytree_go/internal/model"
)

// Validator 数据验证服务
type Validator struct {
	errors []string
}

// NewValidator 创建验证器实例
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// Validate 执行验证并返回错误
func (v *Validator) Validate() error {
	if len(v.errors) > 0 {
		return Errorf(ErrValidation, "validation errors: %s", strings.Join(v.errors, "; "))
	}
	return nil
}

// Required 必填字段验证
func (v *Validator) Required(value string, fieldName string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", fieldName))
	}
	return v
}

// MaxLength 最大长度验证
func (v *Validator) MaxLength(value string, fieldName string, max int) *Validator {
	if len(value) > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be at most %d characters", fieldName, max))
	}
	return v
}

// Gender 性别验证
func (v *Validator) Gender(value string, fieldName string) *Validator {
	if value != model.GenderMale && value != model.GenderFemale {
		v.errors = append(v.errors, fmt.Sprintf("%s must be either 'male' or 'female'", fieldName))
	}
	return v
}

// Role 亲子角色验证
func (v *Validator) Role(value model.Role, fieldName string) *Validator {
	if !value.Valid() {
		v.errors = append(v.errors, fmt.Sprintf("%s must be either 'father' or 'mother'", fieldName))
	}
	return v
}
