package service

import (
	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// RelationshipValidator 亲子关系校验服务
// 校验被引用的父母在同一租户内存在，且性别与声明的角色一致
type RelationshipValidator struct {
	repo *repository.PersonRepository
}

// NewRelationshipValidator 创建亲子关系校验服务实例
func NewRelationshipValidator(repo *repository.PersonRepository) *RelationshipValidator {
	return &RelationshipValidator{repo: repo}
}

// ResolveParent 解析并校验指定角色的父母引用
// id为nil时直接返回；查无此人返回NotFound；性别与角色不符返回InvalidRole
func (v *RelationshipValidator) ResolveParent(tenantID uint, role model.Role, id *uint) (*model.Person, error) {
	if id == nil {
		return nil, nil
	}

	parent, err := v.repo.FindByID(tenantID, *id)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to look up parent", err)
	}
	if parent == nil {
		return nil, Errorf(ErrNotFound, "%s with id %d not found", role, *id).
			WithContext("role", role).
			WithContext("parent_id", *id)
	}

	if expected := role.ExpectedGender(); parent.Gender != expected {
		return nil, Errorf(ErrInvalidRole, "person %d cannot be %s: gender is %s, expected %s",
			parent.ID, role, parent.Gender, expected).
			WithContext("role", role).
			WithContext("parent_id", parent.ID).
			WithContext("gender", parent.Gender).
			WithContext("expected_gender", expected)
	}

	return parent, nil
}
