package repository

import (
	"errors"

	"gorm.io/gorm"

	"familytree_go/internal/model"
)

// TenantRepository 租户存储
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建租户存储实例
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db.DB}
}

// Create 插入新租户
func (r *TenantRepository) Create(tenant *model.Tenant) error {
	return r.db.Create(tenant).Error
}

// FindByName 根据名称查询租户，未找到返回(nil, nil)
func (r *TenantRepository) FindByName(name string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.Where("name = ?", name).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindByID 根据ID查询租户，未找到返回(nil, nil)
func (r *TenantRepository) FindByID(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.First(&tenant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
