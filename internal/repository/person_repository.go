package repository

import (
	"errors"

	"gorm.io/gorm"

	"familytree_go/internal/model"
)

// PersonRepository 家族成员存储
// 所有查询和变更都以租户ID为隐式过滤条件，跨租户引用在此层被隔离
type PersonRepository struct {
	db *gorm.DB
}

// NewPersonRepository 创建家族成员存储实例
func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db.DB}
}

// Transaction 在单个事务中执行fn，fn内的所有读写要么全部提交要么全部回滚
func (r *PersonRepository) Transaction(fn func(tx *PersonRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PersonRepository{db: tx})
	})
}

// FindByID 根据ID查询成员，未找到返回(nil, nil)
func (r *PersonRepository) FindByID(tenantID, id uint) (*model.Person, error) {
	var person model.Person
	err := r.db.Where("tenant_id = ?", tenantID).First(&person, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByIDs 根据ID列表查询成员
func (r *PersonRepository) FindByIDs(tenantID uint, ids []uint) ([]model.Person, error) {
	var persons []model.Person
	if len(ids) == 0 {
		return persons, nil
	}
	err := r.db.Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&persons).Error
	return persons, err
}

// FindAll 分页查询租户的全部成员
func (r *PersonRepository) FindAll(tenantID uint, offset, limit int) ([]model.Person, int64, error) {
	var persons []model.Person
	var total int64

	query := r.db.Model(&model.Person{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id").Offset(offset).Limit(limit).Find(&persons).Error
	return persons, total, err
}

// FindProgenitor 查询租户当前的始祖，不存在返回(nil, nil)
func (r *PersonRepository) FindProgenitor(tenantID uint) (*model.Person, error) {
	var person model.Person
	err := r.db.Where("tenant_id = ? AND progenitor = ?", tenantID, true).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// SearchByName 按姓名子串查询成员
func (r *PersonRepository) SearchByName(tenantID uint, q string) ([]model.Person, error) {
	var persons []model.Person
	pattern := "%" + q + "%"
	err := r.db.
		Where("tenant_id = ?", tenantID).
		Where("first_name LIKE ? OR last_name LIKE ?", pattern, pattern).
		Order("id").
		Find(&persons).Error
	return persons, err
}

// FindChildrenOf 查询以指定成员为父亲或母亲的全部子女
func (r *PersonRepository) FindChildrenOf(tenantID, parentID uint) ([]model.Person, error) {
	var persons []model.Person
	err := r.db.
		Where("tenant_id = ?", tenantID).
		Where("father_id = ? OR mother_id = ?", parentID, parentID).
		Find(&persons).Error
	return persons, err
}

// CountByTenant 统计租户的成员数量
func (r *PersonRepository) CountByTenant(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Person{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// CountDependents 统计把指定成员作为父亲或母亲引用的记录数
func (r *PersonRepository) CountDependents(tenantID, id uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Person{}).
		Where("tenant_id = ?", tenantID).
		Where("father_id = ? OR mother_id = ?", id, id).
		Count(&count).Error
	return count, err
}

// Create 插入新成员
func (r *PersonRepository) Create(person *model.Person) error {
	return r.db.Create(person).Error
}

// UpdateFields 对指定成员执行字段级部分更新
func (r *PersonRepository) UpdateFields(tenantID, id uint, updates map[string]interface{}) error {
	result := r.db.Model(&model.Person{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除成员及其生平事件
func (r *PersonRepository) Delete(tenantID, id uint) error {
	if err := r.db.Where("tenant_id = ? AND person_id = ?", tenantID, id).
		Delete(&model.Event{}).Error; err != nil {
		return err
	}
	return r.db.Where("tenant_id = ?", tenantID).Delete(&model.Person{}, id).Error
}

// CreateEvent 插入生平事件
func (r *PersonRepository) CreateEvent(event *model.Event) error {
	return r.db.Create(event).Error
}

// FindEventsOf 查询指定成员的全部生平事件
func (r *PersonRepository) FindEventsOf(tenantID, personID uint) ([]model.Event, error) {
	var events []model.Event
	err := r.db.
		Where("tenant_id = ? AND person_id = ?", tenantID, personID).
		Order("event_date").
		Find(&events).Error
	return events, err
}

// DeleteEvent 删除生平事件
func (r *PersonRepository) DeleteEvent(tenantID, id uint) error {
	result := r.db.Where("tenant_id = ?", tenantID).Delete(&model.Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
