package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Tenant 租户模型，每个租户拥有一棵独立的族谱树
type Tenant struct {
	gorm.Model
	PublicID uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	Name     string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Secret   string    `gorm:"size:100;not null" json:"-"`
}

// BeforeSave 保存前加密访问密钥
func (t *Tenant) BeforeSave(tx *gorm.DB) error {
	if t.PublicID == uuid.Nil {
		t.PublicID = uuid.New()
	}
	if t.Secret != "" && !isBcryptHash(t.Secret) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(t.Secret), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		t.Secret = string(hashed)
	}
	return nil
}

// CheckSecret 校验访问密钥是否正确
func (t *Tenant) CheckSecret(secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(t.Secret), []byte(secret))
	return err == nil
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenants"
}

// isBcryptHash 判断字符串是否已经是bcrypt哈希，避免重复加密
func isBcryptHash(s string) bool {
	return len(s) == 60 && (s[:4] == "$2a$" || s[:4] == "$2b$" || s[:4] == "$2y$")
}
