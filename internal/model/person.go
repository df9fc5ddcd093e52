package model

import (
	"time"

	"gorm.io/gorm"
)

// Gender 性别
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Role 亲子关系角色，父亲或母亲
type Role string

const (
	RoleFather Role = "father"
	RoleMother Role = "mother"
)

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	return r == RoleFather || r == RoleMother
}

// ExpectedGender 返回该角色要求的性别
func (r Role) ExpectedGender() string {
	if r == RoleFather {
		return GenderMale
	}
	return GenderFemale
}

// Person 家族成员模型
// 每条记录属于一个租户（族谱树），父母引用只能指向同租户成员
type Person struct {
	gorm.Model
	TenantID  uint      `gorm:"index;not null" json:"tenant_id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Gender    string    `gorm:"size:10;not null" json:"gender"`
	BirthDate *FlexDate `gorm:"type:varchar(10)" json:"birth_date,omitempty"`
	DeathDate *FlexDate `gorm:"type:varchar(10)" json:"death_date,omitempty"`
	Trivia    string    `gorm:"type:text" json:"trivia,omitempty"`

	// Progenitor 始祖标记，每个租户至多一条记录为true
	Progenitor bool `gorm:"not null;default:false" json:"progenitor"`

	// 关系字段
	FatherID *uint   `json:"father_id,omitempty"`
	Father   *Person `gorm:"foreignKey:FatherID" json:"father,omitempty"`
	MotherID *uint   `json:"mother_id,omitempty"`
	Mother   *Person `gorm:"foreignKey:MotherID" json:"mother,omitempty"`

	// 其他信息
	Events []Event `gorm:"foreignKey:PersonID" json:"events,omitempty"`
}

// ParentID 返回指定角色对应的父母ID
func (p *Person) ParentID(role Role) *uint {
	if role == RoleFather {
		return p.FatherID
	}
	return p.MotherID
}

// Event 生平事件模型
type Event struct {
	gorm.Model
	TenantID    uint      `gorm:"index;not null" json:"tenant_id"`
	PersonID    uint      `gorm:"index;not null" json:"person_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	EventDate   time.Time `json:"event_date"`
	EventType   string    `gorm:"size:50" json:"event_type"` // 如：出生、结婚、迁徙、去世等
	Location    string    `gorm:"size:200" json:"location,omitempty"`
}
