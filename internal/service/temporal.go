package service

import (
	"familytree_go/internal/model"
)

// MinParentAgeGap 父母与子女的最小年龄差
const MinParentAgeGap = 14

// fatherPostMortemMonths 父亲去世后允许子女出生的最大月数（受孕窗口）
const fatherPostMortemMonths = 9

// TemporalValidator 时间合理性校验服务
// 历史记录中的日期经常只精确到年份，这里的规则按双方日期精度分派，
// 在严格性和合理性之间取舍，而不追求精确的日历校验
type TemporalValidator struct{}

// NewTemporalValidator 创建时间合理性校验服务实例
func NewTemporalValidator() *TemporalValidator {
	return &TemporalValidator{}
}

// ValidateChild 校验子女出生日期相对父母双方的合理性
// 出生日期缺失时不做校验，父母各自独立校验
func (v *TemporalValidator) ValidateChild(birthDate *model.FlexDate, father, mother *model.Person) error {
	if birthDate == nil || birthDate.IsZero() {
		return nil
	}
	if err := v.validateAgainstParent(*birthDate, father, model.RoleFather); err != nil {
		return err
	}
	return v.validateAgainstParent(*birthDate, mother, model.RoleMother)
}

// ValidateChildren 以父母为基准校验一组已存在的子女
// 将子女挂到新建或已有的长辈下时方向互换，日期规则完全相同
func (v *TemporalValidator) ValidateChildren(parent *model.Person, role model.Role, children []model.Person) error {
	for i := range children {
		child := &children[i]
		if child.BirthDate == nil || child.BirthDate.IsZero() {
			continue
		}
		if err := v.validateAgainstParent(*child.BirthDate, parent, role); err != nil {
			if appErr, ok := err.(*AppError); ok {
				appErr.WithContext("child_id", child.ID)
			}
			return err
		}
	}
	return nil
}

// validateAgainstParent 对单个父/母执行最小年龄与死亡窗口两条规则
func (v *TemporalValidator) validateAgainstParent(childBirth model.FlexDate, parent *model.Person, role model.Role) error {
	if parent == nil {
		return nil
	}

	if parent.BirthDate != nil && !parent.BirthDate.IsZero() {
		gap := childBirth.Year - parent.BirthDate.Year
		if parent.BirthDate.Year >= childBirth.Year || gap < MinParentAgeGap {
			return Errorf(ErrImplausibleAge,
				"%s %d born %s is too young for a child born %s: age gap must be at least %d years",
				role, parent.ID, parent.BirthDate, childBirth, MinParentAgeGap).
				WithContext("role", role).
				WithContext("parent_id", parent.ID).
				WithContext("parent_birth", parent.BirthDate.String()).
				WithContext("child_birth", childBirth.String()).
				WithContext("age_gap", gap).
				WithContext("min_age_gap", MinParentAgeGap)
		}
	}

	if parent.DeathDate == nil || parent.DeathDate.IsZero() {
		return nil
	}
	death := *parent.DeathDate

	if role == model.RoleFather {
		// 父亲：双方均为完整精度时允许死后9个月内出生，
		// 否则按年份比较并容忍1年的受孕窗口
		if death.IsFull() && childBirth.IsFull() {
			if childBirth.Time().After(death.AddMonths(fatherPostMortemMonths)) {
				return v.deathWindowError(childBirth, parent, role,
					"child born more than %d months after father's death", fatherPostMortemMonths)
			}
		} else if childBirth.Year > death.Year+1 {
			return v.deathWindowError(childBirth, parent, role,
				"child born more than 1 year after father's death year")
		}
		return nil
	}

	// 母亲：必须活到子女出生，完整精度直接比较日期，
	// 仅年份或混合精度时只容忍同一年内
	if death.IsFull() && childBirth.IsFull() {
		if childBirth.After(death) {
			return v.deathWindowError(childBirth, parent, role,
				"child born after mother's death")
		}
	} else if childBirth.Year > death.Year {
		return v.deathWindowError(childBirth, parent, role,
			"child born after mother's death year")
	}
	return nil
}

// deathWindowError 构造死亡窗口错误并附带比较用到的值
func (v *TemporalValidator) deathWindowError(childBirth model.FlexDate, parent *model.Person, role model.Role, format string, args ...interface{}) error {
	return Errorf(ErrImplausibleDeathWindow, format, args...).
		WithContext("role", role).
		WithContext("parent_id", parent.ID).
		WithContext("parent_death", parent.DeathDate.String()).
		WithContext("child_birth", childBirth.String())
}
