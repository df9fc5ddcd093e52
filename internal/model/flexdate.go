package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DatePrecision 日期精度
type DatePrecision string

const (
	PrecisionYear DatePrecision = "year" // 仅年份 YYYY
	PrecisionFull DatePrecision = "full" // 完整日期 YYYY-MM-DD
)

// FlexDate 支持两种精度的日期值
// 族谱记录中的日期经常只精确到年份，因此用带精度标签的值表示，
// 比较规则根据双方的精度组合分派，避免在调用处做字符串拆分
type FlexDate struct {
	Year      int
	Month     time.Month
	Day       int
	Precision DatePrecision
}

// ParseFlexDate 解析日期字符串，支持 YYYY 和 YYYY-MM-DD 两种格式
func ParseFlexDate(value string) (FlexDate, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return FlexDate{
			Year:      t.Year(),
			Month:     t.Month(),
			Day:       t.Day(),
			Precision: PrecisionFull,
		}, nil
	}
	if t, err := time.Parse("2006", value); err == nil {
		return FlexDate{Year: t.Year(), Precision: PrecisionYear}, nil
	}
	return FlexDate{}, fmt.Errorf("invalid date %q: must be YYYY or YYYY-MM-DD", value)
}

// MustParseFlexDate 解析日期字符串，失败时panic，仅用于测试和常量
func MustParseFlexDate(value string) FlexDate {
	d, err := ParseFlexDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero 判断是否为空日期
func (d FlexDate) IsZero() bool {
	return d.Precision == ""
}

// IsFull 判断是否为完整精度
func (d FlexDate) IsFull() bool {
	return d.Precision == PrecisionFull
}

// Time 返回完整精度日期对应的时间值，仅年份精度返回当年1月1日
func (d FlexDate) Time() time.Time {
	if d.Precision == PrecisionYear {
		return time.Date(d.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddMonths 返回完整精度日期加上指定月数后的时间值
func (d FlexDate) AddMonths(months int) time.Time {
	return d.Time().AddDate(0, months, 0)
}

// After 判断是否晚于另一个完整精度日期，要求双方均为完整精度
func (d FlexDate) After(other FlexDate) bool {
	return d.Time().After(other.Time())
}

// String 返回规范化的日期字符串
func (d FlexDate) String() string {
	switch d.Precision {
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	case PrecisionFull:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	return ""
}

// Value 实现driver.Valuer接口，以文本形式存储
func (d FlexDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan 实现sql.Scanner接口
func (d *FlexDate) Scan(value interface{}) error {
	if value == nil {
		*d = FlexDate{}
		return nil
	}
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case time.Time:
		*d = FlexDate{Year: v.Year(), Month: v.Month(), Day: v.Day(), Precision: PrecisionFull}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into FlexDate", value)
	}
	parsed, err := ParseFlexDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON 实现json.Marshaler接口
func (d FlexDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *FlexDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*d = FlexDate{}
		return nil
	}
	parsed, err := ParseFlexDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
