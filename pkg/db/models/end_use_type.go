package models

// EndUseType is the drivetrain or end use a fuel is supplied for.
type EndUseType struct {
	ID      int64  `gorm:"column:end_use_type_id;primaryKey;autoIncrement"`
	Type    string `gorm:"column:type;not null"`
	SubType string `gorm:"column:sub_type"`

	AuditStamps
}

func (EndUseType) TableName() string { return "end_use_type" }
