package models

// ProvisionOfTheAct is the statutory provision a line item claims its carbon
// intensity under. Fuel-code provisions make the fuel code mandatory on the
// line.
type ProvisionOfTheAct struct {
	ID               int64  `gorm:"column:provision_of_the_act_id;primaryKey;autoIncrement"`
	Name             string `gorm:"column:name;not null;uniqueIndex"`
	Description      string `gorm:"column:description"`
	IsLegacy         bool   `gorm:"column:is_legacy;not null;default:false"`
	RequiresFuelCode bool   `gorm:"column:requires_fuel_code;not null;default:false"`

	AuditStamps
}

func (ProvisionOfTheAct) TableName() string { return "provision_of_the_act" }
