package models

// Recipe は recipes テーブルに対応します。User は所有者で、常に1人です。
type Recipe struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Title             string `gorm:"size:100;not null" json:"title" validate:"required,max=100"`
	Instructions      string `gorm:"size:1000;not null" json:"instructions" validate:"required,max=1000"`
	MinutesToComplete int    `gorm:"not null" json:"minutes_to_complete"`
	IsMemberOnly      bool   `gorm:"not null;default:false" json:"is_member_only"`
	UserID            uint   `gorm:"not null;index" json:"-" validate:"required"`
	User              User   `gorm:"constraint:OnDelete:RESTRICT" json:"user" validate:"-"`
}

// TableName はテーブル名を明示します。
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeUpdate は更新可能なフィールドです。IsMemberOnly は nil なら変更しません。
type RecipeUpdate struct {
	Title             string
	Instructions      string
	MinutesToComplete int
	IsMemberOnly      *bool
}
