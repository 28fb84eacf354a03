package model

import (
	"time"
)

// AnonymousDonor 匿名支持者标记
const AnonymousDonor = "anonymous"

// SupportRecord 支持记录，只追加不修改
type SupportRecord struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId"`
	Amount          int64     `json:"amount"`
	EffectiveAmount int64     `json:"effectiveAmount"` // 计入项目的金额（含翻倍奖励）
	Donor           string    `json:"donor"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DonationModel 远程存储中的捐赠表
type DonationModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId string `json:"project_id" gorm:"index;not null"`
	UserEmail string `json:"user_email"`
	Amount    int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (DonationModel) TableName() string {
	return "donations"
}

// NewDonationModel 由支持记录生成远程行
func NewDonationModel(r *SupportRecord) DonationModel {
	return DonationModel{
		Id:        r.ID,
		CreatedAt: r.CreatedAt,
		ProjectId: r.ProjectID,
		UserEmail: r.Donor,
		Amount:    r.EffectiveAmount,
	}
}
