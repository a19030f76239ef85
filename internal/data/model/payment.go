package model

import (
	"time"

	"gorm.io/datatypes"
)

// Payment 支付台账模型
type Payment struct {
	ID                 uint64            `gorm:"primaryKey;column:payment_id;autoIncrement"`
	OrderID            string            `gorm:"column:order_id;size:64;uniqueIndex;not null"`
	UserID             string            `gorm:"column:user_id;size:64;index:idx_user_status,priority:1;not null"`
	Amount             int64             `gorm:"column:amount;not null"`
	OrderInfo          string            `gorm:"column:order_info;size:255;not null"`
	PaymentMethod      string            `gorm:"column:payment_method;size:20;default:'momo'"`
	Status             string            `gorm:"column:status;size:20;default:'pending';index:idx_user_status,priority:2"`
	ProviderTransID    string            `gorm:"column:provider_trans_id;size:64"`
	ResultCode         *int              `gorm:"column:result_code"`
	Message            string            `gorm:"column:message;size:255"`
	ResponseTime       *time.Time        `gorm:"column:response_time"`
	SubscriptionPlanID int               `gorm:"column:subscription_plan_id;not null"`
	PayURL             string            `gorm:"column:pay_url;size:512"`
	Metadata           datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt          time.Time         `gorm:"column:created_at;index"`
	UpdatedAt          time.Time         `gorm:"column:updated_at"`
}

func (Payment) TableName() string { return "payment" }
