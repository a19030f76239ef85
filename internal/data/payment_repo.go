package data

import (
	"context"
	stderrors "errors"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/data/model"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// historyColumns 历史列表字段，metadata 不对外返回
var historyColumns = []string{
	"payment_id", "order_id", "user_id", "amount", "order_info",
	"payment_method", "status", "provider_trans_id", "result_code",
	"message", "response_time", "subscription_plan_id", "pay_url",
	"created_at", "updated_at",
}

// paymentRepo 支付台账仓库实现
type paymentRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentRepo 创建支付台账仓库
func NewPaymentRepo(data *Data, logger log.Logger) biz.PaymentRepo {
	return &paymentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreatePayment 创建支付记录，订单号重复时返回 DUPLICATE_ORDER
func (r *paymentRepo) CreatePayment(ctx context.Context, p *biz.Payment) error {
	m := toPaymentModel(p)
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.New(errors.ErrCodeDuplicateOrder, "Order ID already exists")
		}
		r.log.Errorf("Failed to create payment %s: %v", p.OrderID, err)
		return err
	}
	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

// GetPayment 按订单号查询
func (r *paymentRepo) GetPayment(ctx context.Context, orderID string) (*biz.Payment, error) {
	var m model.Payment
	err := r.data.db.WithContext(ctx).First(&m, "order_id = ?", orderID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get payment %s: %v", orderID, err)
		return nil, err
	}
	return toPaymentBiz(&m), nil
}

// MarkTerminal 条件更新：仅 pending 状态可迁移到终态。
// 影响行数为 0 说明记录不存在或已是终态，由调用方区分。
func (r *paymentRepo) MarkTerminal(ctx context.Context, orderID string, upd *biz.TerminalUpdate) (bool, error) {
	values := map[string]interface{}{
		"status": upd.Status,
	}
	if upd.ProviderTransID != "" {
		values["provider_trans_id"] = upd.ProviderTransID
	}
	if upd.ResultCode != nil {
		values["result_code"] = *upd.ResultCode
	}
	if upd.Message != "" {
		values["message"] = upd.Message
	}
	if upd.ResponseTime != nil {
		values["response_time"] = *upd.ResponseTime
	}

	tx := r.data.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, constants.PaymentStatusPending).
		Updates(values)
	if tx.Error != nil {
		r.log.Errorf("Failed to mark payment %s terminal: %v", orderID, tx.Error)
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// AppendMetadata 合并写入 metadata，只增不删
func (r *paymentRepo) AppendMetadata(ctx context.Context, orderID string, entries map[string]interface{}) error {
	var m model.Payment
	if err := r.data.db.WithContext(ctx).Select("payment_id", "metadata").
		First(&m, "order_id = ?", orderID).Error; err != nil {
		r.log.Errorf("Failed to load metadata for payment %s: %v", orderID, err)
		return err
	}

	merged := make(datatypes.JSONMap, len(m.Metadata)+len(entries))
	for k, v := range m.Metadata {
		merged[k] = v
	}
	for k, v := range entries {
		merged[k] = v
	}

	if err := r.data.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ?", orderID).
		Update("metadata", merged).Error; err != nil {
		r.log.Errorf("Failed to append metadata for payment %s: %v", orderID, err)
		return err
	}
	return nil
}

// ListPaymentsByUser 按用户分页查询，createdAt 倒序，插入顺序兜底
func (r *paymentRepo) ListPaymentsByUser(ctx context.Context, userID string, page, limit int) ([]*biz.Payment, int64, error) {
	var total int64
	if err := r.data.db.WithContext(ctx).Model(&model.Payment{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []model.Payment
	if err := r.data.db.WithContext(ctx).
		Select(historyColumns).
		Where("user_id = ?", userID).
		Order("created_at DESC, payment_id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list payments for user %s: %v", userID, err)
		return nil, 0, err
	}

	return toPaymentBizList(models), total, nil
}

// ListPayments 全量分页查询
func (r *paymentRepo) ListPayments(ctx context.Context, page, limit int) ([]*biz.Payment, int64, error) {
	var total int64
	if err := r.data.db.WithContext(ctx).Model(&model.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []model.Payment
	if err := r.data.db.WithContext(ctx).
		Select(historyColumns).
		Order("created_at DESC, payment_id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list payments: %v", err)
		return nil, 0, err
	}

	return toPaymentBizList(models), total, nil
}

func toPaymentModel(p *biz.Payment) *model.Payment {
	return &model.Payment{
		ID:                 p.ID,
		OrderID:            p.OrderID,
		UserID:             p.UserID,
		Amount:             p.Amount,
		OrderInfo:          p.OrderInfo,
		PaymentMethod:      p.PaymentMethod,
		Status:             p.Status,
		ProviderTransID:    p.ProviderTransID,
		ResultCode:         p.ResultCode,
		Message:            p.Message,
		ResponseTime:       p.ResponseTime,
		SubscriptionPlanID: p.SubscriptionPlanID,
		PayURL:             p.PayURL,
		Metadata:           datatypes.JSONMap(p.Metadata),
	}
}

func toPaymentBiz(m *model.Payment) *biz.Payment {
	return &biz.Payment{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		UserID:             m.UserID,
		Amount:             m.Amount,
		OrderInfo:          m.OrderInfo,
		PaymentMethod:      m.PaymentMethod,
		Status:             m.Status,
		ProviderTransID:    m.ProviderTransID,
		ResultCode:         m.ResultCode,
		Message:            m.Message,
		ResponseTime:       m.ResponseTime,
		SubscriptionPlanID: m.SubscriptionPlanID,
		PayURL:             m.PayURL,
		Metadata:           map[string]interface{}(m.Metadata),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toPaymentBizList(models []model.Payment) []*biz.Payment {
	payments := make([]*biz.Payment, len(models))
	for i := range models {
		p := toPaymentBiz(&models[i])
		p.Metadata = nil
		payments[i] = p
	}
	return payments
}
