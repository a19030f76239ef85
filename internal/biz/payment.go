package biz

import (
	"context"
	"time"

	"xinyuan_tech/directory-service/internal/conf"
	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

// Payment 支付台账记录，每次支付请求一条，终态由回调写入
type Payment struct {
	ID                 uint64
	OrderID            string
	UserID             string
	Amount             int64
	OrderInfo          string
	PaymentMethod      string // momo, payos
	Status             string // pending, success, failed, cancelled
	ProviderTransID    string
	ResultCode         *int
	Message            string
	ResponseTime       *time.Time
	SubscriptionPlanID int
	PayURL             string
	Metadata           map[string]interface{}
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TerminalUpdate pending -> 终态迁移时写入的渠道回执字段
type TerminalUpdate struct {
	Status          string
	ProviderTransID string
	ResultCode      *int
	Message         string
	ResponseTime    *time.Time
}

// PaymentRepo 支付台账仓库接口
type PaymentRepo interface {
	CreatePayment(ctx context.Context, p *Payment) error
	// GetPayment 按订单号查询，不存在时返回 (nil, nil)
	GetPayment(ctx context.Context, orderID string) (*Payment, error)
	// MarkTerminal 仅当当前状态为 pending 时写入终态，返回本次调用是否完成了迁移
	MarkTerminal(ctx context.Context, orderID string, upd *TerminalUpdate) (bool, error)
	// AppendMetadata 合并写入 metadata，保留已有键
	AppendMetadata(ctx context.Context, orderID string, entries map[string]interface{}) error
	// ListPaymentsByUser 按用户分页查询，createdAt 倒序，列表不含 metadata
	ListPaymentsByUser(ctx context.Context, userID string, page, limit int) ([]*Payment, int64, error)
	// ListPayments 全量分页查询，createdAt 倒序，列表不含 metadata
	ListPayments(ctx context.Context, page, limit int) ([]*Payment, int64, error)
}

// DirectoryUser 外部用户目录中的用户画像
type DirectoryUser struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	Username       string
	ImageURL       string
	CreatedAt      int64
	LastSignInAt   int64
	PublicMetadata map[string]interface{}
	UnsafeMetadata map[string]interface{}
}

// DirectoryClient 外部用户目录服务客户端接口（防腐层）
type DirectoryClient interface {
	GetUser(ctx context.Context, userID string) (*DirectoryUser, error)
	// UpdateUserMetadata 整体替换用户的 unsafe metadata（外部 API 不支持局部 patch）
	UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error
	ListUsers(ctx context.Context, limit, offset int) ([]*DirectoryUser, error)
}

// MomoClient 钱包渠道客户端接口（防腐层）
type MomoClient interface {
	CreatePayment(ctx context.Context, req *MomoCreateRequest) (*MomoCreateResponse, error)
}

// PayosClient 收银台链接渠道客户端接口（防腐层）
type PayosClient interface {
	CreatePaymentLink(ctx context.Context, req *PayosCreateRequest) (*PayosLinkData, error)
}

// PaymentUsecase 支付业务逻辑：建单、回调对账、角色回退、台账查询
type PaymentUsecase struct {
	repo      PaymentRepo
	momo      MomoClient
	payos     PayosClient
	directory DirectoryClient
	rs        *redsync.Redsync
	conf      *conf.Bootstrap
	log       *log.Helper
}

func NewPaymentUsecase(repo PaymentRepo, momo MomoClient, payos PayosClient, directory DirectoryClient, rs *redsync.Redsync, c *conf.Bootstrap, logger log.Logger) *PaymentUsecase {
	return &PaymentUsecase{
		repo:      repo,
		momo:      momo,
		payos:     payos,
		directory: directory,
		rs:        rs,
		conf:      c,
		log:       log.NewHelper(logger),
	}
}

// GetPaymentStatus 查询单笔支付
func (uc *PaymentUsecase) GetPaymentStatus(ctx context.Context, orderID string) (*Payment, error) {
	p, err := uc.repo.GetPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New(errors.ErrCodePaymentNotFound, "payment %s not found", orderID)
	}
	return p, nil
}

// GetUserHistory 按用户分页查询支付历史，返回归一化后的 page/limit 供响应回显
func (uc *PaymentUsecase) GetUserHistory(ctx context.Context, userID string, page, limit int) ([]*Payment, int64, int, int, error) {
	page, limit = NormalizePaging(page, limit, constants.DefaultPageSize)
	payments, total, err := uc.repo.ListPaymentsByUser(ctx, userID, page, limit)
	return payments, total, page, limit, err
}

// GetAllHistory 全量分页查询支付历史，返回归一化后的 page/limit 供响应回显
func (uc *PaymentUsecase) GetAllHistory(ctx context.Context, page, limit int) ([]*Payment, int64, int, int, error) {
	page, limit = NormalizePaging(page, limit, constants.DefaultAllHistoryPageSize)
	payments, total, err := uc.repo.ListPayments(ctx, page, limit)
	return payments, total, page, limit, err
}

// NormalizePaging 页码从 1 起，limit 统一钳制到 MaxPageSize
func NormalizePaging(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = constants.DefaultPage
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	return page, limit
}

// lockCallback 对单笔订单的回调对账加分布式锁。
// 锁不可用时降级为直接执行，台账层的 pending CAS 仍保证不会重复迁移。
func (uc *PaymentUsecase) lockCallback(ctx context.Context, orderID string) func() {
	if uc.rs == nil {
		return func() {}
	}
	mutex := uc.rs.NewMutex(
		"payment_callback_lock:"+orderID,
		redsync.WithExpiry(constants.CallbackLockExpiration),
		redsync.WithTries(constants.CallbackLockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		uc.log.Warnf("Failed to acquire callback lock for order %s: %v", orderID, err)
		return func() {}
	}
	return func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			uc.log.Warnf("Failed to unlock callback lock for order %s: %v", orderID, err)
		}
	}
}

// revertUserRole 支付失败/取消后的补偿动作：将外部用户目录中的角色回退为 client。
// 读-改-写整个 unsafe metadata（外部 API 只支持整体替换），保留无关字段。
// 失败不向上传播，只记录日志并写入台账 metadata。
func (uc *PaymentUsecase) revertUserRole(ctx context.Context, orderID, userID, reason string) {
	now := time.Now().UTC().Format(time.RFC3339)

	user, err := uc.directory.GetUser(ctx, userID)
	if err != nil {
		uc.log.Errorf("Failed to revert user role for %s: %v", userID, err)
		uc.recordRevertError(ctx, orderID, err, now)
		return
	}

	meta := make(map[string]interface{}, len(user.UnsafeMetadata)+2)
	for k, v := range user.UnsafeMetadata {
		meta[k] = v
	}
	meta["role"] = constants.RoleClient
	meta["subscription"] = nil

	if err := uc.directory.UpdateUserMetadata(ctx, userID, meta); err != nil {
		uc.log.Errorf("Failed to revert user role for %s: %v", userID, err)
		uc.recordRevertError(ctx, orderID, err, now)
		return
	}

	uc.log.Infof("User %s role reverted to client (order %s): %s", userID, orderID, reason)
	if err := uc.repo.AppendMetadata(ctx, orderID, map[string]interface{}{
		"userRoleReverted": true,
		"revertedAt":       now,
		"revertReason":     reason,
	}); err != nil {
		uc.log.Errorf("Failed to record role reversion for order %s: %v", orderID, err)
	}
}

func (uc *PaymentUsecase) recordRevertError(ctx context.Context, orderID string, cause error, at string) {
	if err := uc.repo.AppendMetadata(ctx, orderID, map[string]interface{}{
		"userRoleRevertError": cause.Error(),
		"revertAttemptedAt":   at,
	}); err != nil {
		uc.log.Errorf("Failed to record role reversion error for order %s: %v", orderID, err)
	}
}
