package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/pkg/woocommerce"
)

// ProductClient 商城商品接口，*woocommerce.Client 实现
type ProductClient interface {
	Configured() bool
	CreateProduct(ctx context.Context, payload *woocommerce.ProductPayload) (*woocommerce.Product, error)
	UpdateProduct(ctx context.Context, id int64, payload *woocommerce.ProductPayload) (*woocommerce.Product, error)
}

// ==================== CommerceSyncService 商城同步编排 ====================

// CommerceSyncService 出站推送与入站 webhook 的编排
// 链接登记表是权威来源，画作上的远端 ID 只是缓存
type CommerceSyncService struct {
	uow      *repository.CommerceUnitOfWork
	client   ProductClient
	verifier *woocommerce.Verifier
	logger   *zap.Logger
	locks    *entityLocks
	now      func() time.Time
}

// NewCommerceSyncService 创建同步服务
func NewCommerceSyncService(
	uow *repository.CommerceUnitOfWork,
	client ProductClient,
	verifier *woocommerce.Verifier,
	logger *zap.Logger,
) *CommerceSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommerceSyncService{
		uow:      uow,
		client:   client,
		verifier: verifier,
		logger:   logger.Named("commerce_sync"),
		locks:    newEntityLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RetrySummary 批量重试统计
type RetrySummary struct {
	Attempted int
	Synced    int
	Failed    int
	Skipped   int
}

// errMissingProductID POST 成功但响应里没有商品 ID
var errMissingProductID = &woocommerce.APIError{StatusCode: http.StatusOK, Detail: "response carried no product id"}

// ==================== 出站推送 ====================

// SyncEntity 推送一个本地实体，返回推送后的链接
// 远端错误时链接置为 ERROR 并同时返回链接与错误
func (s *CommerceSyncService) SyncEntity(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error) {
	if kind != model.ProductKindPainting {
		return nil, fmt.Errorf("%w: %s", ErrKindNotSupported, kind)
	}

	unlock := s.locks.acquire(kind, localID)
	defer unlock()

	// 1. 本地实体
	painting, err := s.uow.Paintings.GetByID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if painting == nil {
		return nil, ErrPaintingNotFound
	}

	// 2. 链接（首次为 PENDING）
	link, err := s.uow.Links.FindOrCreate(ctx, kind, painting.ID)
	if err != nil {
		return nil, err
	}

	return s.pushPainting(ctx, painting, link)
}

func (s *CommerceSyncService) pushPainting(ctx context.Context, painting *model.Painting, link *model.ProductLink) (*model.ProductLink, error) {
	log := s.logger.With(zap.Int64("painting_id", painting.ID), zap.Int64("link_id", link.ID))

	// 3. 组装载荷并选择目标：链接上的 ID > 画作缓存 ID > 新建
	payload := BuildPaintingPayload(painting, s.now())
	target := link.RemoteProductID
	if target == nil {
		target = painting.RemoteProductID
	}

	var (
		product *woocommerce.Product
		err     error
	)
	if target != nil {
		product, err = s.client.UpdateProduct(ctx, *target, payload)
	} else {
		product, err = s.client.CreateProduct(ctx, payload)
	}

	// 远端调用之后的状态写入不随调用方取消而中断
	store := context.WithoutCancel(ctx)

	// 4. 失败处理：未配置不动链接，远端错误记 ERROR
	if err != nil {
		if errors.Is(err, woocommerce.ErrNotConfigured) {
			return nil, err
		}
		if apiErr, ok := woocommerce.AsAPIError(err); ok {
			log.Warn("商品推送失败", zap.Int("status", apiErr.StatusCode), zap.String("detail", apiErr.Detail))
			return s.recordFailure(store, link, apiErr.StatusCode, err)
		}
		return nil, err
	}

	remoteID := product.ID
	if remoteID <= 0 && target != nil {
		remoteID = *target
	}
	if remoteID <= 0 {
		log.Warn("商品推送响应缺少 ID")
		return s.recordFailure(store, link, errMissingProductID.StatusCode, errMissingProductID)
	}

	// 5. 成功：链接与画作缓存同一事务写入
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	err = s.uow.Transaction(store, func(tx *repository.CommerceUnitOfWork) error {
		if err := tx.Links.RecordPushSuccess(store, link, remoteID, raw); err != nil {
			return err
		}
		return tx.Paintings.UpdateRemoteProductID(store, painting.ID, remoteID)
	})
	if errors.Is(err, repository.ErrRemoteIDConflict) {
		log.Warn("远端商品已关联其他实体", zap.Int64("remote_id", remoteID))
		return s.recordFailure(store, link, http.StatusConflict, err)
	}
	if err != nil {
		return nil, err
	}

	painting.RemoteProductID = &remoteID
	log.Info("商品推送成功", zap.Int64("remote_id", remoteID))
	return link, nil
}

func (s *CommerceSyncService) recordFailure(ctx context.Context, link *model.ProductLink, status int, cause error) (*model.ProductLink, error) {
	if err := s.uow.Links.RecordPushFailure(ctx, link, status); err != nil {
		s.logger.Error("记录推送失败状态出错", zap.Int64("link_id", link.ID), zap.Error(err))
		return nil, errors.Join(cause, err)
	}
	return link, cause
}

// BuildPaintingPayload 画作 -> 商品载荷
// 发布时间已到为 publish，否则 draft
func BuildPaintingPayload(p *model.Painting, now time.Time) *woocommerce.ProductPayload {
	var year interface{} = ""
	if p.Year != nil {
		year = *p.Year
	}
	return woocommerce.NewProductPayload(
		p.Title,
		deref(p.Description),
		deref(p.ImageURL),
		p.IsPublished(now),
		woocommerce.MetaData{Key: "medium", Value: deref(p.Medium)},
		woocommerce.MetaData{Key: "dimensions", Value: deref(p.Dimensions)},
		woocommerce.MetaData{Key: "year", Value: year},
	)
}

// ==================== 批量重试 ====================

// RetryFailed 对 ERROR 链接执行显式重试：ERROR -> PENDING -> 推送
func (s *CommerceSyncService) RetryFailed(ctx context.Context, limit int) (RetrySummary, error) {
	var summary RetrySummary
	if !s.client.Configured() {
		return summary, &woocommerce.ConfigurationError{}
	}

	links, err := s.uow.Links.ListByState(ctx, model.SyncStateError, limit)
	if err != nil {
		return summary, err
	}

	for _, l := range links {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if l.LocalID == nil {
			summary.Skipped++
			continue
		}
		switch err := s.retryOne(ctx, l.Kind, *l.LocalID); {
		case err == nil:
			summary.Attempted++
			summary.Synced++
		case errors.Is(err, errRetrySkipped):
			summary.Skipped++
		case errors.Is(err, woocommerce.ErrNotConfigured):
			return summary, err
		default:
			summary.Attempted++
			summary.Failed++
		}
	}

	s.logger.Info("ERROR 链接重试完成",
		zap.Int("attempted", summary.Attempted),
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

var errRetrySkipped = errors.New("retry skipped")

func (s *CommerceSyncService) retryOne(ctx context.Context, kind model.ProductKind, localID int64) error {
	if kind != model.ProductKindPainting {
		return errRetrySkipped
	}

	unlock := s.locks.acquire(kind, localID)
	defer unlock()

	// 加锁后重新读取，期间可能已被其他请求推送
	link, err := s.uow.Links.FindByLocal(ctx, kind, localID)
	if err != nil {
		return err
	}
	if link == nil || link.SyncState != model.SyncStateError {
		return errRetrySkipped
	}
	painting, err := s.uow.Paintings.GetByID(ctx, localID)
	if err != nil {
		return err
	}
	if painting == nil {
		return errRetrySkipped
	}

	if err := s.uow.Links.RequestRetry(ctx, link); err != nil {
		return err
	}
	_, err = s.pushPainting(ctx, painting, link)
	return err
}

// ==================== 入站 webhook ====================

// ApplyProductWebhook 校验签名后按远端 ID 写入镜像字段
// 签名或载荷不合法时不做任何写入
func (s *CommerceSyncService) ApplyProductWebhook(ctx context.Context, raw []byte, signature string) (*model.ProductLink, error) {
	if !s.verifier.Verify(raw, signature) {
		return nil, woocommerce.ErrInvalidSignature
	}
	ev, err := woocommerce.ParseProductEvent(raw)
	if err != nil {
		return nil, err
	}

	var link *model.ProductLink
	err = s.uow.Transaction(ctx, func(tx *repository.CommerceUnitOfWork) error {
		var err error
		link, err = tx.Links.RecordWebhookUpdate(ctx, ev.ID, repository.WebhookFields{
			Price:         ev.Price,
			StockStatus:   ev.StockStatus,
			StockQuantity: ev.StockQuantity,
		})
		if err != nil {
			return err
		}

		// 远端先建、本地后关联的商品：回填画作缓存 ID
		if link.LocalID != nil && link.Kind == model.ProductKindPainting {
			filled, err := tx.Paintings.BackfillRemoteProductID(ctx, *link.LocalID, ev.ID)
			if err != nil {
				return err
			}
			if filled {
				s.logger.Info("回填画作远端 ID", zap.Int64("painting_id", *link.LocalID), zap.Int64("remote_id", ev.ID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// ApplyOrderWebhook 为订单中已知的商品链接打标记，返回命中数
// 未知商品直接跳过，不创建链接
func (s *CommerceSyncService) ApplyOrderWebhook(ctx context.Context, raw []byte, signature string) (int, error) {
	if !s.verifier.Verify(raw, signature) {
		return 0, woocommerce.ErrInvalidSignature
	}
	ev, err := woocommerce.ParseOrderEvent(raw)
	if err != nil {
		return 0, err
	}

	annotated := 0
	err = s.uow.Transaction(ctx, func(tx *repository.CommerceUnitOfWork) error {
		for _, pid := range ev.ProductIDs {
			ok, err := tx.Links.AnnotateOrder(ctx, pid, ev.ID)
			if err != nil {
				return err
			}
			if ok {
				annotated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return annotated, nil
}

// WebhookConfigured 是否配置了 webhook 密钥
func (s *CommerceSyncService) WebhookConfigured() bool {
	return s.verifier.Configured()
}

// ==================== 查询 ====================

// ListProducts 商品链接列表
func (s *CommerceSyncService) ListProducts(ctx context.Context, filter repository.LinkFilter) ([]repository.LinkListItem, error) {
	return s.uow.Links.List(ctx, filter)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
