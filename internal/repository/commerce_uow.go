package repository

import (
	"context"

	"gorm.io/gorm"
)

// CommerceUnitOfWork 链接 + 画作的工作单元（事务）
// 推送成功时链接与画作缓存 ID 需在同一事务内写入
type CommerceUnitOfWork struct {
	db        *gorm.DB
	Links     LinkRepository
	Paintings PaintingRepository
	Artifacts MuseumRepository // 画作删除时清理展品
}

// NewCommerceUnitOfWork 创建工作单元
func NewCommerceUnitOfWork(db *gorm.DB) *CommerceUnitOfWork {
	return &CommerceUnitOfWork{
		db:        db,
		Links:     NewLinkRepository(db),
		Paintings: NewPaintingRepository(db),
		Artifacts: NewMuseumRepository(db),
	}
}

// Transaction 执行事务
func (u *CommerceUnitOfWork) Transaction(ctx context.Context, fn func(uow *CommerceUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUow := &CommerceUnitOfWork{
			db:        tx,
			Links:     NewLinkRepository(tx),
			Paintings: NewPaintingRepository(tx),
			Artifacts: NewMuseumRepository(tx),
		}
		return fn(txUow)
	})
}
