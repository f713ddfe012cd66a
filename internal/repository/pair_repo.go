package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visit-sync/backend/internal/model"
)

// PairRepository 课次数据访问接口
// 课次全局唯一（按 key_pair 去重），可被多个分组共享
type PairRepository interface {
	GetByKeyPair(ctx context.Context, keyPair int64) (*model.Pair, error)
	// GetOrCreate 按 key_pair 取课次，不存在则创建
	// 并发创建依赖唯一约束兜底：冲突时回读已有记录
	GetOrCreate(ctx context.Context, pair *model.Pair) (*model.Pair, error)
	// LinkGroup 建立分组与课次的关联（幂等）
	LinkGroup(ctx context.Context, groupID, pairID string) error
}

type pairRepo struct {
	db *gorm.DB
}

// NewPairRepo 创建 PairRepository 实例
func NewPairRepo(db *gorm.DB) PairRepository {
	return &pairRepo{db: db}
}

func (r *pairRepo) GetByKeyPair(ctx context.Context, keyPair int64) (*model.Pair, error) {
	var pair model.Pair
	err := r.db.WithContext(ctx).
		Where("key_pair = ?", keyPair).
		First(&pair).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *pairRepo) GetOrCreate(ctx context.Context, pair *model.Pair) (*model.Pair, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key_pair"}},
			DoNothing: true,
		}).
		Create(pair).Error
	if err != nil {
		return nil, err
	}
	// DoNothing 命中冲突时不回填主键，统一按 key_pair 回读
	return r.GetByKeyPair(ctx, pair.KeyPair)
}

func (r *pairRepo) LinkGroup(ctx context.Context, groupID, pairID string) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO group_pairs (group_id, pair_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			groupID, pairID).Error
}
