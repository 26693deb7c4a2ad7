package repository

import (
	"context"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// RewardsRepository 探索結果・報酬ストアの境界インターフェース
type RewardsRepository interface {
	// SaveExplorationResult 探索セッションの最終結果を永続化する
	SaveExplorationResult(ctx context.Context, result *model.ExplorationResult) error
}
