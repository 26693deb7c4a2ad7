package repository

import (
	"context"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// TerritoriesRepository 領土ストアの境界インターフェース
type TerritoriesRepository interface {
	// Create 検証済みの閉じたポリゴンを面積・点数・時刻とともに永続化する
	Create(ctx context.Context, territory *model.Territory) error

	// GetAllActive 衝突判定用に全アクティブ領土を取得する
	// セッション中は呼び出し側がスナップショットとして扱い、途中更新しない
	GetAllActive(ctx context.Context) ([]*model.Territory, error)

	// GetByBoundingBox 境界ボックス内の領土一覧を取得する（地図表示用）
	GetByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64) ([]model.TerritorySummary, error)
}
