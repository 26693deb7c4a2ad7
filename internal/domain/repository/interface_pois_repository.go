package repository

import (
	"context"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// POIsRepository 探索用POIストアの境界インターフェース
type POIsRepository interface {
	// FindNearby 中心座標から半径内のPOIを近い順に最大limit件取得する
	FindNearby(ctx context.Context, center model.Location, radiusMeters float64, limit int) ([]*model.POI, error)
}
