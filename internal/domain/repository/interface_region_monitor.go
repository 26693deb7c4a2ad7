package repository

import (
	"time"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// RegionMonitor ジオフェンス領域監視の境界インターフェース
// POI IDをキーに上限付きで円形領域を登録し、侵入イベントを受け取る
// 同じ領域への再侵入はリセットされるまで再発火しない
type RegionMonitor interface {
	// Register 監視領域を登録する。上限を超える場合はエラー
	Register(regions []model.GeofenceRegion) error

	// Observe 現在位置を与え、新たに侵入した領域のイベントを返す
	Observe(location model.Location, at time.Time) []model.POIDiscovery

	// Reset 登録領域と発火履歴をすべて破棄する
	Reset()
}
