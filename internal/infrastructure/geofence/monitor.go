package geofence

import (
	"fmt"
	"sync"
	"time"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/helper"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
)

// InMemoryRegionMonitor プロセス内で完結するジオフェンス監視の実装
// プラットフォームの領域監視に相当する役割をサンプル駆動で担う
// 一度発火した領域はReset（セッション再開）まで再発火しない
type InMemoryRegionMonitor struct {
	mu         sync.Mutex
	maxRegions int
	regions    []model.GeofenceRegion
	fired      map[string]bool
}

// NewInMemoryRegionMonitor 新しいInMemoryRegionMonitorを作成する
// maxRegionsが0以下の場合はデフォルトの上限を使う
func NewInMemoryRegionMonitor(maxRegions int) repository.RegionMonitor {
	if maxRegions <= 0 {
		maxRegions = model.DefaultExplorationConfig().MaxMonitoredPOIs
	}
	return &InMemoryRegionMonitor{
		maxRegions: maxRegions,
		fired:      make(map[string]bool),
	}
}

// Register 監視領域を登録する。上限を超える場合はエラー
func (m *InMemoryRegionMonitor) Register(regions []model.GeofenceRegion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(regions) > m.maxRegions {
		return fmt.Errorf("監視領域の上限（%d件）を超えています: %d件", m.maxRegions, len(regions))
	}
	m.regions = make([]model.GeofenceRegion, len(regions))
	copy(m.regions, regions)
	return nil
}

// Observe 現在位置を与え、新たに侵入した領域のイベントを返す
// 発火済み領域に留まっている間の重複イベントは発生しない
func (m *InMemoryRegionMonitor) Observe(location model.Location, at time.Time) []model.POIDiscovery {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entered []model.POIDiscovery
	for _, region := range m.regions {
		if m.fired[region.POIID] {
			continue
		}
		dist := helper.HaversineDistance(location, region.Center)
		if dist <= region.Radius {
			m.fired[region.POIID] = true
			entered = append(entered, model.POIDiscovery{
				POIID:        region.POIID,
				Name:         region.Name,
				DiscoveredAt: at,
				Distance:     dist,
			})
		}
	}
	return entered
}

// Reset 登録領域と発火履歴をすべて破棄する
func (m *InMemoryRegionMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = nil
	m.fired = make(map[string]bool)
}
