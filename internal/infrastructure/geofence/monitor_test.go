package geofence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

var monitorTestTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func testRegion(id string, center model.Location) model.GeofenceRegion {
	return model.GeofenceRegion{
		POIID:  id,
		Name:   id,
		Center: center,
		Radius: 50.0,
	}
}

func TestInMemoryRegionMonitor_Register(t *testing.T) {
	center := model.Location{Latitude: 35.0, Longitude: 135.0}

	t.Run("上限以内なら登録できる", func(t *testing.T) {
		monitor := NewInMemoryRegionMonitor(2)
		err := monitor.Register([]model.GeofenceRegion{
			testRegion("a", center),
			testRegion("b", center),
		})
		assert.NoError(t, err)
	})

	t.Run("上限を超える登録はエラー", func(t *testing.T) {
		monitor := NewInMemoryRegionMonitor(1)
		err := monitor.Register([]model.GeofenceRegion{
			testRegion("a", center),
			testRegion("b", center),
		})
		assert.Error(t, err)
	})
}

func TestInMemoryRegionMonitor_Observe(t *testing.T) {
	center := model.Location{Latitude: 35.0, Longitude: 135.0}
	outside := model.Location{Latitude: 35.01, Longitude: 135.0} // 約1.1km北

	monitor := NewInMemoryRegionMonitor(10)
	assert.NoError(t, monitor.Register([]model.GeofenceRegion{testRegion("a", center)}))

	t.Run("領域外では発火しない", func(t *testing.T) {
		assert.Empty(t, monitor.Observe(outside, monitorTestTime))
	})

	t.Run("初回侵入で発火し距離と時刻が入る", func(t *testing.T) {
		entered := monitor.Observe(center, monitorTestTime.Add(time.Minute))
		assert.Len(t, entered, 1)
		assert.Equal(t, "a", entered[0].POIID)
		assert.Equal(t, monitorTestTime.Add(time.Minute), entered[0].DiscoveredAt)
		assert.LessOrEqual(t, entered[0].Distance, 50.0)
	})

	t.Run("滞在中は再発火しない", func(t *testing.T) {
		assert.Empty(t, monitor.Observe(center, monitorTestTime.Add(2*time.Minute)))
	})

	t.Run("一度出て戻っても再発火しない", func(t *testing.T) {
		assert.Empty(t, monitor.Observe(outside, monitorTestTime.Add(3*time.Minute)))
		assert.Empty(t, monitor.Observe(center, monitorTestTime.Add(4*time.Minute)))
	})
}

func TestInMemoryRegionMonitor_Reset(t *testing.T) {
	center := model.Location{Latitude: 35.0, Longitude: 135.0}
	monitor := NewInMemoryRegionMonitor(10)

	assert.NoError(t, monitor.Register([]model.GeofenceRegion{testRegion("a", center)}))
	assert.Len(t, monitor.Observe(center, monitorTestTime), 1)

	monitor.Reset()

	// リセット後は領域も発火履歴も消える
	assert.Empty(t, monitor.Observe(center, monitorTestTime.Add(time.Minute)))

	assert.NoError(t, monitor.Register([]model.GeofenceRegion{testRegion("a", center)}))
	assert.Len(t, monitor.Observe(center, monitorTestTime.Add(2*time.Minute)), 1)
}
