package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// moveEast は基準地点から東へ指定メートル移動した座標を返す
func moveEast(origin model.Location, meters float64) model.Location {
	mPerDegLng := 6371000.0 * math.Pi / 180.0 * math.Cos(origin.Latitude*math.Pi/180.0)
	return model.Location{
		Latitude:  origin.Latitude,
		Longitude: origin.Longitude + meters/mPerDegLng,
	}
}

// walkSquare は1辺sideメートルの正方形ループの頂点列を返す（始点に戻る）
func walkSquare(origin model.Location, side float64) []model.Location {
	p1 := moveNorth(origin, side)
	p2 := moveEast(p1, side)
	p3 := moveEast(origin, side)
	return []model.Location{origin, p1, p2, p3, origin}
}

func feedWalk(t *testing.T, tracker *PathTracker, points []model.Location) *TrackUpdate {
	t.Helper()
	var last *TrackUpdate
	for i, p := range points {
		// 1分間隔 → どの辺も徒歩速度相当になる
		last = tracker.OnLocationUpdate(sampleAt(p, testBase.Add(time.Duration(i)*time.Minute)))
	}
	return last
}

func TestPathTracker_Startの二重呼び出しはエラー(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)

	assert.NoError(t, tracker.Start())
	assert.Error(t, tracker.Start())
	assert.Equal(t, model.TrackingStateTracking, tracker.State())
}

func TestPathTracker_開始前のサンプルは無視(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)

	update := tracker.OnLocationUpdate(sampleAt(model.Location{Latitude: 35.0, Longitude: 135.0}, testBase))

	assert.Equal(t, SpeedDecisionRejectSample, update.Decision)
	assert.False(t, update.Appended)
	assert.Equal(t, model.TrackingStateIdle, tracker.State())
}

func TestPathTracker_最小サンプリング距離未満は記録しない(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	update := tracker.OnLocationUpdate(sampleAt(origin, testBase))
	assert.True(t, update.Appended)
	assert.Equal(t, 1, update.PathLength)

	// 5m先（最小10m未満）→ 受理はされるが記録されない
	update = tracker.OnLocationUpdate(sampleAt(moveNorth(origin, 5), testBase.Add(10*time.Second)))
	assert.Equal(t, SpeedDecisionAccept, update.Decision)
	assert.False(t, update.Appended)
	assert.Equal(t, 1, update.PathLength)

	// 15m先 → 記録される
	update = tracker.OnLocationUpdate(sampleAt(moveNorth(origin, 15), testBase.Add(20*time.Second)))
	assert.True(t, update.Appended)
	assert.Equal(t, 2, update.PathLength)
}

func TestPathTracker_正方形ループで閉合し面積が出る(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	side := 50.0
	last := feedWalk(t, tracker, walkSquare(origin, side))

	assert.True(t, last.Closed)
	assert.True(t, tracker.IsClosed())
	assert.NotNil(t, last.Outcome)
	assert.Equal(t, model.ReasonKindClosed, last.Outcome.Kind)

	// 50m四方 → 約2500㎡
	assert.InEpsilon(t, side*side, tracker.Area(), 0.05)
}

func TestPathTracker_最小点数未満では始点に戻っても閉合しない(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	// 往復だけ（3点）では閉合判定は始まらない
	last := feedWalk(t, tracker, []model.Location{origin, moveNorth(origin, 50), origin})

	assert.False(t, last.Closed)
	assert.Equal(t, model.TrackingStateTracking, tracker.State())

	outcome := tracker.Stop()
	assert.Equal(t, model.ReasonKindStopped, outcome.Kind)
	assert.Equal(t, model.TrackingStateIdle, tracker.State())
	assert.Zero(t, tracker.Area())
}

func TestPathTracker_閉合後のサンプルは凍結される(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	last := feedWalk(t, tracker, walkSquare(origin, 50))
	assert.True(t, last.Closed)

	lengthAtClosure := len(tracker.Path())
	update := tracker.OnLocationUpdate(sampleAt(moveNorth(origin, 100), testBase.Add(time.Hour)))

	assert.Equal(t, SpeedDecisionRejectSample, update.Decision)
	assert.False(t, update.Closed, "閉合イベントは一度だけ")
	assert.Equal(t, lengthAtClosure, len(tracker.Path()))
	assert.Equal(t, model.TrackingStateClosed, tracker.State())
}

func TestPathTracker_閉合済みの状態でStopしても結果は閉合(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	feedWalk(t, tracker, walkSquare(model.Location{Latitude: 35.0, Longitude: 135.0}, 50))

	outcome := tracker.Stop()
	assert.Equal(t, model.ReasonKindClosed, outcome.Kind)
	assert.True(t, tracker.IsClosed())
	assert.Greater(t, tracker.Area(), 0.0)
}

func TestPathTracker_速度違反で強制終了は一度だけ(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	tracker.OnLocationUpdate(sampleAt(origin, testBase))

	// 1秒ごとに100m → 超過許容時間経過で終了する
	pos := origin
	var terminatedCount int
	var terminatedUpdate *TrackUpdate
	for i := 1; i <= 15; i++ {
		pos = moveNorth(pos, 100)
		update := tracker.OnLocationUpdate(sampleAt(pos, testBase.Add(time.Duration(i)*time.Second)))
		if update.Terminated {
			terminatedCount++
			terminatedUpdate = update
		}
	}

	assert.Equal(t, 1, terminatedCount, "強制終了イベントは一度だけ発生する")
	assert.NotNil(t, terminatedUpdate.Outcome)
	assert.Equal(t, model.ReasonKindOverSpeed, terminatedUpdate.Outcome.Kind)
	assert.Equal(t, model.TrackingStateIdle, tracker.State())
	assert.Equal(t, model.ReasonKindOverSpeed, tracker.Failure().Kind)
	assert.Zero(t, tracker.Area())
}

func TestPathTracker_外部要因によるTerminate(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	outcome := &model.SessionOutcome{Kind: model.ReasonKindCollision, Message: "他の領土と交差"}
	tracker.Terminate(outcome)

	assert.Equal(t, model.TrackingStateIdle, tracker.State())
	assert.Equal(t, model.ReasonKindCollision, tracker.Failure().Kind)
}

func TestPathTracker_Pathはコピーを返す(t *testing.T) {
	tracker := NewPathTracker(model.SimplifiedTrackerConfig(), nil)
	assert.NoError(t, tracker.Start())

	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	tracker.OnLocationUpdate(sampleAt(origin, testBase))

	path := tracker.Path()
	path[0] = model.Location{Latitude: 0, Longitude: 0}

	assert.Equal(t, origin, tracker.Path()[0])
}
