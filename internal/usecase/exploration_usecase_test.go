package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// fakePOIsRepo 固定のPOI一覧を返すストア
type fakePOIsRepo struct {
	pois []*model.POI
	err  error
}

func (r *fakePOIsRepo) FindNearby(ctx context.Context, center model.Location, radiusMeters float64, limit int) ([]*model.POI, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.pois, nil
}

// fakeRewardsRepo 保存された結果を記録するストア
type fakeRewardsRepo struct {
	mu       sync.Mutex
	saved    []*model.ExplorationResult
	failSave bool
}

func (r *fakeRewardsRepo) SaveExplorationResult(ctx context.Context, result *model.ExplorationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return fmt.Errorf("ストアに接続できません")
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeRewardsRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *fakeRewardsRepo) setFailSave(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave = fail
}

// slowPOIsRepo FindNearbyが解放されるまでブロックするストア
// 開始処理の途中に別の開始が割り込めないことの検証に使う
type slowPOIsRepo struct {
	fakePOIsRepo
	entered chan struct{}
	release chan struct{}
}

func (r *slowPOIsRepo) FindNearby(ctx context.Context, center model.Location, radiusMeters float64, limit int) ([]*model.POI, error) {
	r.entered <- struct{}{}
	<-r.release
	return r.fakePOIsRepo.FindNearby(ctx, center, radiusMeters, limit)
}

func explorationPOIAt(id, name string, loc model.Location) *model.POI {
	return &model.POI{
		ID:   id,
		Name: name,
		Location: &model.Geometry{
			Type:        "Point",
			Coordinates: []float64{loc.Longitude, loc.Latitude},
		},
		Category: "ランドマーク",
	}
}

func TestExplorationUseCase_探索の開始から終了まで(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	poisRepo := &fakePOIsRepo{pois: []*model.POI{
		explorationPOIAt("poi-shrine", "神社", moveNorth(origin, 300)),
	}}
	rewardsRepo := &fakeRewardsRepo{}
	uc := NewExplorationUseCase(poisRepo, rewardsRepo, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))

	// 300m北のPOIまで歩く → 発見イベント
	update, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(moveNorth(origin, 300), claimTestBase.Add(5*time.Minute)))
	assert.NoError(t, err)
	assert.InDelta(t, 300.0, update.TotalDistance, 1.0)
	assert.Len(t, update.Discoveries, 1)
	assert.Equal(t, "poi-shrine", update.Discoveries[0].POIID)

	// さらに300m → 合計600mでティア1
	update, err = uc.OnLocationUpdate(ctx, "player-1", sampleAt(moveNorth(origin, 600), claimTestBase.Add(10*time.Minute)))
	assert.NoError(t, err)
	assert.Equal(t, 1, update.RewardTier)

	result, err := uc.StopExploration(ctx, "player-1")
	assert.NoError(t, err)
	assert.Equal(t, model.ReasonKindStopped, result.Outcome.Kind)
	assert.InDelta(t, 600.0, result.TotalDistance, 1.0)
	assert.Len(t, result.DiscoveredPOIs, 1)
	assert.Equal(t, 1, rewardsRepo.count(), "終了時に結果が保存される")

	// セッションは終了済み
	_, err = uc.OnLocationUpdate(ctx, "player-1", sampleAt(origin, claimTestBase.Add(time.Hour)))
	assert.Error(t, err)
}

func TestExplorationUseCase_二重開始は拒否(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	uc := NewExplorationUseCase(&fakePOIsRepo{}, &fakeRewardsRepo{}, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))
	assert.Error(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase.Add(time.Second))))
}

func TestExplorationUseCase_同時開始は片方だけ成功する(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	poisRepo := &slowPOIsRepo{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	uc := NewExplorationUseCase(poisRepo, &fakeRewardsRepo{}, nil, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		first <- uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase))
	}()

	// 1件目がPOI取得中（予約保持中）の間に同じプレイヤーで開始を試みる
	<-poisRepo.entered
	err := uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase.Add(time.Second)))
	assert.Error(t, err, "進行中の開始処理がある間は2件目を受け付けない")

	close(poisRepo.release)
	assert.NoError(t, <-first)

	// 確定したセッションは通常どおり使える
	_, err = uc.OnLocationUpdate(ctx, "player-1", sampleAt(moveNorth(origin, 100), claimTestBase.Add(time.Minute)))
	assert.NoError(t, err)
}

func TestExplorationUseCase_POI取得に失敗したら開始しない(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	poisRepo := &fakePOIsRepo{err: fmt.Errorf("接続エラー")}
	uc := NewExplorationUseCase(poisRepo, &fakeRewardsRepo{}, nil, nil)
	ctx := context.Background()

	assert.Error(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))

	// 失敗後は再度開始できる
	poisRepo.err = nil
	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))
}

func TestExplorationUseCase_セッションなしの操作はエラー(t *testing.T) {
	uc := NewExplorationUseCase(&fakePOIsRepo{}, &fakeRewardsRepo{}, nil, nil)
	ctx := context.Background()
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}

	_, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(origin, claimTestBase))
	assert.Error(t, err)

	_, err = uc.StopExploration(ctx, "player-1")
	assert.Error(t, err)

	_, err = uc.CancelExploration(ctx, "player-1")
	assert.Error(t, err)
}

func TestExplorationUseCase_保存失敗でも結果は返る(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	rewardsRepo := &fakeRewardsRepo{failSave: true}
	uc := NewExplorationUseCase(&fakePOIsRepo{}, rewardsRepo, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))
	_, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(moveNorth(origin, 700), claimTestBase.Add(10*time.Minute)))
	assert.NoError(t, err)

	result, err := uc.StopExploration(ctx, "player-1")
	assert.Error(t, err)
	assert.NotNil(t, result, "保存に失敗しても計算済みの結果は返す")
	assert.InDelta(t, 700.0, result.TotalDistance, 1.0)
}

func TestExplorationUseCase_保存失敗と再送(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	rewardsRepo := &fakeRewardsRepo{failSave: true}
	uc := NewExplorationUseCase(&fakePOIsRepo{}, rewardsRepo, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))
	_, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(moveNorth(origin, 500), claimTestBase.Add(8*time.Minute)))
	assert.NoError(t, err)

	result, err := uc.StopExploration(ctx, "player-1")
	assert.Error(t, err)
	assert.NotNil(t, result, "保存に失敗しても探索結果は失われない")
	assert.Zero(t, rewardsRepo.count())

	// ストア復旧後の再送
	rewardsRepo.setFailSave(false)
	retried, err := uc.RetryUpload(ctx, "player-1")
	assert.NoError(t, err)
	assert.InDelta(t, 500.0, retried.TotalDistance, 1.0)
	assert.Equal(t, 1, rewardsRepo.count())

	// 再送済みの結果は残らない
	_, err = uc.RetryUpload(ctx, "player-1")
	assert.Error(t, err)
	assert.Equal(t, 1, rewardsRepo.count(), "二重保存はしない")
}

func TestExplorationUseCase_再送できる結果がない場合はエラー(t *testing.T) {
	uc := NewExplorationUseCase(&fakePOIsRepo{}, &fakeRewardsRepo{}, nil, nil)

	_, err := uc.RetryUpload(context.Background(), "player-1")
	assert.Error(t, err)
}

func TestExplorationUseCase_キャンセルは保存しない(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	rewardsRepo := &fakeRewardsRepo{}
	uc := NewExplorationUseCase(&fakePOIsRepo{}, rewardsRepo, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))

	result, err := uc.CancelExploration(ctx, "player-1")
	assert.NoError(t, err)
	assert.Equal(t, model.ReasonKindCancelled, result.Outcome.Kind)
	assert.Zero(t, rewardsRepo.count())

	// キャンセル後は新しいセッションを開始できる
	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase.Add(time.Minute))))
}

func TestExplorationUseCase_速度違反で強制終了(t *testing.T) {
	origin := model.Location{Latitude: 35.0, Longitude: 135.0}
	rewardsRepo := &fakeRewardsRepo{}
	uc := NewExplorationUseCase(&fakePOIsRepo{}, rewardsRepo, nil, nil)
	ctx := context.Background()

	assert.NoError(t, uc.StartExploration(ctx, "player-1", sampleAt(origin, claimTestBase)))

	pos := origin
	terminated := false
	for i := 1; i <= 15; i++ {
		pos = moveNorth(pos, 200)
		update, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(pos, claimTestBase.Add(time.Duration(i)*time.Second)))
		assert.NoError(t, err)
		if update.Terminated {
			terminated = true
			break
		}
	}

	assert.True(t, terminated)
	assert.Zero(t, rewardsRepo.count(), "強制終了の結果は保存されない")

	_, err := uc.OnLocationUpdate(ctx, "player-1", sampleAt(pos, claimTestBase.Add(time.Hour)))
	assert.Error(t, err)
}
