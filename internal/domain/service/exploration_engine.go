package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/helper"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
)

// ExplorationUpdate 探索セッションで1サンプル処理した結果
type ExplorationUpdate struct {
	Decision      SpeedDecision
	Warning       string
	TotalDistance float64
	RewardTier    int
	// Discoveries このサンプルで新たに発見されたPOI（領域初回侵入のみ）
	Discoveries []model.POIDiscovery
	Terminated  bool
	Outcome     *model.SessionOutcome
}

// ExplorationEngine 歩行距離を報酬に変換する探索セッション制御
// PathTrackerとは独立した兄弟コンシューマで、経路は保持せず累積距離のみ追跡する
// ジオフェンス判定は注入されたRegionMonitorに委譲する
type ExplorationEngine struct {
	config     *model.ExplorationConfig
	guard      *SpeedGuard
	monitor    repository.RegionMonitor
	speedState *model.SpeedState

	sessionID string
	playerID  string
	active    bool
	startTime time.Time

	totalDistance float64
	candidates    []*model.POI
	monitored     []model.GeofenceRegion
	discoveries   []model.POIDiscovery
}

// NewExplorationEngine 新しいExplorationEngineを作成する
func NewExplorationEngine(config *model.ExplorationConfig, guard *SpeedGuard, monitor repository.RegionMonitor) *ExplorationEngine {
	if config == nil {
		config = model.DefaultExplorationConfig()
	}
	if guard == nil {
		guard = NewSpeedGuard(nil)
	}
	return &ExplorationEngine{
		config:  config,
		guard:   guard,
		monitor: monitor,
	}
}

// Start 探索セッションを開始する
// 監視対象POIは最初の受理サンプルの位置を基準に近い順で選び直す
func (e *ExplorationEngine) Start(playerID string, candidates []*model.POI, now time.Time) error {
	if e.active {
		return fmt.Errorf("探索セッションは既に開始されています")
	}
	e.sessionID = uuid.New().String()
	e.playerID = playerID
	e.active = true
	e.startTime = now
	e.totalDistance = 0
	e.candidates = candidates
	e.monitored = nil
	e.discoveries = nil
	e.speedState = model.NewSpeedState()
	e.monitor.Reset()
	return nil
}

// OnLocationUpdate サンプルを1件処理する
// SpeedGuardの判定ルールはPathTrackerと同一。受理されたサンプル間の距離を累積する
func (e *ExplorationEngine) OnLocationUpdate(sample *model.LocationSample) *ExplorationUpdate {
	update := &ExplorationUpdate{
		TotalDistance: e.totalDistance,
		RewardTier:    RewardTierForDistance(e.config.RewardTierThresholds, e.totalDistance),
	}

	if !e.active {
		update.Decision = SpeedDecisionRejectSample
		return update
	}

	prev := e.speedState.LastSample
	check := e.guard.Evaluate(e.speedState, sample)
	update.Decision = check.Decision
	update.Warning = check.Message

	switch check.Decision {
	case SpeedDecisionRejectSample:
		return update

	case SpeedDecisionTerminateSession:
		e.active = false
		update.Terminated = true
		update.Outcome = &model.SessionOutcome{Kind: check.Reason, Message: check.Message}
		return update
	}

	// 基準点が進んだ受理サンプルのみ距離を加算する
	if prev != nil && sample.Timestamp.After(prev.Timestamp) {
		e.totalDistance += helper.HaversineDistance(prev.Location, sample.Location)
	}

	// 監視対象の決定は最初の受理サンプルを待つ
	if e.monitored == nil {
		e.monitored = e.selectMonitoredRegions(sample.Location)
		if err := e.monitor.Register(e.monitored); err != nil {
			// 上限はselectMonitoredRegionsで守られているため通常到達しない
			e.monitored = nil
		}
	}

	entered := e.monitor.Observe(sample.Location, sample.Timestamp)
	e.discoveries = append(e.discoveries, entered...)
	update.Discoveries = entered
	update.TotalDistance = e.totalDistance
	update.RewardTier = RewardTierForDistance(e.config.RewardTierThresholds, e.totalDistance)
	return update
}

// selectMonitoredRegions 候補POIから近い順に上限数まで監視領域を作る
func (e *ExplorationEngine) selectMonitoredRegions(origin model.Location) []model.GeofenceRegion {
	candidates := make([]*model.POI, len(e.candidates))
	copy(candidates, e.candidates)
	helper.SortPOIsByDistance(origin, candidates)

	limit := e.config.MaxMonitoredPOIs
	if len(candidates) < limit {
		limit = len(candidates)
	}

	regions := make([]model.GeofenceRegion, 0, limit)
	for _, poi := range candidates[:limit] {
		regions = append(regions, model.GeofenceRegion{
			POIID:  poi.ID,
			Name:   poi.Name,
			Center: poi.ToLocation(),
			Radius: e.config.GeofenceRadius,
		})
	}
	return regions
}

// Stop セッションを終了し、最終結果を計算する
func (e *ExplorationEngine) Stop(now time.Time) *model.ExplorationResult {
	e.active = false
	return e.buildResult(now, model.SessionOutcome{
		Kind:    model.ReasonKindStopped,
		Message: "探索を終了しました",
	})
}

// Cancel セッションを破棄する。報酬は付与されない
func (e *ExplorationEngine) Cancel(now time.Time) *model.ExplorationResult {
	e.active = false
	return e.buildResult(now, model.SessionOutcome{
		Kind:    model.ReasonKindCancelled,
		Message: "探索をキャンセルしました",
	})
}

func (e *ExplorationEngine) buildResult(now time.Time, outcome model.SessionOutcome) *model.ExplorationResult {
	discoveries := make([]model.POIDiscovery, len(e.discoveries))
	copy(discoveries, e.discoveries)
	return &model.ExplorationResult{
		SessionID:      e.sessionID,
		PlayerID:       e.playerID,
		TotalDistance:  e.totalDistance,
		Duration:       now.Sub(e.startTime),
		RewardTier:     RewardTierForDistance(e.config.RewardTierThresholds, e.totalDistance),
		DiscoveredPOIs: discoveries,
		Outcome:        outcome,
		StartedAt:      e.startTime,
		CompletedAt:    now,
	}
}

// TotalDistance 現在までの累積距離（メートル）
func (e *ExplorationEngine) TotalDistance() float64 {
	return e.totalDistance
}

// IsActive セッションが進行中かどうか
func (e *ExplorationEngine) IsActive() bool {
	return e.active
}

// MonitoredRegions 現在監視中の領域を返す
func (e *ExplorationEngine) MonitoredRegions() []model.GeofenceRegion {
	out := make([]model.GeofenceRegion, len(e.monitored))
	copy(out, e.monitored)
	return out
}

// RewardTierForDistance 累積距離から報酬ティアを決める純粋関数
// 閾値は昇順。1つも超えていなければティア0
func RewardTierForDistance(thresholds []float64, distance float64) int {
	tier := 0
	for _, threshold := range thresholds {
		if distance >= threshold {
			tier++
		}
	}
	return tier
}
