package model

import "time"

// POI Point of Interest（発見対象のスポット）を表すモデル
type POI struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Location *Geometry `json:"location" db:"location"` // 位置情報（PostGIS GEOMETRY型）
	Category string    `json:"category" db:"category"`
	Rate     float64   `json:"rate" db:"rate"`
}

// ToLocation POIの位置情報をLocation型に変換
func (p *POI) ToLocation() Location {
	if p.Location != nil && len(p.Location.Coordinates) >= 2 {
		return Location{
			Latitude:  p.Location.Coordinates[1],
			Longitude: p.Location.Coordinates[0],
		}
	}
	return Location{}
}

// GeofenceRegion POIを中心とした円形の監視領域
type GeofenceRegion struct {
	POIID  string   `json:"poi_id"`
	Name   string   `json:"name"`
	Center Location `json:"center"`
	Radius float64  `json:"radius"` // メートル
}

// POIDiscovery POI発見イベント（領域に初めて入った時に1度だけ発火）
type POIDiscovery struct {
	POIID        string    `json:"poi_id"`
	Name         string    `json:"name"`
	DiscoveredAt time.Time `json:"discovered_at"`
	Distance     float64   `json:"distance"` // 発火時点の中心までの距離（メートル）
}

// ExplorationResult 探索セッションの最終結果
type ExplorationResult struct {
	SessionID       string         `json:"session_id"`
	PlayerID        string         `json:"player_id"`
	TotalDistance   float64        `json:"total_distance"` // メートル
	Duration        time.Duration  `json:"duration"`
	RewardTier      int            `json:"reward_tier"`
	DiscoveredPOIs  []POIDiscovery `json:"discovered_pois"`
	Outcome         SessionOutcome `json:"outcome"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// FirestoreExplorationResult Firestore保存用の探索結果
type FirestoreExplorationResult struct {
	PlayerID        string         `firestore:"player_id"`
	TotalDistance   float64        `firestore:"total_distance_meters"`
	DurationSeconds int            `firestore:"duration_seconds"`
	RewardTier      int            `firestore:"reward_tier"`
	DiscoveredPOIs  []POIDiscovery `firestore:"discovered_pois"`
	OutcomeKind     string         `firestore:"outcome_kind"`
	StartedAt       time.Time      `firestore:"started_at"`
	CompletedAt     time.Time      `firestore:"completed_at"`
	ExpireAt        time.Time      `firestore:"expireAt"`
}

// ToFirestoreExplorationResult Firestore保存用の構造体に変換
func (r *ExplorationResult) ToFirestoreExplorationResult(ttlHours int) *FirestoreExplorationResult {
	return &FirestoreExplorationResult{
		PlayerID:        r.PlayerID,
		TotalDistance:   r.TotalDistance,
		DurationSeconds: int(r.Duration.Seconds()),
		RewardTier:      r.RewardTier,
		DiscoveredPOIs:  r.DiscoveredPOIs,
		OutcomeKind:     string(r.Outcome.Kind),
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		ExpireAt:        time.Now().Add(time.Duration(ttlHours) * time.Hour),
	}
}

// ExplorationConfig 探索セッションの設定
type ExplorationConfig struct {
	// RewardTierThresholds 報酬ティアの距離閾値（メートル、昇順）
	// index i を超えたらティア i+1
	RewardTierThresholds []float64
	// GeofenceRadius POI発見の半径（メートル）
	GeofenceRadius float64
	// MaxMonitoredPOIs 同時に監視するPOIの上限。超えた場合は近い順に選ぶ
	MaxMonitoredPOIs int
}

// DefaultExplorationConfig デフォルト設定を返す
func DefaultExplorationConfig() *ExplorationConfig {
	return &ExplorationConfig{
		RewardTierThresholds: []float64{500, 1500, 3000, 5000},
		GeofenceRadius:       50.0,
		MaxMonitoredPOIs:     20,
	}
}
