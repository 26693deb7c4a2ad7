package model

import "time"

// TrackerConfig 経路トラッキングの設定
type TrackerConfig struct {
	// MinSamplingDistance 直前の記録点からこの距離（メートル）以上離れた時だけ追加する
	MinSamplingDistance float64
	// MinClosurePoints ループ閉合を判定し始める最小の点数
	MinClosurePoints int
	// ClosureDistance 始点と最新点の距離がこの値（メートル）未満なら閉合
	ClosureDistance float64
	// CollisionCheckInterval 経路と既存領土の交差スキャンを行う間隔
	CollisionCheckInterval time.Duration
}

// DefaultTrackerConfig デフォルト設定を返す
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MinSamplingDistance:    10.0,
		MinClosurePoints:       10,
		ClosureDistance:        30.0,
		CollisionCheckInterval: 10 * time.Second,
	}
}

// SimplifiedTrackerConfig 簡易モード（最小4点で閉合判定）の設定を返す
func SimplifiedTrackerConfig() *TrackerConfig {
	cfg := DefaultTrackerConfig()
	cfg.MinClosurePoints = 4
	return cfg
}
