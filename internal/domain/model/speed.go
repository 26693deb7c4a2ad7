package model

import "time"

// SpeedClassification 速度判定の分類
type SpeedClassification string

const (
	SpeedNormal  SpeedClassification = "normal"
	SpeedWarning SpeedClassification = "warning"
	SpeedStopped SpeedClassification = "stopped"
)

// SpeedState セッションごとの速度判定ローリング状態
// SpeedGuard のみが更新し、セッションリセット時にまとめて破棄される
type SpeedState struct {
	LastSample         *LocationSample
	Classification     SpeedClassification
	ViolationStartTime time.Time // 停止閾値を超え続けている区間の開始時刻
}

// NewSpeedState 初期状態のSpeedStateを作成
func NewSpeedState() *SpeedState {
	return &SpeedState{
		Classification: SpeedNormal,
	}
}

// Reset 状態を初期化する
func (s *SpeedState) Reset() {
	s.LastSample = nil
	s.Classification = SpeedNormal
	s.ViolationStartTime = time.Time{}
}

// SpeedGuardConfig 速度アンチチートの設定
type SpeedGuardConfig struct {
	// WarningSpeed 警告を出す速度（m/s）。超えても記録は継続する
	WarningSpeed float64
	// StopSpeed 停止判定の速度（m/s）。Tolerance の間超え続けると強制終了
	StopSpeed float64
	// Tolerance 停止閾値超過を許容する時間
	Tolerance time.Duration
	// MaxAccuracy 許容する水平精度（メートル）。これより悪い精度のサンプルは破棄
	MaxAccuracy float64
}

// DefaultSpeedGuardConfig デフォルト設定を返す
// 警告 15km/h（早歩き〜ランニング超）、停止 30km/h（乗り物相当）
func DefaultSpeedGuardConfig() *SpeedGuardConfig {
	return &SpeedGuardConfig{
		WarningSpeed: 15.0 / 3.6,
		StopSpeed:    30.0 / 3.6,
		Tolerance:    10 * time.Second,
		MaxAccuracy:  50.0,
	}
}
