package model

// WarningLevel 他領土への接近度合いの段階的な警告レベル
type WarningLevel string

const (
	WarningLevelSafe      WarningLevel = "safe"
	WarningLevelCaution   WarningLevel = "caution"
	WarningLevelWarning   WarningLevel = "warning"
	WarningLevelDanger    WarningLevel = "danger"
	WarningLevelViolation WarningLevel = "violation"
)

// CollisionResult 衝突判定の結果
// チェックのたびに再計算される一時的な値で、永続化しない
type CollisionResult struct {
	HasCollision    bool         `json:"has_collision"`
	WarningLevel    WarningLevel `json:"warning_level"`
	NearestDistance float64      `json:"nearest_distance"` // メートル
	Message         string       `json:"message"`
}

// CollisionConfig 衝突判定の距離閾値設定
type CollisionConfig struct {
	// SafeDistance これより遠ければ Safe（メートル）
	SafeDistance float64
	// CautionDistance これより遠ければ Caution（メートル）
	CautionDistance float64
	// WarningDistance これより遠ければ Warning、以下は Danger（メートル）
	WarningDistance float64
}

// DefaultCollisionConfig デフォルトの距離閾値を返す
func DefaultCollisionConfig() *CollisionConfig {
	return &CollisionConfig{
		SafeDistance:    100.0,
		CautionDistance: 50.0,
		WarningDistance: 25.0,
	}
}
