package model

import "time"

// TrackingState 領土獲得トラッキングの状態
type TrackingState string

const (
	TrackingStateIdle     TrackingState = "idle"
	TrackingStateTracking TrackingState = "tracking"
	TrackingStateClosed   TrackingState = "closed"
)

// ReasonKind セッション終了理由の機械判定用コード
// UIとテストはこのコードで分岐し、メッセージ文字列をパースしない
type ReasonKind string

const (
	ReasonKindClosed           ReasonKind = "closed"
	ReasonKindStopped          ReasonKind = "stopped_without_closure"
	ReasonKindOverSpeed        ReasonKind = "over_speed"
	ReasonKindCollision        ReasonKind = "collision_violation"
	ReasonKindPermissionDenied ReasonKind = "permission_denied"
	ReasonKindCancelled        ReasonKind = "cancelled"
)

// SessionOutcome セッションの終端状態（理由コード + 人間向けメッセージ）
type SessionOutcome struct {
	Kind    ReasonKind `json:"kind"`
	Message string     `json:"message"`
}

// Territory 1人のプレイヤーが獲得した閉じたポリゴン
// 作成後は不変（削除・リネームは外部ストア側の責務）
type Territory struct {
	ID          string     `json:"id" db:"id"`
	OwnerID     string     `json:"owner_id" db:"owner_id"`
	Points      []Location `json:"points" db:"points"`
	AreaSqM     float64    `json:"area_sq_m" db:"area_sq_m"`
	PointCount  int        `json:"point_count" db:"point_count"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt time.Time  `json:"completed_at" db:"completed_at"`
}

// TerritorySummary 地図表示用の軽量ビュー
type TerritorySummary struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Points     []Location `json:"points"`
	AreaSqM    float64    `json:"area_sq_m"`
	PointCount int        `json:"point_count"`
}

// ClaimResult 領土獲得セッションの最終結果
// アップロード失敗時もメモリ上に保持され、再試行できる
type ClaimResult struct {
	Territory *Territory     `json:"territory,omitempty"`
	Outcome   SessionOutcome `json:"outcome"`
	Uploaded  bool           `json:"uploaded"`
}
