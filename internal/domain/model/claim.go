package model

// ClaimStartResponse 領土獲得セッション開始時のレスポンス
type ClaimStartResponse struct {
	Started   bool             `json:"started"`
	Message   string           `json:"message"`
	Collision *CollisionResult `json:"collision,omitempty"`
}

// ClaimUpdate 1サンプル処理後のセッション状態（UI通知用）
type ClaimUpdate struct {
	Decision   string           `json:"decision"`
	Warning    string           `json:"warning,omitempty"`
	PathLength int              `json:"path_length"`
	Closed     bool             `json:"closed"`
	Terminated bool             `json:"terminated"`
	Outcome    *SessionOutcome  `json:"outcome,omitempty"`
	Collision  *CollisionResult `json:"collision,omitempty"`
	AreaSqM    float64          `json:"area_sq_m,omitempty"`
}
