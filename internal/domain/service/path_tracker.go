package service

import (
	"fmt"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/helper"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// TrackUpdate 1サンプル処理後のトラッカーの状態変化
// 呼び出し側はこの値だけを見てUI通知やセッション終了を行う
type TrackUpdate struct {
	Decision SpeedDecision
	// Appended サンプルがPathに追加されたか（最小サンプリング距離未満なら false）
	Appended bool
	// Closed このサンプルでループが閉合したか
	Closed bool
	// Terminated SpeedGuardによる強制終了が発生したか
	Terminated bool
	Outcome    *model.SessionOutcome
	Warning    string
	PathLength int
}

// PathTracker 領土獲得の経路トラッキング状態機械
// Idle → (Start) → Tracking → (閉合 or Stop) → Closed/Idle
// 1プレイヤーにつき1セッション。呼び出し側が直列に呼ぶこと
type PathTracker struct {
	config     *model.TrackerConfig
	guard      *SpeedGuard
	state      model.TrackingState
	path       []model.Location
	speedState *model.SpeedState
	failure    *model.SessionOutcome
}

// NewPathTracker 新しいPathTrackerを作成する（configがnilならデフォルト設定）
func NewPathTracker(config *model.TrackerConfig, guard *SpeedGuard) *PathTracker {
	if config == nil {
		config = model.DefaultTrackerConfig()
	}
	if guard == nil {
		guard = NewSpeedGuard(nil)
	}
	return &PathTracker{
		config:     config,
		guard:      guard,
		state:      model.TrackingStateIdle,
		speedState: model.NewSpeedState(),
	}
}

// Start トラッキングを開始する。既にTracking中ならエラー
func (t *PathTracker) Start() error {
	if t.state == model.TrackingStateTracking {
		return fmt.Errorf("トラッキングは既に開始されています")
	}
	t.state = model.TrackingStateTracking
	t.path = nil
	t.failure = nil
	t.speedState.Reset()
	return nil
}

// OnLocationUpdate サンプルを1件処理する
// SpeedGuard → Path追加 → 閉合判定の順で適用する
func (t *PathTracker) OnLocationUpdate(sample *model.LocationSample) *TrackUpdate {
	update := &TrackUpdate{PathLength: len(t.path)}

	// 閉合後・停止後のサンプルは無視する（明示的な再開まで凍結）
	if t.state != model.TrackingStateTracking {
		update.Decision = SpeedDecisionRejectSample
		return update
	}

	check := t.guard.Evaluate(t.speedState, sample)
	update.Decision = check.Decision
	update.Warning = check.Message

	switch check.Decision {
	case SpeedDecisionRejectSample:
		return update

	case SpeedDecisionTerminateSession:
		t.state = model.TrackingStateIdle
		t.failure = &model.SessionOutcome{Kind: check.Reason, Message: check.Message}
		update.Terminated = true
		update.Outcome = t.failure
		return update
	}

	// 直前の記録点から最小サンプリング距離以上離れた時だけ追加する
	// ノイズ削減とPathサイズの抑制を兼ねる
	if len(t.path) == 0 ||
		helper.HaversineDistance(t.path[len(t.path)-1], sample.Location) >= t.config.MinSamplingDistance {
		t.path = append(t.path, sample.Location)
		update.Appended = true
	}
	update.PathLength = len(t.path)

	if t.checkClosure() {
		t.state = model.TrackingStateClosed
		update.Closed = true
		update.Outcome = &model.SessionOutcome{
			Kind:    model.ReasonKindClosed,
			Message: "ループが閉合しました。領土を獲得できます",
		}
	}
	return update
}

// checkClosure 始点と最新点の距離による閉合判定
// 最小点数に達するまでは、始点と一致していても閉合しない
func (t *PathTracker) checkClosure() bool {
	if len(t.path) < t.config.MinClosurePoints {
		return false
	}
	dist := helper.HaversineDistance(t.path[0], t.path[len(t.path)-1])
	return dist < t.config.ClosureDistance
}

// Stop トラッキングを停止し、最終の閉合判定を行う
// 閉合していれば Closed、していなければ Idle に戻る
func (t *PathTracker) Stop() *model.SessionOutcome {
	if t.state != model.TrackingStateTracking {
		if t.state == model.TrackingStateClosed {
			return &model.SessionOutcome{Kind: model.ReasonKindClosed, Message: "ループは閉合済みです"}
		}
		if t.failure != nil {
			return t.failure
		}
		return &model.SessionOutcome{Kind: model.ReasonKindStopped, Message: "トラッキングは開始されていません"}
	}

	if t.checkClosure() {
		t.state = model.TrackingStateClosed
		return &model.SessionOutcome{Kind: model.ReasonKindClosed, Message: "ループが閉合しました。領土を獲得できます"}
	}
	t.state = model.TrackingStateIdle
	return &model.SessionOutcome{Kind: model.ReasonKindStopped, Message: "ループが閉合しないまま終了しました"}
}

// Terminate 外部要因（衝突違反・権限喪失）によるセッション強制終了
func (t *PathTracker) Terminate(outcome *model.SessionOutcome) {
	t.state = model.TrackingStateIdle
	t.failure = outcome
}

// Area 閉合後のポリゴン面積（平方メートル）。閉合前は0
func (t *PathTracker) Area() float64 {
	if t.state != model.TrackingStateClosed {
		return 0
	}
	return helper.PolygonArea(t.path)
}

// Path 記録済みの経路のコピーを返す
func (t *PathTracker) Path() []model.Location {
	out := make([]model.Location, len(t.path))
	copy(out, t.path)
	return out
}

// State 現在の状態を返す
func (t *PathTracker) State() model.TrackingState {
	return t.state
}

// IsClosed ループが閉合済みかどうか
func (t *PathTracker) IsClosed() bool {
	return t.state == model.TrackingStateClosed
}

// Failure SpeedGuard等による失敗理由。失敗していなければnil
func (t *PathTracker) Failure() *model.SessionOutcome {
	return t.failure
}
