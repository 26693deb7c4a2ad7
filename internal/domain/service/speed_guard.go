package service

import (
	"fmt"
	"time"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/helper"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// SpeedDecision SpeedGuardの判定結果の種別
type SpeedDecision string

const (
	SpeedDecisionAccept            SpeedDecision = "accept"
	SpeedDecisionAcceptWithWarning SpeedDecision = "accept_with_warning"
	SpeedDecisionRejectSample      SpeedDecision = "reject_sample"
	SpeedDecisionTerminateSession  SpeedDecision = "terminate_session"
)

// SpeedCheckResult 1サンプルに対するSpeedGuardの判定
type SpeedCheckResult struct {
	Decision SpeedDecision
	Message  string
	// Speed 判定に使った速度（m/s）
	Speed float64
	// CountdownSeconds 自動停止までの残り秒数（停止閾値超過中のみ > 0）
	CountdownSeconds float64
	// Reason Decision が TerminateSession の時の理由コード
	Reason model.ReasonKind
}

// SpeedGuard 位置サンプルが徒歩として妥当な速度かを判定するアンチチート
// 一時的なGPSノイズで誤検知しないよう、停止判定には許容時間を設ける
type SpeedGuard struct {
	config *model.SpeedGuardConfig
}

// NewSpeedGuard 新しいSpeedGuardを作成する（configがnilならデフォルト設定）
func NewSpeedGuard(config *model.SpeedGuardConfig) *SpeedGuard {
	if config == nil {
		config = model.DefaultSpeedGuardConfig()
	}
	return &SpeedGuard{config: config}
}

// Evaluate サンプルを判定し、SpeedStateを更新する
// Pathには一切触れない。呼び出し側はDecisionに従って記録・終了を行う
func (g *SpeedGuard) Evaluate(state *model.SpeedState, sample *model.LocationSample) *SpeedCheckResult {
	// 精度が悪いサンプルは速度に関係なく破棄する
	if sample.Accuracy > g.config.MaxAccuracy {
		return &SpeedCheckResult{
			Decision: SpeedDecisionRejectSample,
			Message:  fmt.Sprintf("GPS精度が不足しています（%.0fm）", sample.Accuracy),
		}
	}

	prev := state.LastSample

	// セッション最初のサンプルは比較対象がないため常に受理
	if prev == nil {
		state.LastSample = sample
		state.Classification = model.SpeedNormal
		speed := sample.Speed
		if speed < 0 {
			speed = 0
		}
		return &SpeedCheckResult{Decision: SpeedDecisionAccept, Speed: speed}
	}

	// タイムスタンプが進んでいない場合はゼロ除算を避けて受理扱い
	// 速度の基準点は動かさない
	elapsed := sample.Timestamp.Sub(prev.Timestamp)
	if elapsed <= 0 {
		return &SpeedCheckResult{Decision: SpeedDecisionAccept}
	}

	speed := helper.HaversineDistance(prev.Location, sample.Location) / elapsed.Seconds()

	switch {
	case speed >= g.config.StopSpeed:
		// 超過区間の起点は直前サンプルの時刻
		if state.ViolationStartTime.IsZero() {
			state.ViolationStartTime = prev.Timestamp
		}
		over := sample.Timestamp.Sub(state.ViolationStartTime)
		if over >= g.config.Tolerance {
			state.Classification = model.SpeedStopped
			return &SpeedCheckResult{
				Decision: SpeedDecisionTerminateSession,
				Message:  fmt.Sprintf("移動速度が速すぎます（%.1fkm/h）。乗り物での移動は無効です", speed*3.6),
				Speed:    speed,
				Reason:   model.ReasonKindOverSpeed,
			}
		}
		state.Classification = model.SpeedWarning
		state.LastSample = sample
		countdown := (g.config.Tolerance - over).Seconds()
		return &SpeedCheckResult{
			Decision:         SpeedDecisionAcceptWithWarning,
			Message:          fmt.Sprintf("速度超過を検知しました。%.0f秒以内に減速してください", countdown),
			Speed:            speed,
			CountdownSeconds: countdown,
		}

	case speed >= g.config.WarningSpeed:
		state.ViolationStartTime = time.Time{}
		state.Classification = model.SpeedWarning
		state.LastSample = sample
		return &SpeedCheckResult{
			Decision: SpeedDecisionAcceptWithWarning,
			Message:  fmt.Sprintf("移動速度が上がっています（%.1fkm/h）", speed*3.6),
			Speed:    speed,
		}

	default:
		// 警告閾値を下回ったら即座に回復する
		state.ViolationStartTime = time.Time{}
		state.Classification = model.SpeedNormal
		state.LastSample = sample
		return &SpeedCheckResult{Decision: SpeedDecisionAccept, Speed: speed}
	}
}
