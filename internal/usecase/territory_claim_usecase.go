package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/service"
)

// TerritoryClaimUseCase 領土獲得セッションのオーケストレーション
// 1プレイヤーにつき同時に1セッションのみ。構造上これを保証する
type TerritoryClaimUseCase interface {
	// StartClaim セッションを開始する。開始地点が他領土内ならViolationで開始しない
	StartClaim(ctx context.Context, playerID string, sample *model.LocationSample) (*model.ClaimStartResponse, error)

	// OnLocationUpdate サンプルを1件セッションに送る
	OnLocationUpdate(ctx context.Context, playerID string, sample *model.LocationSample) (*model.ClaimUpdate, error)

	// StopClaim セッションを停止し、最終の閉合判定と永続化を行う
	StopClaim(ctx context.Context, playerID string) (*model.ClaimResult, error)

	// ReportPermissionDenied 位置情報権限の喪失によりセッションを強制終了する
	ReportPermissionDenied(ctx context.Context, playerID string) (*model.ClaimResult, error)

	// RetryUpload アップロードに失敗した獲得済み領土の再送を試みる
	RetryUpload(ctx context.Context, playerID string) (*model.ClaimResult, error)
}

type claimCommandKind int

const (
	claimCmdSample claimCommandKind = iota
	claimCmdCollisionTick
	claimCmdStop
	claimCmdTerminate
)

type claimCommand struct {
	kind    claimCommandKind
	sample  *model.LocationSample
	outcome *model.SessionOutcome // claimCmdTerminate用
	update  chan *model.ClaimUpdate
	result  chan *model.ClaimResult
}

// claimSession 1プレイヤー分のセッション状態
// commandsを単一goroutineが順番に処理するため、内部状態にロックは不要
type claimSession struct {
	playerID    string
	tracker     *service.PathTracker
	collision   *service.CollisionEngine
	territories []*model.Territory // セッション開始時のスナップショット
	startedAt   time.Time

	commands chan claimCommand
	done     chan struct{}

	lastCollision *model.CollisionResult
}

type territoryClaimUseCaseImpl struct {
	territoriesRepo repository.TerritoriesRepository
	trackerConfig   *model.TrackerConfig
	speedConfig     *model.SpeedGuardConfig
	collisionConfig *model.CollisionConfig

	mu       sync.Mutex
	sessions map[string]*claimSession
	// results 終了済みセッションの結果。アップロード失敗時の再試行に使う
	results map[string]*model.ClaimResult
}

// NewTerritoryClaimUseCase 新しいTerritoryClaimUseCaseインスタンスを作成
func NewTerritoryClaimUseCase(
	territoriesRepo repository.TerritoriesRepository,
	trackerConfig *model.TrackerConfig,
	speedConfig *model.SpeedGuardConfig,
	collisionConfig *model.CollisionConfig,
) TerritoryClaimUseCase {
	if trackerConfig == nil {
		trackerConfig = model.DefaultTrackerConfig()
	}
	return &territoryClaimUseCaseImpl{
		territoriesRepo: territoriesRepo,
		trackerConfig:   trackerConfig,
		speedConfig:     speedConfig,
		collisionConfig: collisionConfig,
		sessions:        make(map[string]*claimSession),
		results:         make(map[string]*model.ClaimResult),
	}
}

// StartClaim セッションを開始する
func (u *territoryClaimUseCaseImpl) StartClaim(ctx context.Context, playerID string, sample *model.LocationSample) (*model.ClaimStartResponse, error) {
	// キーの予約までを1つのクリティカルセクションで行い、
	// ストア取得中に同一プレイヤーの開始が滑り込めないようにする
	u.mu.Lock()
	if _, exists := u.sessions[playerID]; exists {
		u.mu.Unlock()
		return nil, fmt.Errorf("プレイヤー %s のセッションは既に進行中です", playerID)
	}
	u.sessions[playerID] = nil // 予約。開始に失敗したら解放する
	u.mu.Unlock()

	// 衝突判定用の領土スナップショットを取得（セッション中は更新しない）
	territories, err := u.territoriesRepo.GetAllActive(ctx)
	if err != nil {
		u.unreserve(playerID)
		return nil, fmt.Errorf("領土スナップショットの取得失敗: %w", err)
	}

	collision := service.NewCollisionEngine(u.collisionConfig)

	// 開始地点が他プレイヤーの領土内なら開始させない
	startCheck := collision.CheckStartPoint(sample.Location, territories, playerID)
	if startCheck.WarningLevel == model.WarningLevelViolation {
		u.unreserve(playerID)
		return &model.ClaimStartResponse{
			Started:   false,
			Message:   startCheck.Message,
			Collision: startCheck,
		}, nil
	}

	tracker := service.NewPathTracker(u.trackerConfig, service.NewSpeedGuard(u.speedConfig))
	if err := tracker.Start(); err != nil {
		u.unreserve(playerID)
		return nil, err
	}

	session := &claimSession{
		playerID:    playerID,
		tracker:     tracker,
		collision:   collision,
		territories: territories,
		startedAt:   sample.Timestamp,
		commands:    make(chan claimCommand, 16),
		done:        make(chan struct{}),
	}

	u.mu.Lock()
	u.sessions[playerID] = session
	u.mu.Unlock()

	go u.runSession(session)
	go u.runCollisionTicker(session)

	// 最初のサンプルを投入しておく
	if _, err := u.OnLocationUpdate(ctx, playerID, sample); err != nil {
		log.Printf("⚠️ 開始サンプルの投入に失敗: %v", err)
	}

	log.Printf("🚩 領土獲得セッション開始 (player: %s, 既存領土: %d件)", playerID, len(territories))
	return &model.ClaimStartResponse{
		Started:   true,
		Message:   "トラッキングを開始しました。歩いてループを描いてください",
		Collision: startCheck,
	}, nil
}

// runSession セッションの単一スレッドイベントループ
// サンプル・タイマー・停止をすべてこのループが直列に処理する
func (u *territoryClaimUseCaseImpl) runSession(s *claimSession) {
	defer close(s.done)

	for cmd := range s.commands {
		switch cmd.kind {
		case claimCmdSample:
			update := u.handleSample(s, cmd.sample)
			if cmd.update != nil {
				cmd.update <- update
			}
			if update.Closed || update.Terminated {
				u.endSession(s)
				return
			}

		case claimCmdCollisionTick:
			u.handleCollisionTick(s)
			if s.tracker.State() == model.TrackingStateIdle {
				// 衝突違反による強制終了
				u.endSession(s)
				return
			}

		case claimCmdStop:
			result := u.finalize(s, s.tracker.Stop())
			if cmd.result != nil {
				cmd.result <- result
			}
			u.endSession(s)
			return

		case claimCmdTerminate:
			s.tracker.Terminate(cmd.outcome)
			result := u.finalize(s, cmd.outcome)
			if cmd.result != nil {
				cmd.result <- result
			}
			u.endSession(s)
			return
		}
	}
}

// handleSample SpeedGuard → Path追加 → 閉合判定
func (u *territoryClaimUseCaseImpl) handleSample(s *claimSession, sample *model.LocationSample) *model.ClaimUpdate {
	trackUpdate := s.tracker.OnLocationUpdate(sample)

	update := &model.ClaimUpdate{
		Decision:   string(trackUpdate.Decision),
		Warning:    trackUpdate.Warning,
		PathLength: trackUpdate.PathLength,
		Closed:     trackUpdate.Closed,
		Terminated: trackUpdate.Terminated,
		Outcome:    trackUpdate.Outcome,
		Collision:  s.lastCollision,
	}

	if trackUpdate.Closed {
		result := u.finalize(s, trackUpdate.Outcome)
		update.AreaSqM = s.tracker.Area()
		if result.Territory != nil {
			update.Outcome = &result.Outcome
		}
	} else if trackUpdate.Terminated {
		u.finalize(s, trackUpdate.Outcome)
	}
	return update
}

// handleCollisionTick 経路と既存領土の交差スキャン（一定間隔でのみ実行）
func (u *territoryClaimUseCaseImpl) handleCollisionTick(s *claimSession) {
	if s.tracker.State() != model.TrackingStateTracking {
		return
	}
	path := s.tracker.Path()
	if len(path) == 0 {
		return
	}

	result := s.collision.CheckPathAgainstTerritories(path, s.territories, s.playerID)
	s.lastCollision = result

	if result.WarningLevel == model.WarningLevelViolation {
		outcome := &model.SessionOutcome{
			Kind:    model.ReasonKindCollision,
			Message: result.Message,
		}
		s.tracker.Terminate(outcome)
		u.finalize(s, outcome)
		log.Printf("🚫 衝突違反でセッション終了 (player: %s): %s", s.playerID, result.Message)
	}
}

// finalize セッションの最終結果を作り、閉合していれば永続化を試みる
// アップロード失敗時も結果はメモリ上に残り、RetryUploadで再送できる
func (u *territoryClaimUseCaseImpl) finalize(s *claimSession, outcome *model.SessionOutcome) *model.ClaimResult {
	result := &model.ClaimResult{Outcome: *outcome}

	if outcome.Kind == model.ReasonKindClosed {
		path := s.tracker.Path()
		territory := &model.Territory{
			ID:          uuid.New().String(),
			OwnerID:     s.playerID,
			Points:      path,
			AreaSqM:     s.tracker.Area(),
			PointCount:  len(path),
			StartedAt:   s.startedAt,
			CompletedAt: time.Now(),
		}
		result.Territory = territory

		if err := u.territoriesRepo.Create(context.Background(), territory); err != nil {
			log.Printf("⚠️ 領土のアップロード失敗（再試行可能）: %v", err)
			result.Uploaded = false
		} else {
			result.Uploaded = true
			log.Printf("🎉 領土獲得完了 (player: %s, 面積: %.0f㎡, %d点)", s.playerID, territory.AreaSqM, territory.PointCount)
		}
	}

	u.mu.Lock()
	u.results[s.playerID] = result
	u.mu.Unlock()
	return result
}

// unreserve StartClaimの予約を解放する。確定済みセッションには触れない
func (u *territoryClaimUseCaseImpl) unreserve(playerID string) {
	u.mu.Lock()
	if session, exists := u.sessions[playerID]; exists && session == nil {
		delete(u.sessions, playerID)
	}
	u.mu.Unlock()
}

// endSession セッションをマップから外し、タイマーを確実に止める
func (u *territoryClaimUseCaseImpl) endSession(s *claimSession) {
	u.mu.Lock()
	if u.sessions[s.playerID] == s {
		delete(u.sessions, s.playerID)
	}
	u.mu.Unlock()
}

// runCollisionTicker 一定間隔で交差スキャンのコマンドを投入する
// セッション終了とともに確実に停止する
func (u *territoryClaimUseCaseImpl) runCollisionTicker(s *claimSession) {
	ticker := time.NewTicker(u.trackerConfig.CollisionCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			select {
			case s.commands <- claimCommand{kind: claimCmdCollisionTick}:
			case <-s.done:
				return
			}
		}
	}
}

// OnLocationUpdate サンプルをセッションのイベントループに送る
func (u *territoryClaimUseCaseImpl) OnLocationUpdate(ctx context.Context, playerID string, sample *model.LocationSample) (*model.ClaimUpdate, error) {
	session := u.lookup(playerID)
	if session == nil {
		// 衝突タイマー等で強制終了した直後のサンプルには終了理由を返す
		if update := u.terminalUpdate(playerID); update != nil {
			return update, nil
		}
		return nil, fmt.Errorf("プレイヤー %s の進行中セッションがありません", playerID)
	}

	cmd := claimCommand{kind: claimCmdSample, sample: sample, update: make(chan *model.ClaimUpdate, 1)}
	select {
	case session.commands <- cmd:
	case <-session.done:
		if update := u.terminalUpdate(playerID); update != nil {
			return update, nil
		}
		return nil, fmt.Errorf("セッションは終了しています")
	}

	select {
	case update := <-cmd.update:
		return update, nil
	case <-session.done:
		// ループ終了と応答送信が競合した場合は応答を優先する
		select {
		case update := <-cmd.update:
			return update, nil
		default:
			if update := u.terminalUpdate(playerID); update != nil {
				return update, nil
			}
			return nil, fmt.Errorf("セッションは終了しています")
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// terminalUpdate 強制終了済みセッションの理由を次のサンプル応答として組み立てる
// 閉合・通常停止は終了済みエラーのままにし、ポリシー違反系の理由だけを届ける
func (u *territoryClaimUseCaseImpl) terminalUpdate(playerID string) *model.ClaimUpdate {
	result := u.lastResult(playerID)
	if result == nil {
		return nil
	}
	switch result.Outcome.Kind {
	case model.ReasonKindCollision, model.ReasonKindOverSpeed, model.ReasonKindPermissionDenied:
		outcome := result.Outcome
		return &model.ClaimUpdate{
			Decision:   string(service.SpeedDecisionRejectSample),
			Terminated: true,
			Outcome:    &outcome,
		}
	}
	return nil
}

// StopClaim セッションを停止する
func (u *territoryClaimUseCaseImpl) StopClaim(ctx context.Context, playerID string) (*model.ClaimResult, error) {
	session := u.lookup(playerID)
	if session == nil {
		// 既に終了していれば最後の結果を返す
		if result := u.lastResult(playerID); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("プレイヤー %s の進行中セッションがありません", playerID)
	}

	cmd := claimCommand{kind: claimCmdStop, result: make(chan *model.ClaimResult, 1)}
	select {
	case session.commands <- cmd:
	case <-session.done:
		if result := u.lastResult(playerID); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("セッションは終了しています")
	}

	select {
	case result := <-cmd.result:
		return result, nil
	case <-session.done:
		select {
		case result := <-cmd.result:
			return result, nil
		default:
			if result := u.lastResult(playerID); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("セッションは終了しています")
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReportPermissionDenied 位置情報権限の喪失による強制終了
func (u *territoryClaimUseCaseImpl) ReportPermissionDenied(ctx context.Context, playerID string) (*model.ClaimResult, error) {
	session := u.lookup(playerID)
	if session == nil {
		return nil, fmt.Errorf("プレイヤー %s の進行中セッションがありません", playerID)
	}

	cmd := claimCommand{
		kind: claimCmdTerminate,
		outcome: &model.SessionOutcome{
			Kind:    model.ReasonKindPermissionDenied,
			Message: "位置情報の権限が許可されていません。設定から許可してください",
		},
		result: make(chan *model.ClaimResult, 1),
	}
	select {
	case session.commands <- cmd:
	case <-session.done:
		return nil, fmt.Errorf("セッションは終了しています")
	}

	select {
	case result := <-cmd.result:
		return result, nil
	case <-session.done:
		select {
		case result := <-cmd.result:
			return result, nil
		default:
			if result := u.lastResult(playerID); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("セッションは終了しています")
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RetryUpload アップロード失敗した領土の再送
// セッション自体は再開されない
func (u *territoryClaimUseCaseImpl) RetryUpload(ctx context.Context, playerID string) (*model.ClaimResult, error) {
	result := u.lastResult(playerID)
	if result == nil || result.Territory == nil {
		return nil, fmt.Errorf("再送可能な領土がありません")
	}
	if result.Uploaded {
		return result, nil
	}

	if err := u.territoriesRepo.Create(ctx, result.Territory); err != nil {
		return result, fmt.Errorf("領土の再アップロード失敗: %w", err)
	}
	result.Uploaded = true
	log.Printf("🔁 領土の再アップロード成功 (player: %s)", playerID)
	return result, nil
}

func (u *territoryClaimUseCaseImpl) lookup(playerID string) *claimSession {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessions[playerID]
}

func (u *territoryClaimUseCaseImpl) lastResult(playerID string) *model.ClaimResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.results[playerID]
}
