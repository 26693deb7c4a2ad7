package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/service"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/infrastructure/geofence"
)

// 監視候補POIを探す半径（メートル）。ジオフェンス半径より十分広く取る
const poiCandidateRadius = 3000.0

// ExplorationUseCase 探索セッションのオーケストレーション
// 1プレイヤーにつき同時に1セッションのみ
type ExplorationUseCase interface {
	// StartExploration 現在地周辺のPOIを監視対象にしてセッションを開始する
	StartExploration(ctx context.Context, playerID string, sample *model.LocationSample) error

	// OnLocationUpdate サンプルを1件セッションに送る
	OnLocationUpdate(ctx context.Context, playerID string, sample *model.LocationSample) (*service.ExplorationUpdate, error)

	// StopExploration セッションを終了し、結果を永続化して返す
	StopExploration(ctx context.Context, playerID string) (*model.ExplorationResult, error)

	// CancelExploration セッションを破棄する。報酬は付与されない
	CancelExploration(ctx context.Context, playerID string) (*model.ExplorationResult, error)

	// RetryUpload 保存に失敗した探索結果の再送を試みる
	RetryUpload(ctx context.Context, playerID string) (*model.ExplorationResult, error)
}

// explorationSession 1プレイヤー分の探索セッション
// muがサンプル処理を直列化する（エンジン内部は並行安全ではない）
type explorationSession struct {
	mu     sync.Mutex
	engine *service.ExplorationEngine
}

type explorationUseCaseImpl struct {
	poisRepo    repository.POIsRepository
	rewardsRepo repository.RewardsRepository
	config      *model.ExplorationConfig
	speedConfig *model.SpeedGuardConfig

	mu       sync.Mutex
	sessions map[string]*explorationSession
	// failedSaves 保存に失敗した終了済みセッションの結果。再送まで失われない
	failedSaves map[string]*model.ExplorationResult
}

// NewExplorationUseCase 新しいExplorationUseCaseインスタンスを作成
func NewExplorationUseCase(
	poisRepo repository.POIsRepository,
	rewardsRepo repository.RewardsRepository,
	config *model.ExplorationConfig,
	speedConfig *model.SpeedGuardConfig,
) ExplorationUseCase {
	if config == nil {
		config = model.DefaultExplorationConfig()
	}
	return &explorationUseCaseImpl{
		poisRepo:    poisRepo,
		rewardsRepo: rewardsRepo,
		config:      config,
		speedConfig: speedConfig,
		sessions:    make(map[string]*explorationSession),
		failedSaves: make(map[string]*model.ExplorationResult),
	}
}

// StartExploration セッションを開始する
func (u *explorationUseCaseImpl) StartExploration(ctx context.Context, playerID string, sample *model.LocationSample) error {
	// キーの予約までを1つのクリティカルセクションで行い、
	// POI取得中に同一プレイヤーの開始が滑り込めないようにする
	u.mu.Lock()
	if _, exists := u.sessions[playerID]; exists {
		u.mu.Unlock()
		return fmt.Errorf("プレイヤー %s の探索セッションは既に進行中です", playerID)
	}
	u.sessions[playerID] = nil // 予約。開始に失敗したら解放する
	u.mu.Unlock()

	// 現在地周辺のPOIを候補として取得（上限はエンジン側で近い順に絞る）
	candidates, err := u.poisRepo.FindNearby(ctx, sample.Location, poiCandidateRadius, u.config.MaxMonitoredPOIs)
	if err != nil {
		u.unreserve(playerID)
		return fmt.Errorf("周辺POIの取得失敗: %w", err)
	}

	monitor := geofence.NewInMemoryRegionMonitor(u.config.MaxMonitoredPOIs)
	engine := service.NewExplorationEngine(u.config, service.NewSpeedGuard(u.speedConfig), monitor)
	if err := engine.Start(playerID, candidates, sample.Timestamp); err != nil {
		u.unreserve(playerID)
		return err
	}

	session := &explorationSession{engine: engine}
	u.mu.Lock()
	u.sessions[playerID] = session
	u.mu.Unlock()

	// 最初のサンプルを投入して監視領域を確定させる
	session.mu.Lock()
	engine.OnLocationUpdate(sample)
	session.mu.Unlock()

	log.Printf("🧭 探索セッション開始 (player: %s, 候補POI: %d件)", playerID, len(candidates))
	return nil
}

// OnLocationUpdate サンプルを1件処理する
func (u *explorationUseCaseImpl) OnLocationUpdate(ctx context.Context, playerID string, sample *model.LocationSample) (*service.ExplorationUpdate, error) {
	session := u.lookup(playerID)
	if session == nil {
		return nil, fmt.Errorf("プレイヤー %s の進行中の探索セッションがありません", playerID)
	}

	session.mu.Lock()
	update := session.engine.OnLocationUpdate(sample)
	session.mu.Unlock()

	for _, discovery := range update.Discoveries {
		log.Printf("📍 POI発見 (player: %s): %s", playerID, discovery.Name)
	}

	// SpeedGuardによる強制終了。結果は破棄扱い（報酬なし）
	if update.Terminated {
		u.remove(playerID)
		log.Printf("🚫 探索セッション強制終了 (player: %s): %s", playerID, update.Outcome.Message)
	}
	return update, nil
}

// StopExploration セッションを終了し、結果を保存する
func (u *explorationUseCaseImpl) StopExploration(ctx context.Context, playerID string) (*model.ExplorationResult, error) {
	session := u.lookup(playerID)
	if session == nil {
		return nil, fmt.Errorf("プレイヤー %s の進行中の探索セッションがありません", playerID)
	}

	session.mu.Lock()
	result := session.engine.Stop(time.Now())
	session.mu.Unlock()
	u.remove(playerID)

	if err := u.rewardsRepo.SaveExplorationResult(ctx, result); err != nil {
		// 結果は保持しておき、RetryUploadで同じ結果を再送できる
		u.mu.Lock()
		u.failedSaves[playerID] = result
		u.mu.Unlock()
		log.Printf("⚠️ 探索結果の保存失敗（再試行可能）: %v", err)
		return result, fmt.Errorf("探索結果の保存失敗: %w", err)
	}

	u.mu.Lock()
	delete(u.failedSaves, playerID)
	u.mu.Unlock()

	log.Printf("🏁 探索セッション終了 (player: %s, %.0fm, tier %d)", playerID, result.TotalDistance, result.RewardTier)
	return result, nil
}

// RetryUpload 保存に失敗した探索結果の再送
// セッション自体は再開されない
func (u *explorationUseCaseImpl) RetryUpload(ctx context.Context, playerID string) (*model.ExplorationResult, error) {
	u.mu.Lock()
	result := u.failedSaves[playerID]
	u.mu.Unlock()
	if result == nil {
		return nil, fmt.Errorf("再送可能な探索結果がありません")
	}

	if err := u.rewardsRepo.SaveExplorationResult(ctx, result); err != nil {
		return result, fmt.Errorf("探索結果の再保存失敗: %w", err)
	}

	u.mu.Lock()
	delete(u.failedSaves, playerID)
	u.mu.Unlock()

	log.Printf("🔁 探索結果の再保存成功 (player: %s)", playerID)
	return result, nil
}

// CancelExploration セッションを破棄する
func (u *explorationUseCaseImpl) CancelExploration(ctx context.Context, playerID string) (*model.ExplorationResult, error) {
	session := u.lookup(playerID)
	if session == nil {
		return nil, fmt.Errorf("プレイヤー %s の進行中の探索セッションがありません", playerID)
	}

	session.mu.Lock()
	result := session.engine.Cancel(time.Now())
	session.mu.Unlock()
	u.remove(playerID)

	log.Printf("🗑️ 探索セッションをキャンセル (player: %s)", playerID)
	return result, nil
}

// unreserve StartExplorationの予約を解放する。確定済みセッションには触れない
func (u *explorationUseCaseImpl) unreserve(playerID string) {
	u.mu.Lock()
	if session, exists := u.sessions[playerID]; exists && session == nil {
		delete(u.sessions, playerID)
	}
	u.mu.Unlock()
}

func (u *explorationUseCaseImpl) lookup(playerID string) *explorationSession {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessions[playerID]
}

func (u *explorationUseCaseImpl) remove(playerID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.sessions, playerID)
}
