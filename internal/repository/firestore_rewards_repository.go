package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
	fsinfra "github.com/zjoy95210-blip/EarthLord-sub000/internal/infrastructure/firestore"
)

// 保存した結果はTTLで自動削除される（報酬集計後の生データは保持しない）
const explorationResultTTLHours = 24 * 30

// FirestoreRewardsRepository Firestoreを使用した探索結果・報酬リポジトリ
type FirestoreRewardsRepository struct {
	client *fsinfra.FirestoreClient
}

// NewFirestoreRewardsRepository 新しいFirestoreRewardsRepositoryインスタンスを作成
func NewFirestoreRewardsRepository(client *fsinfra.FirestoreClient) repository.RewardsRepository {
	return &FirestoreRewardsRepository{
		client: client,
	}
}

// SaveExplorationResult 探索セッションの最終結果をFirestoreに保存する
// キャンセルされたセッションは報酬対象外なので保存しない
func (r *FirestoreRewardsRepository) SaveExplorationResult(ctx context.Context, result *model.ExplorationResult) error {
	if result.Outcome.Kind == model.ReasonKindCancelled {
		return nil
	}

	firestoreData := result.ToFirestoreExplorationResult(explorationResultTTLHours)

	collection := r.client.GetClient().Collection("explorationResults")
	_, err := collection.Doc(result.SessionID).Set(ctx, firestoreData)
	if err != nil {
		log.Printf("❌ Failed to save exploration result %s: %v", result.SessionID, err)
		return fmt.Errorf("探索結果の保存に失敗しました: %w", err)
	}

	log.Printf("✅ Exploration result saved: %s (tier %d, %.0fm)", result.SessionID, result.RewardTier, result.TotalDistance)
	return nil
}
