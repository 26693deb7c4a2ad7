package service

import (
	"fmt"
	"math"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/helper"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// CollisionEngine 他プレイヤー領土との重複防止と接近警告
// 領土スナップショットは呼び出し側がセッション開始時に取得して渡す
type CollisionEngine struct {
	config *model.CollisionConfig
}

// NewCollisionEngine 新しいCollisionEngineを作成する（configがnilならデフォルト設定）
func NewCollisionEngine(config *model.CollisionConfig) *CollisionEngine {
	if config == nil {
		config = model.DefaultCollisionConfig()
	}
	return &CollisionEngine{config: config}
}

// CheckStartPoint 開始地点が他プレイヤーの領土内にないかチェックする
// 領土内ならViolationを返し、セッションはTrackingに遷移してはならない
func (e *CollisionEngine) CheckStartPoint(point model.Location, territories []*model.Territory, excludingOwner string) *model.CollisionResult {
	for _, territory := range territories {
		if territory.OwnerID == excludingOwner {
			continue
		}
		if helper.PointInPolygon(point, territory.Points) {
			return &model.CollisionResult{
				HasCollision: true,
				WarningLevel: model.WarningLevelViolation,
				Message:      fmt.Sprintf("他のプレイヤーの領土内からは開始できません（所有者: %s）", territory.OwnerID),
			}
		}
	}
	return e.classifyByDistance(point, territories, excludingOwner)
}

// CheckPathAgainstTerritories 進行中の経路と他領土の交差・侵入をチェックする
// 経路の全エッジ × 領土の全エッジの交差判定に加えて、最新点の内包判定を行う
// コストは領土数に比例するため、サンプルごとではなく一定間隔で呼ぶこと
func (e *CollisionEngine) CheckPathAgainstTerritories(path []model.Location, territories []*model.Territory, excludingOwner string) *model.CollisionResult {
	if len(path) == 0 {
		return &model.CollisionResult{WarningLevel: model.WarningLevelSafe, NearestDistance: math.MaxFloat64}
	}

	for _, territory := range territories {
		if territory.OwnerID == excludingOwner {
			continue
		}
		if len(territory.Points) < 3 {
			continue
		}

		if e.pathCrossesPolygon(path, territory.Points) {
			return &model.CollisionResult{
				HasCollision: true,
				WarningLevel: model.WarningLevelViolation,
				Message:      "経路が他のプレイヤーの領土と交差しています",
			}
		}
		if helper.PointInPolygon(path[len(path)-1], territory.Points) {
			return &model.CollisionResult{
				HasCollision: true,
				WarningLevel: model.WarningLevelViolation,
				Message:      "他のプレイヤーの領土に侵入しています",
			}
		}
	}

	return e.classifyByDistance(path[len(path)-1], territories, excludingOwner)
}

// pathCrossesPolygon 経路のいずれかのエッジがポリゴンのいずれかのエッジと交差するか
func (e *CollisionEngine) pathCrossesPolygon(path []model.Location, polygon []model.Location) bool {
	for i := 0; i+1 < len(path); i++ {
		for j := 0; j < len(polygon); j++ {
			k := (j + 1) % len(polygon)
			if helper.SegmentsIntersect(path[i], path[i+1], polygon[j], polygon[k]) {
				return true
			}
		}
	}
	return false
}

// NearestDistance 点から最も近い他領土の頂点までの距離（メートル）
// 頂点距離による近似であり、エッジへの垂線距離ではない
func (e *CollisionEngine) NearestDistance(point model.Location, territories []*model.Territory, excludingOwner string) float64 {
	nearest := math.MaxFloat64
	for _, territory := range territories {
		if territory.OwnerID == excludingOwner {
			continue
		}
		for _, vertex := range territory.Points {
			if d := helper.HaversineDistance(point, vertex); d < nearest {
				nearest = d
			}
		}
	}
	return nearest
}

// classifyByDistance 最近接距離から段階的な警告レベルを決める
// Dangerでもトラッキングは止めない。停止するのはViolationのみ
func (e *CollisionEngine) classifyByDistance(point model.Location, territories []*model.Territory, excludingOwner string) *model.CollisionResult {
	nearest := e.NearestDistance(point, territories, excludingOwner)

	result := &model.CollisionResult{NearestDistance: nearest}
	switch {
	case nearest > e.config.SafeDistance:
		result.WarningLevel = model.WarningLevelSafe
	case nearest > e.config.CautionDistance:
		result.WarningLevel = model.WarningLevelCaution
		result.Message = fmt.Sprintf("他の領土まで%.0fmです", nearest)
	case nearest > e.config.WarningDistance:
		result.WarningLevel = model.WarningLevelWarning
		result.Message = fmt.Sprintf("他の領土に近づいています（%.0fm）", nearest)
	default:
		result.WarningLevel = model.WarningLevelDanger
		result.Message = fmt.Sprintf("他の領土の目前です（%.0fm）。交差すると無効になります", nearest)
	}
	return result
}
