package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/database"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
)

type SupabaseTerritoriesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseTerritoriesRepository(client *database.SupabaseClient) repository.TerritoriesRepository {
	return &SupabaseTerritoriesRepository{
		client: client,
	}
}

func (r *SupabaseTerritoriesRepository) Create(ctx context.Context, territory *model.Territory) error {
	// Territory を DB 保存用の形式に変換（WKTポリゴンを含む）
	territoryDB, err := TerritoryToTerritoryDB(territory)
	if err != nil {
		return fmt.Errorf("領土データの変換失敗: %w", err)
	}

	data, err := json.Marshal(territoryDB)
	if err != nil {
		return fmt.Errorf("領土データのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("territories").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("領土データの作成失敗: %w", err)
	}

	return nil
}

func (r *SupabaseTerritoriesRepository) GetAllActive(ctx context.Context) ([]*model.Territory, error) {
	var rows []TerritoryDB
	data, count, err := r.client.GetClient().From("territories").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("全領土データの取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("領土データのJSONアンマーシャル失敗: %w", err)
	}

	territories := make([]*model.Territory, 0, len(rows))
	for i := range rows {
		territory, err := TerritoryDBToTerritory(&rows[i])
		if err != nil {
			return nil, err
		}
		territories = append(territories, territory)
	}

	return territories, nil
}

func (r *SupabaseTerritoriesRepository) GetByBoundingBox(ctx context.Context, minLng, minLat, maxLng, maxLat float64) ([]model.TerritorySummary, error) {
	// 入力値の検証
	if minLng >= maxLng || minLat >= maxLat {
		return nil, fmt.Errorf("無効な境界ボックス: min値がmax値以上です")
	}

	// 座標値の範囲チェック（経度: -180〜180, 緯度: -90〜90）
	if minLng < -180 || maxLng > 180 || minLat < -90 || maxLat > 90 {
		return nil, fmt.Errorf("座標値が有効範囲外です")
	}

	// orb.Bound を使用して境界ボックスを作成
	bound := orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}

	polygon := bound.ToPolygon()
	wktString := wkt.MarshalString(polygon)

	// PostGIS ST_Intersects関数を使用して境界ボックス内の領土を検索
	var rows []TerritoryDB
	data, count, err := r.client.GetClient().From("territories").
		Select("id,owner_id,polygon,area_sq_m,point_count,started_at,completed_at", "exact", false).
		Filter("bounds", "st_intersects", fmt.Sprintf("ST_GeomFromText('%s', 4326)", wktString)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("境界ボックス検索エラー: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("領土データのJSONアンマーシャル失敗: %w", err)
	}

	var summaries []model.TerritorySummary
	for i := range rows {
		territory, err := TerritoryDBToTerritory(&rows[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.TerritorySummary{
			ID:         territory.ID,
			OwnerID:    territory.OwnerID,
			Points:     territory.Points,
			AreaSqM:    territory.AreaSqM,
			PointCount: territory.PointCount,
		})
	}

	return summaries, nil
}
