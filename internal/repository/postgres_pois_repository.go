package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/repository"
	"github.com/zjoy95210-blip/EarthLord-sub000/internal/infrastructure/database"
)

type PostgresPOIsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPOIsRepository(client *database.PostgreSQLClient) repository.POIsRepository {
	return &PostgresPOIsRepository{
		client: client,
	}
}

// POIResult PostGIS関数の結果を受け取るための構造体
type POIResult struct {
	ID             string
	Name           string
	Location       string
	Category       string
	Rate           float64
	DistanceMeters float64
}

// ToPOI POIResultをmodel.POIに変換
func (pr *POIResult) ToPOI() (*model.POI, error) {
	var location model.Geometry
	if err := json.Unmarshal([]byte(pr.Location), &location); err != nil {
		return nil, fmt.Errorf("location GeoJSONパースエラー: %w", err)
	}

	return &model.POI{
		ID:       pr.ID,
		Name:     pr.Name,
		Location: &location,
		Category: pr.Category,
		Rate:     pr.Rate,
	}, nil
}

// FindNearby 中心座標から半径内のPOIを近い順に最大limit件取得する
// ジオフェンス監視の候補選定に使う
func (r *PostgresPOIsRepository) FindNearby(ctx context.Context, center model.Location, radiusMeters float64, limit int) ([]*model.POI, error) {
	if limit <= 0 {
		limit = model.DefaultExplorationConfig().MaxMonitoredPOIs
	}

	query := `
		SELECT
			id,
			name,
			ST_AsGeoJSON(location) AS location,
			category,
			rate,
			ST_Distance(
				location::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
			) AS distance_meters
		FROM pois
		WHERE ST_DWithin(
			location::geography,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		ORDER BY distance_meters ASC
		LIMIT $4`

	rows, err := r.client.DB.QueryContext(ctx, query, center.Longitude, center.Latitude, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("近隣POI検索クエリの実行失敗: %w", err)
	}
	defer rows.Close()

	var pois []*model.POI
	for rows.Next() {
		var result POIResult
		if err := rows.Scan(
			&result.ID,
			&result.Name,
			&result.Location,
			&result.Category,
			&result.Rate,
			&result.DistanceMeters,
		); err != nil {
			return nil, fmt.Errorf("POI行のスキャン失敗: %w", err)
		}

		poi, err := result.ToPOI()
		if err != nil {
			return nil, err
		}
		pois = append(pois, poi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("POI行の読み取り中にエラー: %w", err)
	}

	return pois, nil
}
