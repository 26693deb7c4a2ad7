package repository

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

// GeoPoint PostGIS POINT 型の JSON 表現
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// LocationToGeoPoint model.Location を PostGIS POINT 形式に変換
func LocationToGeoPoint(location *model.Location) *GeoPoint {
	if location == nil {
		return nil
	}

	point := orb.Point{location.Longitude, location.Latitude}

	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{point.Lon(), point.Lat()},
	}
}

// GeoPointToLocation PostGIS POINT を model.Location に変換
func GeoPointToLocation(geoPoint *GeoPoint) *model.Location {
	if geoPoint == nil || len(geoPoint.Coordinates) < 2 {
		return nil
	}

	point := orb.Point{geoPoint.Coordinates[0], geoPoint.Coordinates[1]}

	return &model.Location{
		Latitude:  point.Lat(),
		Longitude: point.Lon(),
	}
}

// PointsToRing 座標列をorbの閉じたリングに変換する
// WKTでは座標は [longitude, latitude] の順。先頭座標を末尾で繰り返して明示的に閉じる
func PointsToRing(points []model.Location) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.Longitude, p.Latitude})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// PointsToWKT 座標列をWKTのPOLYGON文字列に変換する
func PointsToWKT(points []model.Location) (string, error) {
	if len(points) < 3 {
		return "", fmt.Errorf("ポリゴンには3点以上が必要です: %d点", len(points))
	}
	polygon := orb.Polygon{PointsToRing(points)}
	return wkt.MarshalString(polygon), nil
}

// WKTToPoints WKTのPOLYGON文字列を座標列に戻す
// 末尾の閉じ座標は取り除き、記録時の点列をそのまま復元する
func WKTToPoints(wktString string) ([]model.Location, error) {
	polygon, err := wkt.UnmarshalPolygon(wktString)
	if err != nil {
		return nil, fmt.Errorf("WKTポリゴンの解析失敗: %w", err)
	}
	if len(polygon) == 0 {
		return nil, fmt.Errorf("WKTポリゴンに外周リングがありません")
	}

	ring := polygon[0]
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	points := make([]model.Location, 0, len(ring))
	for _, p := range ring {
		points = append(points, model.Location{
			Latitude:  p.Lat(),
			Longitude: p.Lon(),
		})
	}
	return points, nil
}

// PointsToBoundsPolygon 座標列の境界ボックスをGeoJSONポリゴンとして作る
// 地図表示のst_intersects検索用に少し余裕を持たせる
func PointsToBoundsPolygon(points []model.Location) *model.GeoPolygon {
	if len(points) == 0 {
		return nil
	}

	bound := orb.Bound{
		Min: orb.Point{points[0].Longitude, points[0].Latitude},
		Max: orb.Point{points[0].Longitude, points[0].Latitude},
	}
	for _, p := range points[1:] {
		bound = bound.Extend(orb.Point{p.Longitude, p.Latitude})
	}

	// 約100mのパディング
	padding := 0.001
	bound = bound.Pad(padding)

	minLng := bound.Min.Lon()
	minLat := bound.Min.Lat()
	maxLng := bound.Max.Lon()
	maxLat := bound.Max.Lat()

	coordinates := [][][]float64{
		{
			{minLng, minLat},
			{maxLng, minLat},
			{maxLng, maxLat},
			{minLng, maxLat},
			{minLng, minLat},
		},
	}

	return &model.GeoPolygon{
		Type:        "Polygon",
		Coordinates: coordinates,
	}
}

// TerritoryDB Territory を DB 保存用の構造体に変換
type TerritoryDB struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Polygon     string            `json:"polygon"` // WKT（閉じたリング、経度→緯度の順）
	AreaSqM     float64           `json:"area_sq_m"`
	PointCount  int               `json:"point_count"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Bounds      *model.GeoPolygon `json:"bounds"`
}

// TerritoryToTerritoryDB model.Territory を DB 保存用に変換
func TerritoryToTerritoryDB(territory *model.Territory) (*TerritoryDB, error) {
	polygonWKT, err := PointsToWKT(territory.Points)
	if err != nil {
		return nil, err
	}

	return &TerritoryDB{
		ID:          territory.ID,
		OwnerID:     territory.OwnerID,
		Polygon:     polygonWKT,
		AreaSqM:     territory.AreaSqM,
		PointCount:  territory.PointCount,
		StartedAt:   territory.StartedAt,
		CompletedAt: territory.CompletedAt,
		Bounds:      PointsToBoundsPolygon(territory.Points),
	}, nil
}

// TerritoryDBToTerritory DB保存形式から model.Territory に復元
func TerritoryDBToTerritory(db *TerritoryDB) (*model.Territory, error) {
	points, err := WKTToPoints(db.Polygon)
	if err != nil {
		return nil, fmt.Errorf("領土ポリゴンの復元失敗: %w", err)
	}

	return &model.Territory{
		ID:          db.ID,
		OwnerID:     db.OwnerID,
		Points:      points,
		AreaSqM:     db.AreaSqM,
		PointCount:  db.PointCount,
		StartedAt:   db.StartedAt,
		CompletedAt: db.CompletedAt,
	}, nil
}
