package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

var squarePoints = []model.Location{
	{Latitude: 35.0000, Longitude: 135.0000},
	{Latitude: 35.0010, Longitude: 135.0000},
	{Latitude: 35.0010, Longitude: 135.0010},
	{Latitude: 35.0000, Longitude: 135.0010},
}

func TestPointsToWKT(t *testing.T) {
	t.Run("3点未満はエラー", func(t *testing.T) {
		_, err := PointsToWKT(squarePoints[:2])
		assert.Error(t, err)
	})

	t.Run("経度が先でリングが明示的に閉じている", func(t *testing.T) {
		wktString, err := PointsToWKT(squarePoints)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(wktString, "POLYGON"))

		// 座標は「経度 緯度」の順
		assert.Contains(t, wktString, "135 35")
		// 先頭座標が末尾で繰り返されている
		first := strings.Index(wktString, "135 35")
		last := strings.LastIndex(wktString, "135 35")
		assert.NotEqual(t, first, last, "リングは先頭座標で閉じるはず")
	})
}

func TestWKTRoundTrip(t *testing.T) {
	t.Run("記録した点列がそのまま戻る", func(t *testing.T) {
		wktString, err := PointsToWKT(squarePoints)
		assert.NoError(t, err)

		restored, err := WKTToPoints(wktString)
		assert.NoError(t, err)
		assert.Equal(t, squarePoints, restored, "閉じ座標は取り除かれ、緯度経度が入れ替わらない")
	})

	t.Run("不正なWKTはエラー", func(t *testing.T) {
		_, err := WKTToPoints("POLYGON((oops))")
		assert.Error(t, err)

		_, err = WKTToPoints("POINT(135 35)")
		assert.Error(t, err)
	})
}

func TestPointsToBoundsPolygon(t *testing.T) {
	t.Run("空の点列はnil", func(t *testing.T) {
		assert.Nil(t, PointsToBoundsPolygon(nil))
	})

	t.Run("境界ボックスにパディングが乗る", func(t *testing.T) {
		bounds := PointsToBoundsPolygon(squarePoints)
		assert.NotNil(t, bounds)
		assert.Equal(t, "Polygon", bounds.Type)

		ring := bounds.Coordinates[0]
		assert.Len(t, ring, 5, "閉じた矩形リング")
		assert.Equal(t, ring[0], ring[4])

		minLng, minLat := ring[0][0], ring[0][1]
		maxLng, maxLat := ring[2][0], ring[2][1]
		assert.Less(t, minLng, 135.0000)
		assert.Less(t, minLat, 35.0000)
		assert.Greater(t, maxLng, 135.0010)
		assert.Greater(t, maxLat, 35.0010)
	})
}

func TestTerritoryDBRoundTrip(t *testing.T) {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	territory := &model.Territory{
		ID:          "territory-1",
		OwnerID:     "player-1",
		Points:      squarePoints,
		AreaSqM:     10130.0,
		PointCount:  len(squarePoints),
		StartedAt:   started,
		CompletedAt: started.Add(20 * time.Minute),
	}

	db, err := TerritoryToTerritoryDB(territory)
	assert.NoError(t, err)
	assert.Equal(t, "territory-1", db.ID)
	assert.NotEmpty(t, db.Polygon)
	assert.NotNil(t, db.Bounds)

	restored, err := TerritoryDBToTerritory(db)
	assert.NoError(t, err)
	assert.Equal(t, territory.ID, restored.ID)
	assert.Equal(t, territory.OwnerID, restored.OwnerID)
	assert.Equal(t, territory.Points, restored.Points)
	assert.Equal(t, territory.AreaSqM, restored.AreaSqM)
	assert.Equal(t, territory.PointCount, restored.PointCount)
}

func TestLocationGeoPointConversion(t *testing.T) {
	t.Run("nilはnilのまま", func(t *testing.T) {
		assert.Nil(t, LocationToGeoPoint(nil))
		assert.Nil(t, GeoPointToLocation(nil))
		assert.Nil(t, GeoPointToLocation(&GeoPoint{Type: "Point", Coordinates: []float64{135.0}}))
	})

	t.Run("経度緯度の順で往復できる", func(t *testing.T) {
		loc := &model.Location{Latitude: 35.0041, Longitude: 135.7681}
		geoPoint := LocationToGeoPoint(loc)

		assert.Equal(t, []float64{135.7681, 35.0041}, geoPoint.Coordinates)
		assert.Equal(t, loc, GeoPointToLocation(geoPoint))
	})
}
