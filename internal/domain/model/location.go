package model

import "time"

// Location 緯度経度を表す基本的な型（WGS84）
type Location struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// IsValid 緯度経度が有効範囲内かチェック
func (l Location) IsValid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// LocationSample 位置プロバイダーから届く1サンプル
// 生成後は不変として扱う
type LocationSample struct {
	Location  Location  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"` // 水平精度（メートル）
	Speed     float64   `json:"speed"`    // 端末報告の速度（m/s、負値は無効）
}

// LocationSampleRequest APIから受け取る位置サンプル
type LocationSampleRequest struct {
	Latitude  float64   `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64   `json:"longitude" validate:"required,min=-180,max=180"`
	Timestamp time.Time `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"`
	Speed     float64   `json:"speed"`
}

// ToSample リクエストをLocationSampleに変換する。時刻未指定は受信時刻を使う
func (r *LocationSampleRequest) ToSample() *LocationSample {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LocationSample{
		Location:  Location{Latitude: r.Latitude, Longitude: r.Longitude},
		Timestamp: ts,
		Accuracy:  r.Accuracy,
		Speed:     r.Speed,
	}
}

// BoundingBox 座標列を囲む境界ボックス
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Geometry PostGIS GEOMETRY型に対応する構造体
// Coordinates は [longitude, latitude] の順
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// GeoPolygon PostGIS POLYGON 型の GeoJSON 表現
// 各リングの座標は [longitude, latitude] の順で、先頭座標を末尾で繰り返して閉じる
type GeoPolygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// ToGeometry Location を PostGIS GEOMETRY 型に変換
func (l *Location) ToGeometry() *Geometry {
	return &Geometry{
		Type:        "Point",
		Coordinates: []float64{l.Longitude, l.Latitude},
	}
}

// FromGeometry PostGIS GEOMETRY 型から Location に変換
func (l *Location) FromGeometry(g *Geometry) {
	if g != nil && len(g.Coordinates) >= 2 {
		l.Longitude = g.Coordinates[0]
		l.Latitude = g.Coordinates[1]
	}
}
