package helper

import (
	"math"
	"sort"

	"github.com/zjoy95210-blip/EarthLord-sub000/internal/domain/model"
)

const earthRadiusM = 6371000.0

// HaversineDistance は2地点間の大圏距離を計算する（メートル）
func HaversineDistance(p1, p2 model.Location) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lng1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lng2 := p2.Longitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := lng2 - lng1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// PolygonArea は座標列を局所平面に投影し、靴ひも公式で面積を計算する（平方メートル）
// 経度方向は代表緯度のcosでスケーリングする。3点未満は0
func PolygonArea(points []model.Location) float64 {
	if len(points) < 3 {
		return 0
	}

	// 代表緯度（平均）で投影スケールを決める
	var latSum float64
	for _, p := range points {
		latSum += p.Latitude
	}
	refLat := (latSum / float64(len(points))) * math.Pi / 180

	mPerDegLat := earthRadiusM * math.Pi / 180
	mPerDegLng := mPerDegLat * math.Cos(refLat)

	var sum float64
	j := len(points) - 1
	for i := 0; i < len(points); i++ {
		xi := points[i].Longitude * mPerDegLng
		yi := points[i].Latitude * mPerDegLat
		xj := points[j].Longitude * mPerDegLng
		yj := points[j].Latitude * mPerDegLat
		sum += xj*yi - xi*yj
		j = i
	}
	return math.Abs(sum) / 2
}

// PointInPolygon は点がポリゴン内部にあるかをレイキャスティング法で判定する
// 点から経度+∞方向への水平レイと各辺の交差回数の偶奇で決まる
// 境界上の点は交差パリティの自然な振る舞いに任せる
func PointInPolygon(point model.Location, polygon []model.Location) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi := polygon[i]
		pj := polygon[j]
		if (pi.Latitude > point.Latitude) != (pj.Latitude > point.Latitude) {
			crossLng := (pj.Longitude-pi.Longitude)*(point.Latitude-pi.Latitude)/(pj.Latitude-pi.Latitude) + pi.Longitude
			if point.Longitude < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// ccw 3点の向きが反時計回りかどうか
func ccw(a, b, c model.Location) bool {
	return (c.Latitude-a.Latitude)*(b.Longitude-a.Longitude) > (b.Latitude-a.Latitude)*(c.Longitude-a.Longitude)
}

// SegmentsIntersect は線分 p1-p2 と p3-p4 が交差するかを向き判定で返す
// 共線で重なるケースは扱わない
func SegmentsIntersect(p1, p2, p3, p4 model.Location) bool {
	return ccw(p1, p3, p4) != ccw(p2, p3, p4) && ccw(p1, p2, p3) != ccw(p1, p2, p4)
}

// BoundingBoxOf は座標列を囲む境界ボックスを返す
func BoundingBoxOf(points []model.Location) model.BoundingBox {
	if len(points) == 0 {
		return model.BoundingBox{}
	}
	box := model.BoundingBox{
		MinLat: points[0].Latitude,
		MaxLat: points[0].Latitude,
		MinLng: points[0].Longitude,
		MaxLng: points[0].Longitude,
	}
	for _, p := range points[1:] {
		box.MinLat = math.Min(box.MinLat, p.Latitude)
		box.MaxLat = math.Max(box.MaxLat, p.Latitude)
		box.MinLng = math.Min(box.MinLng, p.Longitude)
		box.MaxLng = math.Max(box.MaxLng, p.Longitude)
	}
	return box
}

// SortPOIsByDistance は基準座標からの距離でPOIスライスをソートする
func SortPOIsByDistance(origin model.Location, targets []*model.POI) {
	sort.Slice(targets, func(i, j int) bool {
		distI := HaversineDistance(origin, targets[i].ToLocation())
		distJ := HaversineDistance(origin, targets[j].ToLocation())
		return distI < distJ
	})
}
