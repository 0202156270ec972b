// 包 geo：最小地理坐标模型与球面距离计算
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// EarthRadiusMeters：球面近似下的地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// MetersPerDegree：赤道附近每度经度对应的米数，常用于构造测试坐标
const MetersPerDegree = EarthRadiusMeters * math.Pi / 180

// Point：WGS84 坐标点
// 约束：JSON 形式为 GeoJSON Point，coordinates 顺序为 [lon, lat]
type Point struct {
	Lon float64
	Lat float64
}

// NewPoint 按 (lon, lat) 顺序构造，与 GeoJSON 保持一致
func NewPoint(lon, lat float64) Point { return Point{Lon: lon, Lat: lat} }

// Valid 检查经纬度范围
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string { return fmt.Sprintf("(%.6f,%.6f)", p.Lon, p.Lat) }

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{Type: "Point", Coordinates: []float64{p.Lon, p.Lat}})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var g geoJSONPoint
	if err := json.Unmarshal(b, &g); err != nil {
		return err
	}
	if g.Type != "" && !strings.EqualFold(g.Type, "Point") {
		return fmt.Errorf("geo: unexpected geometry type %q", g.Type)
	}
	if len(g.Coordinates) < 2 {
		return errors.New("geo: point needs two coordinates")
	}
	p.Lon, p.Lat = g.Coordinates[0], g.Coordinates[1]
	return nil
}

// DistanceMeters：球面距离（Haversine），单位米
func DistanceMeters(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

// Within 判断 b 是否位于以 a 为圆心、radius 米为半径的圆内（不含边界）
func Within(a, b Point, radiusMeters float64) bool {
	return DistanceMeters(a, b) < radiusMeters
}
