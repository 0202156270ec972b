// 包 geoip：基于 GeoLite2 City 库的 IP 粗定位，供附近查询在缺少坐标时兜底
package geoip

import (
	"errors"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
)

var (
	// ErrUnavailable：未配置或未加载数据库
	ErrUnavailable = errors.New("geoip: database not loaded")
	// ErrNoLocation：库中没有该地址的坐标
	ErrNoLocation = errors.New("geoip: no location for address")
)

// Location：一次定位结果
type Location struct {
	Point   geo.Point
	Country string
	City    string
}

// Locator 包装 mmdb 读取器；零值与 nil 均可安全调用，返回 ErrUnavailable
type Locator struct {
	db *geoip2.Reader
}

// 文档注释：打开 GeoLite2 City 数据库
// 约束：path 为空时返回 nil Locator 与 nil 错误，表示功能关闭。
func Open(path string) (*Locator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logger.L().Info("geoip_loaded", "path", path, "type", db.Metadata().DatabaseType)
	return &Locator{db: db}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Locate 解析文本地址并查询坐标
func (l *Locator) Locate(ip string) (Location, error) {
	if l == nil || l.db == nil {
		return Location{}, ErrUnavailable
	}
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return Location{}, errors.New("geoip: invalid address " + ip)
	}
	rec, err := l.db.City(addr)
	if err != nil {
		return Location{}, err
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, ErrNoLocation
	}
	p := geo.NewPoint(rec.Location.Longitude, rec.Location.Latitude)
	if !p.Valid() {
		return Location{}, ErrNoLocation
	}
	return Location{Point: p, Country: rec.Country.IsoCode, City: rec.City.Names["en"]}, nil
}
