// 包 contact：联系人目录的领域模型（联系人、位置更新、分组）与数据源接口
package contact

import (
	"time"

	"geocontacts/internal/geo"
)

// Hometown：联系人声明的常住地，位置相对稳定
type Hometown struct {
	Name     string    `json:"Name,omitempty"`
	Position geo.Point `json:"Position"`
}

// Contact：目录中的一条人员记录
// 约束：PhotoUrl/TwitterHandle 为派生字段，CurrentLocation/Mood 为运行期字段；均不回写上游。
type Contact struct {
	UserPrincipalName string            `json:"UserPrincipalName"`
	Name              string            `json:"Name"`
	Hometown          Hometown          `json:"Hometown"`
	Image             map[string]string `json:"Image"`
	Twitter           string            `json:"Twitter,omitempty"`

	PhotoUrl      string `json:"PhotoUrl,omitempty"`
	TwitterHandle string `json:"TwitterHandle,omitempty"`

	CurrentLocation *geo.Point `json:"CurrentLocation,omitempty"`
	Mood            string     `json:"Mood,omitempty"`
}

// LocationUpdate：一次签到（带时间戳的位置与可选心情）
type LocationUpdate struct {
	ID                string    `json:"id,omitempty"`
	UserPrincipalName string    `json:"UserPrincipalName"`
	InsertTime        time.Time `json:"InsertTime"`
	Position          geo.Point `json:"Position"`
	Mood              string    `json:"Mood,omitempty"`
	Country           string    `json:"Country,omitempty"`
	State             string    `json:"State,omitempty"`
	Town              string    `json:"Town,omitempty"`
}
