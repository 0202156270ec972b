// 包 locationpush：签到写入客户端，把当前位置、地址与心情提交到位置接收服务
package locationpush

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
)

// Address：反向地理编码得到的地址片段，任一字段可为空
type Address struct {
	CountryCode string
	AdminArea   string
	Locality    string
}

// Client：签到提交客户端
type Client struct {
	endpoint string
	upn      string
	http     *http.Client
	now      func() time.Time
}

// 文档注释：构造客户端
// 参数：endpoint 为接收服务地址（如 http://host:8080/api/v1/locations）；upn 为提交者身份；
// hc 为空时使用 10s 超时的默认客户端。
func NewClient(endpoint, upn string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, upn: upn, http: hc, now: time.Now}
}

// StatusError：接收服务返回非 2xx
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("location push: unexpected status %d: %s", e.Code, e.Body)
}

// 文档注释：提交一次签到
// 背景：一次请求对应一条 LocationUpdate；地址为 nil 时国家/省/城市为空串，心情缺省为空串。
// 约束：传输失败与非 2xx 状态都会记录日志并原样返回，不重试也不缓冲；响应体在 debug 级别记录。
func (c *Client) Submit(ctx context.Context, pos geo.Point, addr *Address, mood, token string) (contact.LocationUpdate, error) {
	if c.endpoint == "" {
		return contact.LocationUpdate{}, errors.New("location push: endpoint not configured")
	}
	u := contact.LocationUpdate{
		ID:                uuid.NewString(),
		UserPrincipalName: c.upn,
		InsertTime:        c.now().UTC(),
		Position:          pos,
		Mood:              mood,
	}
	if addr != nil {
		u.Country, u.State, u.Town = addr.CountryCode, addr.AdminArea, addr.Locality
	}
	body, err := json.Marshal(u)
	if err != nil {
		return u, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return u, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	t0 := time.Now()
	metrics.PushRequestsTotal.Inc()
	logger.L().Debug("location_push_req", "id", u.ID, "upn", u.UserPrincipalName, "pos", pos.String())
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PushFailuresTotal.Inc()
		logger.L().Error("location_push_http_error", "id", u.ID, "err", err)
		return u, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	dur := time.Since(t0).Milliseconds()
	metrics.PushDurationMs.Observe(float64(dur))
	logger.L().Debug("location_push_resp", "id", u.ID, "status", resp.StatusCode, "body", string(respBody), "duration_ms", dur)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.PushFailuresTotal.Inc()
		err := &StatusError{Code: resp.StatusCode, Body: string(respBody)}
		logger.L().Error("location_push_status_error", "id", u.ID, "status", resp.StatusCode)
		return u, err
	}
	return u, nil
}
