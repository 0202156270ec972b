// 包 connectivity：网络可达性探测，以及据此决定是否信任缓存的闸门
package connectivity

import (
	"context"
	"net/http"
	"time"

	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
)

// Probe：同步返回当前是否可访问互联网
type Probe interface {
	Online(ctx context.Context) bool
}

// Static：固定结果的探测器，用于禁用探测或测试
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }

// 文档注释：HTTP 探测器
// 背景：对固定地址发起 HEAD 请求，收到任何 HTTP 响应即视为在线（状态码不参与判断）；
// 连接失败或超时视为离线。
type HTTPProbe struct {
	url    string
	client *http.Client
}

func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPProbe{url: url, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logger.L().Debug("connectivity_offline", "url", p.url, "err", err)
		return false
	}
	resp.Body.Close()
	return true
}

// Gate：每次读取前决定是否信任缓存
type Gate struct {
	probe Probe
}

func NewGate(p Probe) *Gate {
	if p == nil {
		p = Static(true)
	}
	return &Gate{probe: p}
}

// 文档注释：缓存信任策略
// 规则：forceRefresh 一律绕过缓存；否则离线时无论是否过期都信任；在线时仅信任未过期的缓存。
// 约束：expired 只在在线且非强制刷新时调用，避免无谓的后端访问。
func (g *Gate) TrustCache(ctx context.Context, forceRefresh bool, expired func(context.Context) bool) bool {
	if forceRefresh {
		return false
	}
	if !g.probe.Online(ctx) {
		metrics.OfflineReadsTotal.Inc()
		return true
	}
	return !expired(ctx)
}
