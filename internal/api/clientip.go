package api

import (
	"net"
	"net/http"
	"strings"
)

// 文档注释：获取客户端 IP（用于 IP 粗定位兜底）
// 背景：多层代理环境下，优先常见反向代理头，最后回退远端地址。
// 约束：头部存在伪造风险，只用于粗定位，不参与鉴权。
func clientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\"[]")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
