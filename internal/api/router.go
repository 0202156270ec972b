// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"geocontacts/internal/contact"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
	appmw "geocontacts/internal/middleware"
)

// Options：路由依赖与开关
type Options struct {
	Base         string
	Directory    Directory
	Sink         contact.Sink
	Locator      Locator
	IngestToken  string
	CorsOrigins  []string
	RateLimited  bool
	RateLimitQPS int
	Now          func() time.Time
}

// 文档注释：构建路由
// 背景：通用中间件（请求 ID、真实 IP、恢复、访问日志、CORS、限流）统一挂在根上；业务路由挂在 Base 前缀下。
func NewRouter(o Options) http.Handler {
	if o.Now == nil {
		o.Now = time.Now
	}
	base := "/" + strings.Trim(o.Base, "/")
	if base == "/" {
		base = ""
	}
	h := &handler{dir: o.Directory, sink: o.Sink, locator: o.Locator, ingestToken: o.IngestToken, now: o.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logger.AccessMiddleware(logger.L()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appmw.RateLimit(o.RateLimited, o.RateLimitQPS))

	routes := func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/contacts", h.listContacts)
		r.Get("/contacts/{upn}", h.getContact)
		r.Get("/nearby", h.nearby)
		r.Post("/locations", h.postLocation)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	if base == "" {
		routes(r)
	} else {
		r.Route(base, routes)
	}
	return r
}
