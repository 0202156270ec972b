package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/geoip"
	"geocontacts/internal/logger"
)

// Directory：联系人目录的读取面
type Directory interface {
	AllContacts(ctx context.Context, forceRefresh bool) ([]contact.Contact, error)
	Contact(ctx context.Context, upn string) (contact.Contact, error)
	Nearby(ctx context.Context, p geo.Point) ([]contact.Group, error)
}

// Locator：按 IP 粗定位
type Locator interface {
	Locate(ip string) (geoip.Location, error)
}

const maxLocationBody = 64 << 10

type handler struct {
	dir         Directory
	sink        contact.Sink
	locator     Locator
	ingestToken string
	now         func() time.Time
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listContacts(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	list, err := h.dir.AllContacts(r.Context(), force)
	if err != nil {
		respondWithError(w, statusFor(err), "failed to load contacts", err)
		return
	}
	if list == nil {
		list = []contact.Contact{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *handler) getContact(w http.ResponseWriter, r *http.Request) {
	upn := chi.URLParam(r, "upn")
	if upn == "" {
		respondWithError(w, http.StatusBadRequest, "missing user principal name", nil)
		return
	}
	c, err := h.dir.Contact(r.Context(), upn)
	if errors.Is(err, contact.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "contact not found", nil)
		return
	}
	if err != nil {
		respondWithError(w, statusFor(err), "failed to load contact", err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// 文档注释：附近联系人
// 参数：lat/lon 同时给出时直接使用；都缺省时按客户端 IP 粗定位（需加载 GeoLite2 库），否则 400。
func (h *handler) nearby(w http.ResponseWriter, r *http.Request) {
	p, err := h.queryPoint(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	groups, err := h.dir.Nearby(r.Context(), p)
	if err != nil {
		respondWithError(w, statusFor(err), "failed to resolve nearby contacts", err)
		return
	}
	if groups == nil {
		groups = []contact.Group{}
	}
	respondWithJSON(w, http.StatusOK, groups)
}

func (h *handler) queryPoint(r *http.Request) (geo.Point, error) {
	q := r.URL.Query()
	latS, lonS := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if latS == "" && lonS == "" {
		if h.locator == nil {
			return geo.Point{}, errors.New("lat and lon are required")
		}
		loc, err := h.locator.Locate(clientIP(r))
		if err != nil {
			logger.L().Debug("nearby_ip_locate_miss", "ip", clientIP(r), "err", err)
			return geo.Point{}, errors.New("lat and lon are required")
		}
		return loc.Point, nil
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil {
		return geo.Point{}, errors.New("lat and lon must be numbers")
	}
	p := geo.NewPoint(lon, lat)
	if !p.Valid() {
		return geo.Point{}, errors.New("lat/lon out of range")
	}
	return p, nil
}

// 文档注释：接收签到
// 约束：配置了 ingest token 时要求 Bearer 头匹配；身份必须已在目录中，否则 422；缺少 ID 或时间戳时由服务端补齐。
func (h *handler) postLocation(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondWithError(w, http.StatusUnauthorized, "invalid ingest token", nil)
		return
	}
	var u contact.LocationUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLocationBody))
	if err := dec.Decode(&u); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid location payload", err)
		return
	}
	if strings.TrimSpace(u.UserPrincipalName) == "" {
		respondWithError(w, http.StatusBadRequest, "UserPrincipalName is required", nil)
		return
	}
	if !u.Position.Valid() {
		respondWithError(w, http.StatusBadRequest, "Position out of range", nil)
		return
	}
	if _, err := h.dir.Contact(r.Context(), u.UserPrincipalName); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			respondWithError(w, http.StatusUnprocessableEntity, "unknown UserPrincipalName", nil)
			return
		}
		respondWithError(w, statusFor(err), "failed to verify contact", err)
		return
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.InsertTime.IsZero() {
		u.InsertTime = h.now()
	}
	u.InsertTime = u.InsertTime.UTC()
	if err := h.sink.InsertLocation(r.Context(), u); err != nil {
		respondWithError(w, statusFor(err), "failed to store location", err)
		return
	}
	logger.L().Info("location_ingested", "id", u.ID, "upn", u.UserPrincipalName)
	respondWithJSON(w, http.StatusCreated, u)
}

func (h *handler) authorized(r *http.Request) bool {
	if h.ingestToken == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(h.ingestToken)) == 1
}
