package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"geocontacts/internal/contact"
	"geocontacts/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		lvl := logger.L().Debug
		if status >= http.StatusInternalServerError {
			lvl = logger.L().Error
		}
		lvl("api_error", "status", status, "msg", msg, "err", err)
	}
	respondWithJSON(w, status, errorBody{Error: msg})
}

// statusFor：数据源失败映射为 502，其余未知错误为 500
func statusFor(err error) int {
	var te *contact.TransportError
	if errors.As(err, &te) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
