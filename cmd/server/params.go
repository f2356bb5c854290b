package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DongSeo/platform/internal/apperr"
)

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(field + " 값이 올바르지 않습니다.")
	}
	return id, nil
}

func urlID(r *http.Request, param string) (int64, error) {
	return parseID(chi.URLParam(r, param), param)
}

// queryID reads a required positive id from the query string.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if strings.TrimSpace(raw) == "" {
		return 0, apperr.Validation(name + " 값이 필요합니다.")
	}
	return parseID(raw, name)
}

// optionalQueryID reads an optional positive id; absent gives nil.
func optionalQueryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *server) companyOrDefault(id *int64) int64 {
	if id != nil {
		return *id
	}
	return s.defaultCompanyID
}
