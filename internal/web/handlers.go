package web

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/carbot/internal/database"
	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/JonMunkholm/carbot/internal/schema"
)

// maxBodySize bounds JSON request bodies (64KB).
const maxBodySize = 64 << 10

// BrandResponse is returned by GET /api/brands/{brand}.
type BrandResponse struct {
	Brand   string   `json:"brand"`
	Matches []string `json:"matches"`
	Models  []string `json:"models"`
}

// UpdateRequest is the body of PATCH /api/cars.
type UpdateRequest struct {
	URL     string         `json:"url"`
	Changes map[string]any `json:"changes"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Pool     database.Status `json:"pool"`
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.catalog.Brands(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, brands)
}

func (s *Server) handleBrand(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")

	matches, err := s.catalog.BrandsByBrand(r.Context(), brand)
	if err != nil {
		respondError(w, r, err)
		return
	}
	models, err := s.catalog.ModelsByBrand(r.Context(), brand)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, BrandResponse{Brand: brand, Matches: matches, Models: models})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.catalog.Cities(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, cities)
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cars, err := s.catalog.Offers(r.Context(), q.Get("brand"), q.Get("city"), parseIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, cars)
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if strings.TrimSpace(url) == "" {
		respondError(w, r, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}

	car, err := s.catalog.Offer(r.Context(), url)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, car)
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	input, err := textValues(body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	car, err := schema.ParseCar(input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	stored, err := s.catalog.AddCar(r.Context(), car)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, stored)
}

func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, r, fmt.Errorf("%w: url is required", errBadRequest))
		return
	}

	input, err := textValues(req.Changes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	changes, err := schema.ParseChanges(input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.catalog.UpdateCar(r.Context(), req.URL, changes); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok", Pool: s.health.Status()}
	status := http.StatusOK

	if err := s.health.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
	}

	writeJSONStatus(w, status, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	brand, city := q.Get("brand"), q.Get("city")

	brands, err := s.catalog.Brands(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	cars, err := s.catalog.Offers(r.Context(), brand, city, parseIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}

	templ.Handler(indexPage(indexData{
		Brand:  brand,
		City:   city,
		Brands: brands,
		Cars:   cars,
	})).ServeHTTP(w, r)
}

// decodeBody reads a single JSON value from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// textValues flattens scalar JSON values to the text form the schema parsers
// accept. Nested objects and arrays are rejected.
func textValues(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		case json.Number:
			out[k] = v.String()
		case bool:
			out[k] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("%w: %s must be a string, number or boolean", errBadRequest, k)
		}
	}
	return out, nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// retryAfter renders d as whole seconds for the Retry-After header.
func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
