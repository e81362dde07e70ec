package handler

// admin_fleet.go implements the admin CRUD surface for buses and
// routes. These endpoints sit behind JWTAuth plus RequireRole("ADMIN").

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// AdminHandler bundles repositories for fleet and network management.
type AdminHandler struct {
	BusRepo      *repository.BusRepo
	RouteRepo    *repository.RouteRepo
	ScheduleRepo *repository.ScheduleRepo
	UserRepo     *repository.UserRepo
}

func NewAdminHandler(b *repository.BusRepo, r *repository.RouteRepo, s *repository.ScheduleRepo, u *repository.UserRepo) *AdminHandler {
	if b == nil || r == nil || s == nil || u == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{BusRepo: b, RouteRepo: r, ScheduleRepo: s, UserRepo: u}
}

// ----- buses -----

type busReq struct {
	Number    string   `json:"number"`
	BusType   string   `json:"bus_type"`
	Capacity  uint32   `json:"capacity"`
	Amenities []string `json:"amenities"`
	IsActive  *bool    `json:"is_active"`
}

func (r busReq) validate() string {
	if strings.TrimSpace(r.Number) == "" {
		return "number required"
	}
	if strings.TrimSpace(r.BusType) == "" {
		return "bus_type required"
	}
	if r.Capacity < 1 || r.Capacity > 100 {
		return "capacity must be between 1 and 100"
	}
	return ""
}

func encodeAmenities(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func busJSON(b *repository.Bus) echo.Map {
	return echo.Map{
		"id":        b.ID,
		"number":    b.Number,
		"bus_type":  b.BusType,
		"capacity":  b.Capacity,
		"amenities": decodeAmenities(b.Amenities),
		"is_active": b.IsActive,
	}
}

// CreateBus registers a vehicle in the fleet.
func (h *AdminHandler) CreateBus(c echo.Context) error {
	var req busReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	b := &repository.Bus{
		Number:    strings.TrimSpace(req.Number),
		BusType:   strings.TrimSpace(req.BusType),
		Capacity:  req.Capacity,
		Amenities: encodeAmenities(req.Amenities),
	}
	if err := h.BusRepo.Create(c.Request().Context(), b); err != nil {
		if errors.Is(err, repository.ErrBusNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "bus number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bus failed"})
	}
	return c.JSON(http.StatusCreated, busJSON(b))
}

// ListBuses returns the whole fleet including inactive vehicles.
func (h *AdminHandler) ListBuses(c echo.Context) error {
	buses, err := h.BusRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(buses))
	for _, b := range buses {
		out = append(out, busJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateBus modifies a vehicle. Capacity changes never touch existing
// schedules; they apply to departures created afterwards.
func (h *AdminHandler) UpdateBus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req busReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	b := &repository.Bus{
		ID:        id,
		Number:    strings.TrimSpace(req.Number),
		BusType:   strings.TrimSpace(req.BusType),
		Capacity:  req.Capacity,
		Amenities: encodeAmenities(req.Amenities),
		IsActive:  active,
	}
	if err := h.BusRepo.Update(c.Request().Context(), b); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		case errors.Is(err, repository.ErrBusNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "bus number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update bus failed"})
	}
	return c.JSON(http.StatusOK, busJSON(b))
}

// DeleteBus removes a vehicle with no schedules.
func (h *AdminHandler) DeleteBus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.BusRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBusNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "bus has schedules"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bus failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- routes -----

type routeReq struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DistanceKM  uint32 `json:"distance_km"`
	DurationMin uint32 `json:"duration_min"`
	PriceCents  uint32 `json:"price_cents"`
}

func (r routeReq) validate() string {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return "origin/destination required"
	}
	if strings.EqualFold(strings.TrimSpace(r.Origin), strings.TrimSpace(r.Destination)) {
		return "origin and destination must differ"
	}
	if r.PriceCents == 0 {
		return "price_cents required"
	}
	return ""
}

// CreateRoute adds a connection to the network.
func (h *AdminHandler) CreateRoute(c echo.Context) error {
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rt := &repository.Route{
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		DistanceKM:  req.DistanceKM,
		DurationMin: req.DurationMin,
		PriceCents:  req.PriceCents,
	}
	if err := h.RouteRepo.Create(c.Request().Context(), rt); err != nil {
		if errors.Is(err, repository.ErrRouteExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "route already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create route failed"})
	}
	return c.JSON(http.StatusCreated, rt)
}

// ListRoutes returns all routes for the admin panel.
func (h *AdminHandler) ListRoutes(c echo.Context) error {
	routes, err := h.RouteRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": routes})
}

// UpdateRoute modifies a route. Price changes affect only schedules
// created afterwards; committed reservations keep their totals.
func (h *AdminHandler) UpdateRoute(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rt := &repository.Route{
		ID:          id,
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		DistanceKM:  req.DistanceKM,
		DurationMin: req.DurationMin,
		PriceCents:  req.PriceCents,
	}
	if err := h.RouteRepo.Update(c.Request().Context(), rt); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		case errors.Is(err, repository.ErrNoChange):
			return c.JSON(http.StatusOK, rt)
		case errors.Is(err, repository.ErrRouteExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "route already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update route failed"})
	}
	return c.JSON(http.StatusOK, rt)
}

// DeleteRoute removes a route with no schedules.
func (h *AdminHandler) DeleteRoute(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.RouteRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRouteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "route has schedules"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete route failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers returns all accounts for the admin panel.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.UserRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type item struct {
		ID        uint64 `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Role      string `json:"role"`
		IsActive  bool   `json:"is_active"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]item, 0, len(users))
	for _, u := range users {
		out = append(out, item{
			ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone,
			Role: u.Role, IsActive: u.IsActive,
			CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
