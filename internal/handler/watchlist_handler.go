package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wealthpath/pricewatch/internal/apperror"
	"github.com/wealthpath/pricewatch/internal/model"
	"github.com/wealthpath/pricewatch/internal/service"
)

type WatchlistHandler struct {
	items   WatchlistServiceInterface
	alerts  AlertServiceInterface
	checker PriceCheckerInterface
	health  HealthReporter
	nextRun NextRunFunc
}

func NewWatchlistHandler(
	items WatchlistServiceInterface,
	alerts AlertServiceInterface,
	checker PriceCheckerInterface,
	health HealthReporter,
	nextRun NextRunFunc,
) *WatchlistHandler {
	if nextRun == nil {
		nextRun = func() time.Time { return time.Time{} }
	}
	return &WatchlistHandler{
		items:   items,
		alerts:  alerts,
		checker: checker,
		health:  health,
		nextRun: nextRun,
	}
}

// Routes mounts the watchlist endpoints. Static paths are registered before {id}.
func (h *WatchlistHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/check-prices", h.CheckPrices)
	r.Get("/alerts/all", h.ListAlerts)
	r.Post("/alerts/mark-read", h.MarkAlertsRead)
	r.Get("/stats/summary", h.Stats)
	r.Get("/scraper-health", h.ScraperHealth)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type ListItemsResponse struct {
	Items []model.WatchlistItemDetail `json:"items"`
	Count int                         `json:"count"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type CheckPricesResponse struct {
	Results []service.CheckOutcome `json:"results"`
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// List godoc
// @Summary List watchlist items
// @Description List the caller's tracked products, newest first, each with its last 30 price points
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=ListItemsResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist [get]
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	items, err := h.items.ListItems(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if items == nil {
		items = []model.WatchlistItemDetail{}
	}

	respondJSON(w, http.StatusOK, ListItemsResponse{Items: items, Count: len(items)})
}

// Create godoc
// @Summary Add a product to the watchlist
// @Description Classify the URL, try one scrape and start tracking the product
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.AddItemInput true "Product URL with optional name and target price"
// @Success 201 {object} SuccessResponse{data=model.WatchlistItem}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist [post]
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input service.AddItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.items.AddItem(r.Context(), userID, input)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// Get godoc
// @Summary Get a watchlist item
// @Description Get one item with 90 price points and its 10 most recent alerts
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path string true "Watchlist item ID"
// @Success 200 {object} SuccessResponse{data=model.WatchlistItemDetail}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /watchlist/{id} [get]
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.items.GetItem(r.Context(), userID, id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// Update godoc
// @Summary Update a watchlist item
// @Description Partially update name, targetPrice, notifyOnDrop, dropThreshold or status. Unknown fields are ignored.
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Watchlist item ID"
// @Param input body object true "Fields to change"
// @Success 200 {object} SuccessResponse{data=model.WatchlistItem}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /watchlist/{id} [patch]
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var patch map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.items.UpdateItem(r.Context(), userID, id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// Delete godoc
// @Summary Remove a watchlist item
// @Description Delete an item together with its price history and alerts
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path string true "Watchlist item ID"
// @Success 200 {object} SuccessResponse{data=DeleteResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /watchlist/{id} [delete]
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.items.RemoveItem(r.Context(), userID, id); err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

// CheckPrices godoc
// @Summary Check prices now
// @Description Re-scrape every watching item of the caller and report one outcome per item
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=CheckPricesResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist/check-prices [post]
func (h *WatchlistHandler) CheckPrices(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	results, err := h.checker.RunCheck(r.Context(), &userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if results == nil {
		results = []service.CheckOutcome{}
	}

	respondJSON(w, http.StatusOK, CheckPricesResponse{Results: results})
}

// ListAlerts godoc
// @Summary List price alerts
// @Description List the caller's alerts newest first
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param unreadOnly query bool false "Only unread alerts"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} SuccessResponse{data=service.AlertPage}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist/alerts/all [get]
func (h *WatchlistHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	q := r.URL.Query()

	input := service.ListAlertsInput{}
	if v, err := strconv.ParseBool(q.Get("unreadOnly")); err == nil {
		input.UnreadOnly = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		input.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		input.Page = v
	}

	page, err := h.alerts.ListAlerts(r.Context(), userID, input)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if page.Alerts == nil {
		page.Alerts = []model.AlertWithItem{}
	}

	respondJSON(w, http.StatusOK, page)
}

// MarkAlertsRead godoc
// @Summary Mark alerts as read
// @Description Mark the given alerts of the caller as read. Ids that are not uuids are ignored.
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body MarkReadRequest true "Alert ids"
// @Success 200 {object} SuccessResponse{data=MarkReadResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist/alerts/mark-read [post]
func (h *WatchlistHandler) MarkAlertsRead(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var body struct {
		IDs json.RawMessage `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids, ok := stringArray(body.IDs)
	if !ok {
		respondAppError(w, r, apperror.ValidationError("ids", "must be an array"))
		return
	}

	updated, err := h.alerts.MarkRead(r.Context(), userID, ids)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, MarkReadResponse{Updated: updated})
}

// Stats godoc
// @Summary Watchlist summary
// @Description Totals across the caller's watchlist including the amount saved
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=model.WatchlistStats}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /watchlist/stats/summary [get]
func (h *WatchlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	stats, err := h.alerts.Stats(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// ScraperHealth godoc
// @Summary Get scraper health status
// @Description Per-platform success rates of the last completed price check run
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=scraper.HealthStatus}
// @Failure 401 {object} ErrorResponse
// @Router /watchlist/scraper-health [get]
func (h *WatchlistHandler) ScraperHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		respondError(w, http.StatusServiceUnavailable, "scraper metrics are not available")
		return
	}
	respondJSON(w, http.StatusOK, h.health.GetHealthStatus(h.nextRun()))
}

// itemID parses the {id} path parameter. A malformed id is reported exactly like a
// missing item.
func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, r, apperror.NotFound("watchlist item"))
		return uuid.Nil, false
	}
	return id, true
}

// stringArray accepts a JSON array and keeps its string elements.
func stringArray(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, true
}
