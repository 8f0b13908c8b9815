package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/notification"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/repository"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/trading"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// Handler serves the REST surface next to the websocket feed. Identity
// comes from the X-User-ID header; the gateway in front terminates auth.
type Handler struct {
	cache   hub.SnapshotReader
	symbols []string
	notifs  *notification.Service
	trades  *trading.Service
	alerts  *repository.AlertStore
	logger  *zap.Logger
}

func NewHandler(
	cache hub.SnapshotReader,
	symbols []string,
	notifs *notification.Service,
	trades *trading.Service,
	alerts *repository.AlertStore,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cache:   cache,
		symbols: symbols,
		notifs:  notifs,
		trades:  trades,
		alerts:  alerts,
		logger:  logger,
	}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/market-data", h.getMarketData)

	mux.HandleFunc("GET /api/notifications", h.listNotifications)
	mux.HandleFunc("GET /api/notifications/unread-count", h.unreadCount)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.markRead)
	mux.HandleFunc("POST /api/notifications/read-all", h.markAllRead)

	mux.HandleFunc("POST /api/alerts", h.createAlert)
	mux.HandleFunc("GET /api/alerts", h.listAlerts)
	mux.HandleFunc("DELETE /api/alerts/{id}", h.deleteAlert)

	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/portfolio", h.getPortfolio)
	mux.HandleFunc("GET /api/positions", h.getPositions)
	mux.HandleFunc("GET /api/trades", h.getTrades)
}

func (h *Handler) getMarketData(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.cache.GetAll(r.Context(), h.symbols)
	if err != nil {
		h.fail(w, http.StatusServiceUnavailable, "market data unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": quotes})
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	items, err := h.notifs.List(r.Context(), userID, page, pageSize, unreadOnly)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "page": page})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	count, err := h.notifs.UnreadCount(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to count notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	updated, err := h.notifs.MarkAsRead(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to mark notification", err)
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	n, err := h.notifs.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to mark notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (h *Handler) createAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req struct {
		Symbol      string  `json:"symbol"`
		TargetPrice float64 `json:"targetPrice"`
		Condition   string  `json:"condition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	cond := models.AlertCondition(req.Condition)
	if req.Symbol == "" || req.TargetPrice <= 0 || (cond != models.AlertAbove && cond != models.AlertBelow) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "symbol, positive targetPrice and condition above|below required"})
		return
	}

	alert := &models.PriceAlert{
		UserID:      userID,
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		TargetPrice: req.TargetPrice,
		Condition:   cond,
		Active:      true,
	}
	if err := h.alerts.Create(r.Context(), alert); err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to create alert", err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	items, err := h.alerts.ListByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to list alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) deleteAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid alert id"})
		return
	}
	removed, err := h.alerts.Deactivate(r.Context(), uint(id), userID)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed to remove alert", err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "alert not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req trading.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	order, err := h.trades.Execute(r.Context(), userID, req)
	if err != nil {
		h.fail(w, http.StatusBadGateway, "order rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	p, err := h.trades.Portfolio(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusBadGateway, "portfolio unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) getPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	items, err := h.trades.Positions(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusBadGateway, "positions unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) getTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identify(w, r)
	if !ok {
		return
	}
	items, err := h.trades.Trades(r.Context(), userID)
	if err != nil {
		h.fail(w, http.StatusBadGateway, "trades unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing or invalid user identity"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
