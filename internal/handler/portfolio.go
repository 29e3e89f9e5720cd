package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coinwatch/coinwatch/internal/auth"
	"github.com/coinwatch/coinwatch/internal/handler/dto"
	"github.com/coinwatch/coinwatch/internal/marketdata"
	"github.com/coinwatch/coinwatch/internal/model"
	"github.com/coinwatch/coinwatch/internal/service"
)

// PortfolioHandler handles HTTP requests for quotes and the watch list.
type PortfolioHandler struct {
	svc    *service.PortfolioService
	logger *slog.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(svc *service.PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		svc:    svc,
		logger: logger,
	}
}

// Search handles GET /api/v1/cryptos/search?q=<query>&limit=<n>.
func (h *PortfolioHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	results, err := h.svc.Search(r.Context(), query.Get("q"), limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if results == nil {
		results = []model.QuoteSnapshot{}
	}
	writeJSON(w, http.StatusOK, dto.QuoteListResponse{Data: results})
}

// Listings handles GET /api/v1/cryptos/listings?start=<n>&limit=<n>.
func (h *PortfolioHandler) Listings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start := 0
	if s := query.Get("start"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			start = parsed
		}
	}
	limit := 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	listings, err := h.svc.Listings(r.Context(), start, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if listings == nil {
		listings = []model.QuoteSnapshot{}
	}
	writeJSON(w, http.StatusOK, dto.QuoteListResponse{Data: listings})
}

// ListTracked handles GET /api/v1/cryptos/tracked.
// Returns the authenticated account's watch list joined with live quotes.
func (h *PortfolioHandler) ListTracked(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountIDFromContext(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token")
		return
	}

	tracked, err := h.svc.ListTrackedAssets(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if tracked == nil {
		tracked = []model.TrackedAssetQuote{}
	}
	writeJSON(w, http.StatusOK, dto.TrackedAssetListResponse{Data: tracked})
}

// AddTracked handles POST /api/v1/cryptos/tracked.
// Adding an asset that is already tracked succeeds without creating a
// second entry.
func (h *PortfolioHandler) AddTracked(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountIDFromContext(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token")
		return
	}

	var req dto.TrackAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	created, err := h.svc.AddTrackedAsset(r.Context(), accountID, req.AssetID, req.Symbol, req.Name)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("asset_tracked",
			"account_id", accountID,
			"asset_id", req.AssetID,
		)
	}

	writeJSON(w, status, dto.TrackAssetResponse{
		AssetID: req.AssetID,
		Created: created,
	})
}

// RemoveTracked handles DELETE /api/v1/cryptos/tracked/{assetID}.
func (h *PortfolioHandler) RemoveTracked(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountIDFromContext(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token")
		return
	}

	assetID, err := strconv.ParseInt(chi.URLParam(r, "assetID"), 10, 64)
	if err != nil || assetID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ASSET", "Asset ID must be a positive integer")
		return
	}

	removed, err := h.svc.RemoveTrackedAsset(r.Context(), accountID, assetID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "NOT_TRACKED", "Asset is not on the watch list")
		return
	}

	h.logger.Info("asset_untracked",
		"account_id", accountID,
		"asset_id", assetID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service and upstream errors to HTTP responses.
func (h *PortfolioHandler) handleServiceError(w http.ResponseWriter, err error) {
	var upstream *marketdata.UpstreamError
	var transport *marketdata.TransportError

	switch {
	case errors.Is(err, service.ErrQueryTooShort):
		writeError(w, http.StatusBadRequest, "QUERY_TOO_SHORT", "Search query must be at least 2 characters")
	case errors.Is(err, service.ErrInvalidAsset):
		writeError(w, http.StatusBadRequest, "INVALID_ASSET", "Asset ID, symbol and name are required")
	case errors.As(err, &upstream):
		h.logger.Error("upstream_error",
			"status_code", upstream.StatusCode,
			"error_code", upstream.Code,
			"error", upstream.Message,
		)
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Market data provider returned an error")
	case errors.As(err, &transport):
		h.logger.Error("upstream_unreachable", "error", err)
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Market data provider is unreachable")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
