package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"shortlink/internal/clickmeta"
	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

// listLimit caps the list endpoint at the most recent entries.
const listLimit = 100

// LinkService is the slice of the link service the handlers depend on.
// An interface here keeps the handlers mockable in tests.
type LinkService interface {
	CreateLink(ctx context.Context, params service.CreateLinkParams) (*domain.LinkEntry, error)
	IsAvailable(ctx context.Context, shortCode, linkDomain string) (bool, error)
	ListLinks(ctx context.Context, limit int) ([]*domain.LinkEntry, error)
	UpdateLink(ctx context.Context, id string, update domain.LinkUpdate) (*domain.LinkEntry, error)
	DeleteLink(ctx context.Context, id string) error
	Summarize(ctx context.Context, shortCode string) (*domain.Statistics, error)
}

// RedirectService resolves short codes and records clicks best-effort.
type RedirectService interface {
	Resolve(ctx context.Context, shortCode string) (*domain.LinkEntry, error)
	RecordClickAsync(ctx context.Context, shortCode, userAgent, ip string)
}

// TitleService fetches a destination page's title.
type TitleService interface {
	FetchTitle(ctx context.Context, url string) (string, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	links     LinkService
	redirects RedirectService
	titles    TitleService
	log       *logger.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(links LinkService, redirects RedirectService, titles TitleService, log *logger.Logger) *Handler {
	return &Handler{
		links:     links,
		redirects: redirects,
		titles:    titles,
		log:       log,
	}
}

// Wire DTOs. Field names follow the public API contract, which predates
// this implementation.

type ShortenRequest struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Note       string `json:"note,omitempty"`
	CustomCode string `json:"customCode,omitempty"`
	Domain     string `json:"domain"`
}

type ShortenResponse struct {
	ID           string `json:"id"`
	ShortCode    string `json:"shortCode"`
	Domain       string `json:"domain"`
	ShortenedURL string `json:"shortenedUrl"`
}

type LinkResponse struct {
	ID           string    `json:"id"`
	OriginalURL  string    `json:"originalUrl"`
	ShortCode    string    `json:"shortCode"`
	Domain       string    `json:"domain"`
	ShortenedURL string    `json:"shortenedUrl"`
	Title        string    `json:"title,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UpdateLinkRequest struct {
	URL   *string `json:"url,omitempty"`
	Title *string `json:"title,omitempty"`
	Note  *string `json:"note,omitempty"`
}

type CheckCodeRequest struct {
	ShortCode string `json:"shortCode"`
	Domain    string `json:"domain"`
}

type CheckCodeResponse struct {
	Available bool `json:"available"`
}

type ValidateURLRequest struct {
	URL string `json:"url"`
}

type ValidateURLResponse struct {
	Valid bool `json:"valid"`
}

type FetchTitleRequest struct {
	URL string `json:"url"`
}

type FetchTitleResponse struct {
	Title string `json:"title"`
}

type ResolveResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

func linkResponse(entry *domain.LinkEntry) LinkResponse {
	return LinkResponse{
		ID:           entry.ID,
		OriginalURL:  entry.DestinationURL,
		ShortCode:    entry.ShortCode,
		Domain:       entry.Domain,
		ShortenedURL: entry.ShortenedURL(),
		Title:        entry.Title,
		Note:         entry.Note,
		CreatedAt:    entry.CreatedAt,
	}
}

// Shorten handles POST /api/v1/shorten.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	entry, err := h.links.CreateLink(r.Context(), service.CreateLinkParams{
		URL:        req.URL,
		Title:      req.Title,
		Note:       req.Note,
		CustomCode: req.CustomCode,
		Domain:     req.Domain,
	})
	if err != nil {
		h.log.WithContext(r.Context()).Warn("shorten failed", "error", err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, ShortenResponse{
		ID:           entry.ID,
		ShortCode:    entry.ShortCode,
		Domain:       entry.Domain,
		ShortenedURL: entry.ShortenedURL(),
	})
}

// Redirect handles GET /{shortCode}: the latency-critical path. Lookup
// failure is the only thing that stops the redirect; the click append is
// queued best-effort before the response is written.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := r.PathValue("shortCode")

	entry, err := h.redirects.Resolve(r.Context(), shortCode)
	if err != nil {
		if domain.IsStorageError(err) {
			h.log.WithContext(r.Context()).Error("redirect lookup failed", "short_code", shortCode, "error", err)
			respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
			return
		}
		respondError(w, http.StatusNotFound, "not_found", "Short URL not found")
		return
	}

	h.redirects.RecordClickAsync(r.Context(), shortCode, r.UserAgent(), clickmeta.ClientIP(r))
	metrics.RecordRedirect()

	http.Redirect(w, r, entry.DestinationURL, http.StatusFound)
}

// Resolve handles GET /api/v1/resolve/{shortCode}: same lookup and click
// recording as Redirect, but returns the destination as JSON for clients
// that follow manually.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	shortCode := r.PathValue("shortCode")

	entry, err := h.redirects.Resolve(r.Context(), shortCode)
	if err != nil {
		if domain.IsStorageError(err) {
			h.log.WithContext(r.Context()).Error("resolve lookup failed", "short_code", shortCode, "error", err)
			respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
			return
		}
		respondError(w, http.StatusNotFound, "not_found", "Short URL not found")
		return
	}

	h.redirects.RecordClickAsync(r.Context(), shortCode, r.UserAgent(), clickmeta.ClientIP(r))

	respondJSON(w, http.StatusOK, ResolveResponse{RedirectURL: entry.DestinationURL})
}

// CheckCode handles POST /api/v1/check-code. The answer is advisory; the
// create is where uniqueness is actually enforced.
func (h *Handler) CheckCode(w http.ResponseWriter, r *http.Request) {
	var req CheckCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	available, err := h.links.IsAvailable(r.Context(), req.ShortCode, req.Domain)
	if err != nil {
		h.log.WithContext(r.Context()).Error("availability check failed", "error", err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckCodeResponse{Available: available})
}

// ValidateURL handles POST /api/v1/validate-url. Validity is syntactic
// only: anything that parses as an absolute URL passes.
func (h *Handler) ValidateURL(w http.ResponseWriter, r *http.Request) {
	var req ValidateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	respondJSON(w, http.StatusOK, ValidateURLResponse{Valid: validator.IsValidURL(req.URL)})
}

// FetchTitle handles POST /api/v1/fetch-title.
func (h *Handler) FetchTitle(w http.ResponseWriter, r *http.Request) {
	var req FetchTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	title, err := h.titles.FetchTitle(r.Context(), req.URL)
	if err != nil {
		h.log.WithContext(r.Context()).Warn("title fetch failed", "url", req.URL, "error", err)
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to fetch title")
		return
	}

	respondJSON(w, http.StatusOK, FetchTitleResponse{Title: title})
}

// ListLinks handles GET /api/v1/links: the most recent 100 entries,
// newest first, with intermediary caching disabled so the listing always
// reflects the latest creates and deletes.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	entries, err := h.links.ListLinks(r.Context(), listLimit)
	if err != nil {
		h.log.WithContext(r.Context()).Error("list links failed", "error", err)
		respondDomainError(w, err)
		return
	}

	out := make([]LinkResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, linkResponse(entry))
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("Surrogate-Control", "no-store")
	respondJSON(w, http.StatusOK, out)
}

// UpdateLink handles PATCH /api/v1/links/{id}: partial update of title,
// note and destination. Short code and domain cannot be changed here.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	entry, err := h.links.UpdateLink(r.Context(), id, domain.LinkUpdate{
		DestinationURL: req.URL,
		Title:          req.Title,
		Note:           req.Note,
	})
	if err != nil {
		h.log.WithContext(r.Context()).Warn("update link failed", "id", id, "error", err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, linkResponse(entry))
}

// DeleteLink handles DELETE /api/v1/links/{id}: removes the entry and
// cascades to its click events.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.links.DeleteLink(r.Context(), id); err != nil {
		h.log.WithContext(r.Context()).Warn("delete link failed", "id", id, "error", err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Link and associated statistics deleted"})
}

// Stats handles GET /api/v1/stats/{shortCode}.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	shortCode := r.PathValue("shortCode")

	stats, err := h.links.Summarize(r.Context(), shortCode)
	if err != nil {
		h.log.WithContext(r.Context()).Error("stats aggregation failed", "short_code", shortCode, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "Failed to fetch statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// HealthCheck handles GET /health/live.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
