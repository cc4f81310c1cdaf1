package service

import (
	"context"
	"time"

	"shortlink/internal/clickmeta"
	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
	"shortlink/pkg/logger"
)

// RedirectService drives the redirect path: resolve a short code, then
// record the click best-effort. Resolution is the only step allowed to
// fail the request; recording failures are logged and swallowed so a
// valid short link always redirects.
type RedirectService struct {
	linkRepo      repository.LinkRepository
	clickRepo     repository.ClickRepository
	cache         Cache
	deriver       *clickmeta.Deriver
	recordTimeout time.Duration
	log           *logger.Logger
}

// NewRedirectService wires a RedirectService. recordTimeout bounds the
// whole metadata-derivation-plus-append step per click.
func NewRedirectService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	cache Cache,
	deriver *clickmeta.Deriver,
	recordTimeout time.Duration,
	log *logger.Logger,
) *RedirectService {
	if recordTimeout <= 0 {
		recordTimeout = 3 * time.Second
	}
	return &RedirectService{
		linkRepo:      linkRepo,
		clickRepo:     clickRepo,
		cache:         cache,
		deriver:       deriver,
		recordTimeout: recordTimeout,
		log:           log,
	}
}

// Resolve looks up a LinkEntry by short code, cache first. Cache errors
// fall through to the store; only the store decides ErrNotFound.
func (s *RedirectService) Resolve(ctx context.Context, shortCode string) (*domain.LinkEntry, error) {
	cached, err := s.cache.GetLink(ctx, shortCode)
	if err != nil {
		s.log.Warn("link cache read failed", "short_code", shortCode, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	entry, err := s.linkRepo.GetByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.SetLink(ctx, shortCode, entry); cacheErr != nil {
		s.log.Warn("failed to cache link", "short_code", shortCode, "error", cacheErr)
	}

	return entry, nil
}

// RecordClick derives metadata and appends one click event. It returns an
// error only on persistence failure; derivation itself cannot fail.
func (s *RedirectService) RecordClick(ctx context.Context, shortCode, userAgent, ip string) error {
	meta := s.deriver.Derive(ctx, userAgent, ip)
	event := domain.NewClickEvent(shortCode, meta)

	if err := s.clickRepo.Create(ctx, event); err != nil {
		metrics.RecordClickRecordFailed()
		return err
	}

	metrics.RecordClickRecorded()
	return nil
}

// RecordClickAsync records off the request goroutine with a bounded
// deadline, detached from the caller's cancellation: the redirect
// response must not wait on geo lookup or the event append, and a client
// that disconnects after the redirect must not abort the write.
func (s *RedirectService) RecordClickAsync(ctx context.Context, shortCode, userAgent, ip string) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	log := s.log.WithContext(ctx)

	go func() {
		defer cancel()
		if err := s.RecordClick(detached, shortCode, userAgent, ip); err != nil {
			log.Error("failed to record click", "short_code", shortCode, "error", err)
		}
	}()
}
