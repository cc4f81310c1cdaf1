package service

import (
	"context"
	"errors"
	"fmt"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
	"shortlink/internal/shortcode"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

// Cache is the slice of the link cache the services need. Cache failures
// are never fatal; the store stays authoritative.
type Cache interface {
	GetLink(ctx context.Context, shortCode string) (*domain.LinkEntry, error)
	SetLink(ctx context.Context, shortCode string, entry *domain.LinkEntry) error
	DeleteLink(ctx context.Context, shortCode string) error
}

// CreateLinkParams carries a shorten request into the service layer.
type CreateLinkParams struct {
	URL        string
	Title      string
	Note       string
	CustomCode string
	Domain     string
}

// LinkService implements short-code allocation and the LinkEntry
// lifecycle: create, list, update of non-key fields, cascade delete, plus
// the advisory availability check and statistics.
type LinkService struct {
	linkRepo     repository.LinkRepository
	clickRepo    repository.ClickRepository
	cache        Cache
	generator    *shortcode.Generator
	validDomains map[string]struct{}
	maxAttempts  int
	log          *logger.Logger
}

// NewLinkService wires a LinkService. validDomains is the configured
// allow-list; maxAttempts bounds code generation retries.
func NewLinkService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	cache Cache,
	generator *shortcode.Generator,
	validDomains []string,
	maxAttempts int,
	log *logger.Logger,
) *LinkService {
	domains := make(map[string]struct{}, len(validDomains))
	for _, d := range validDomains {
		domains[d] = struct{}{}
	}
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &LinkService{
		linkRepo:     linkRepo,
		clickRepo:    clickRepo,
		cache:        cache,
		generator:    generator,
		validDomains: domains,
		maxAttempts:  maxAttempts,
		log:          log,
	}
}

// CreateLink validates the request, allocates a short code and persists
// the entry. A caller-supplied custom code fails fast with
// ErrDuplicateCode when taken; generated codes are retried on collision
// up to the attempt budget. Uniqueness is enforced by the insert itself,
// so two concurrent creates of the same (code, domain) pair yield exactly
// one success.
func (s *LinkService) CreateLink(ctx context.Context, params CreateLinkParams) (*domain.LinkEntry, error) {
	if err := validator.ValidateURL(params.URL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if _, ok := s.validDomains[params.Domain]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, params.Domain)
	}
	if params.CustomCode != "" {
		if err := validator.ValidateShortCode(params.CustomCode); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCode, err)
		}
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code := params.CustomCode
		if code == "" {
			generated, err := s.generator.Next()
			if err != nil {
				return nil, fmt.Errorf("failed to generate short code: %w", err)
			}
			code = generated
		}

		entry := &domain.LinkEntry{
			ShortCode:      code,
			Domain:         params.Domain,
			DestinationURL: params.URL,
			Title:          params.Title,
			Note:           params.Note,
		}

		err := s.linkRepo.Create(ctx, entry)
		if err == nil {
			metrics.RecordLinkCreated()
			if cacheErr := s.cache.SetLink(ctx, entry.ShortCode, entry); cacheErr != nil {
				s.log.Warn("failed to cache link", "short_code", entry.ShortCode, "error", cacheErr)
			}
			return entry, nil
		}
		if errors.Is(err, domain.ErrDuplicateCode) && params.CustomCode == "" {
			// Generated collision; draw again.
			continue
		}
		return nil, err
	}

	return nil, domain.ErrGenerationExhausted
}

// IsAvailable reports whether (shortCode, domain) is free. Advisory only:
// the answer can be stale by the time a create lands, which then returns
// ErrDuplicateCode.
func (s *LinkService) IsAvailable(ctx context.Context, shortCode, linkDomain string) (bool, error) {
	exists, err := s.linkRepo.Exists(ctx, shortCode, linkDomain)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GetLink retrieves one entry by id.
func (s *LinkService) GetLink(ctx context.Context, id string) (*domain.LinkEntry, error) {
	return s.linkRepo.GetByID(ctx, id)
}

// ListLinks returns up to limit entries, most recent first.
func (s *LinkService) ListLinks(ctx context.Context, limit int) ([]*domain.LinkEntry, error) {
	return s.linkRepo.List(ctx, limit)
}

// UpdateLink applies a partial update of the mutable fields. The short
// code and domain are not updatable through any path; changing the key is
// modeled as delete + recreate.
func (s *LinkService) UpdateLink(ctx context.Context, id string, update domain.LinkUpdate) (*domain.LinkEntry, error) {
	if update.Empty() {
		return s.linkRepo.GetByID(ctx, id)
	}
	if update.DestinationURL != nil {
		if err := validator.ValidateURL(*update.DestinationURL); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
		}
	}

	entry, err := s.linkRepo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.DeleteLink(ctx, entry.ShortCode); cacheErr != nil {
		s.log.Warn("failed to invalidate cached link", "short_code", entry.ShortCode, "error", cacheErr)
	}

	return entry, nil
}

// DeleteLink removes an entry and all click events referencing its short
// code as one unit of work, then drops it from the cache.
func (s *LinkService) DeleteLink(ctx context.Context, id string) error {
	entry, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.linkRepo.Delete(ctx, id); err != nil {
		return err
	}

	if cacheErr := s.cache.DeleteLink(ctx, entry.ShortCode); cacheErr != nil {
		s.log.Warn("failed to invalidate cached link", "short_code", entry.ShortCode, "error", cacheErr)
	}

	return nil
}

// Summarize aggregates all click events for a short code. A code with no
// events (including one that never existed) reports zeroes.
func (s *LinkService) Summarize(ctx context.Context, shortCode string) (*domain.Statistics, error) {
	return s.clickRepo.Summarize(ctx, shortCode)
}
