package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/pkg/validator"
)

// titlePattern matches the first <title> element. Good enough for the
// page-title hint the shorten form pre-fills; this is not an HTML parser.
var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// maxTitleBody caps how much of a page is read looking for the title.
const maxTitleBody = 512 * 1024

// TitleService fetches the <title> of a destination page as a best-effort
// description hint.
type TitleService struct {
	client *http.Client
}

// NewTitleService creates a TitleService. A nil client gets a default
// with a short timeout; title fetching must never hang a caller.
func NewTitleService(client *http.Client) *TitleService {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &TitleService{client: client}
}

// FetchTitle retrieves the page at url and extracts its title. Returns
// ErrInvalidURL for unusable input and a plain error when the page cannot
// be fetched or carries no title.
func (s *TitleService) FetchTitle(ctx context.Context, url string) (string, error) {
	if err := validator.ValidateURL(url); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTitleBody))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	match := titlePattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("page has no title")
	}

	return strings.TrimSpace(string(match[1])), nil
}
