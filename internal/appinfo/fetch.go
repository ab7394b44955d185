package appinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable marks a metadata source that is missing or unreachable.
var ErrUnavailable = errors.New("appinfo source unavailable")

const defaultFetchTimeout = 30 * time.Second

// Fetcher retrieves raw appinfo VDF over HTTP. It is the fallback source
// when steamcmd is disabled or not installed.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) FetchOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.httpClient.Timeout = timeout
		}
	}
}

// NewFetcher creates an appinfo fetcher for the given base URL.
func NewFetcher(baseURL string, opts ...FetchOption) (*Fetcher, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("appinfo base url required")
	}
	f := &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// AppInfo fetches the raw appinfo VDF document for the given app.
func (f *Fetcher) AppInfo(ctx context.Context, appID uint32) (string, error) {
	query := url.Values{}
	query.Set("appid", strconv.FormatUint(uint64(appID), 10))
	endpoint := f.baseURL + "/api/get_appinfo.php?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build appinfo request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d from %s", ErrUnavailable, resp.StatusCode, f.baseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read appinfo response: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty appinfo response for app %d", ErrUnavailable, appID)
	}
	return string(body), nil
}

// SaveResponse persists a raw metadata response under logDir keyed by app
// ID so parse failures can be inspected after the fact. It returns the
// path written.
func SaveResponse(logDir string, appID uint32, raw string) (string, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory %q: %w", logDir, err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("steam_response_%d.log", appID))
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", fmt.Errorf("write response log %q: %w", path, err)
	}
	return path, nil
}
