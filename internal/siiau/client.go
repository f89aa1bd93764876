package siiau

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/noah-isme/siiau-planner-api/internal/models"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

const (
	offeringPath = "/wal/sspseca.consulta_oferta"
	formPath     = "/wal/sspseca.forma_consulta"
	majorsPath   = "/wal/sspseca.lista_carreras"

	defaultBaseURL   = "https://siiauescolar.siiau.udg.mx"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxBodyBytes     = 16 << 20

	// offeringPageSize is large enough for the portal to return every section
	// of a major in one page.
	offeringPageSize = "1000"
)

// ClientConfig configures the portal client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// UpstreamObserver receives timing for every portal call.
type UpstreamObserver interface {
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
}

// Client fetches pages from the SIIAU portal and returns them as UTF-8 text.
// Each call is a single attempt bounded by the configured timeout.
type Client struct {
	http     *http.Client
	baseURL  string
	agent    string
	observer UpstreamObserver
	logger   *zap.Logger
}

// NewClient constructs a portal client.
func NewClient(cfg ClientConfig, observer UpstreamObserver, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		agent:    cfg.UserAgent,
		observer: observer,
		logger:   logger,
	}
}

// FetchOfferingPage runs an offering query and returns the results page.
func (c *Client) FetchOfferingPage(ctx context.Context, q models.OfferingQuery) (string, error) {
	form := url.Values{}
	form.Set("ciclop", q.Cycle)
	form.Set("cup", q.Campus)
	form.Set("majrp", q.Major)
	form.Set("crsep", q.Course)
	form.Set("materiap", q.Subject)
	form.Set("horaip", q.StartHour)
	form.Set("horafp", q.EndHour)
	form.Set("edifp", q.Building)
	form.Set("aulap", q.Classroom)
	form.Set("ordenp", "0")
	form.Set("mostrarp", offeringPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+offeringPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build offering request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, "offering")
}

// FetchFormPage returns the query form page listing cycles and campuses.
func (c *Client) FetchFormPage(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+formPath, nil)
	if err != nil {
		return "", fmt.Errorf("build form request: %w", err)
	}
	return c.do(req, "form")
}

// FetchMajorsPage returns the majors table for a campus.
func (c *Client) FetchMajorsPage(ctx context.Context, campus string) (string, error) {
	endpoint := c.baseURL + majorsPath + "?" + url.Values{"cup": {campus}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build majors request: %w", err)
	}
	return c.do(req, "majors")
}

func (c *Client) do(req *http.Request, endpoint string) (string, error) {
	req.Header.Set("User-Agent", c.agent)

	start := time.Now()
	body, err := c.fetch(req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("portal request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", err
	}
	return body, nil
}

func (c *Client) fetch(req *http.Request) (string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to reach portal")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", appErrors.Clone(appErrors.ErrUpstreamUnavailable, fmt.Sprintf("portal responded with status %d", resp.StatusCode))
	}

	// The portal serves Latin-1 regardless of what its headers claim.
	reader := charmap.ISO8859_1.NewDecoder().Reader(io.LimitReader(resp.Body, maxBodyBytes))
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read portal response")
	}
	return string(raw), nil
}
