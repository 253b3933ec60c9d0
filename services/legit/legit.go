// Package legit looks companies up in the external legitimacy API and
// summarises the findings.
package legit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/cache"
	"golang.org/x/net/html"
)

// MsgInvalidName is returned for names shorter than two characters
const MsgInvalidName = "Please enter a company name."

// Labels by score
const (
	LabelVerified = "Verified"
	LabelCaution  = "Caution"
	LabelHighRisk = "High Risk"
)

// Finding types reported by the upstream API
const (
	FindingRedFlag   = "red_flag"
	FindingGreenFlag = "green_flag"
)

const (
	DefaultCacheTTL = 6 * time.Hour
	cachePrefix     = "legit:"
	maxSnippet      = 500
)

var ErrInvalidName = errors.New("invalid company name")

// UpstreamError is a failure reported by, or while talking to, the lookup API
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// Finding is one piece of evidence about the company
type Finding struct {
	Type    string `json:"type"`
	Keyword string `json:"keyword"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Report is the summarised lookup result
type Report struct {
	Company    string    `json:"company"`
	Score      float64   `json:"score"`
	Label      string    `json:"label"`
	RedFlags   int       `json:"red_flags"`
	GreenFlags int       `json:"green_flags"`
	Findings   []Finding `json:"findings"`
	Cached     bool      `json:"cached"`
}

// Label maps a score to its badge
func Label(score float64) string {
	switch {
	case score >= 80:
		return LabelVerified
	case score >= 60:
		return LabelCaution
	default:
		return LabelHighRisk
	}
}

type upstreamResponse struct {
	Score    *float64  `json:"score"`
	Findings []Finding `json:"findings"`
	Error    string    `json:"error"`
}

// Client queries the lookup API
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Store
	ttl        time.Duration
	log        *utils.Logger
}

// Config configures a Client
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewClient creates a lookup client; store may be nil to disable caching
func NewClient(cfg Config, store cache.Store, log *utils.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      store,
		ttl:        cfg.CacheTTL,
		log:        log,
	}
}

// Check looks the company up, serving repeated names from the cache
func (c *Client) Check(ctx context.Context, name string) (*Report, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return nil, ErrInvalidName
	}

	key := cachePrefix + strings.ToLower(name)
	if c.cache != nil {
		var cached Report
		if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			c.log.Warn("legit cache read failed", "error", err)
		}
	}

	report, err := c.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, report, c.ttl); err != nil {
			c.log.Warn("legit cache write failed", "error", err)
		}
	}
	return report, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*Report, error) {
	endpoint := c.baseURL + "/check-company?" + url.Values{"name": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("legit lookup failed", "company", name, "error", err)
		return nil, &UpstreamError{Message: "Company lookup is unavailable. Please try again."}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, &UpstreamError{Message: "Company lookup is unavailable. Please try again."}
	}

	var parsed upstreamResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if decodeErr == nil && parsed.Error != "" {
		return nil, &UpstreamError{Message: parsed.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Message: fmt.Sprintf("API request failed with status %d", resp.StatusCode)}
	}
	if decodeErr != nil || parsed.Score == nil {
		c.log.Error("legit lookup returned an unexpected body", "company", name, "status", resp.StatusCode)
		return nil, &UpstreamError{Message: "Company lookup returned an invalid response."}
	}

	return summarise(name, *parsed.Score, parsed.Findings), nil
}

func summarise(name string, score float64, findings []Finding) *Report {
	report := &Report{Company: name, Score: score, Label: Label(score), Findings: make([]Finding, 0, len(findings))}
	for _, f := range findings {
		f.Snippet = PlainText(f.Snippet)
		switch f.Type {
		case FindingRedFlag:
			report.RedFlags++
		case FindingGreenFlag:
			report.GreenFlags++
		}
		report.Findings = append(report.Findings, f)
	}
	return report
}

// PlainText strips markup from an HTML snippet, collapses whitespace and
// caps the length
func PlainText(snippet string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(snippet))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return truncate(strings.Join(strings.Fields(b.String()), " "))
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isRawText(tag string) bool {
	return tag == "script" || tag == "style"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet]) + "…"
}
