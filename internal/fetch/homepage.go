package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dealflow-engine/internal/metrics"
)

// NoHomepageText stands in for a site that could not be read.
const NoHomepageText = "(no homepage text available)"

const maxHomepageBytes = 2 << 20

type HomepageFetcher struct {
	hc       *http.Client
	limiter  *HostLimiter
	ua       string
	maxChars int
}

func NewHomepageFetcher(timeout time.Duration, limiter *HostLimiter, userAgent string, maxChars int) *HomepageFetcher {
	return &HomepageFetcher{
		hc:       &http.Client{Timeout: timeout},
		limiter:  limiter,
		ua:       userAgent,
		maxChars: maxChars,
	}
}

// Text returns the visible homepage text, or NoHomepageText with the error
// that caused it. Callers use the text either way.
func (f *HomepageFetcher) Text(ctx context.Context, website string) (string, error) {
	txt, err := f.fetch(ctx, NormalizeWebsite(website))
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("website", "error").Inc()
		return NoHomepageText, err
	}
	metrics.ProviderRequests.WithLabelValues("website", "ok").Inc()
	if txt == "" {
		return NoHomepageText, nil
	}
	return txt, nil
}

func (f *HomepageFetcher) fetch(ctx context.Context, site string) (string, error) {
	if site == "" {
		return "", fmt.Errorf("homepage: empty website")
	}
	if err := f.limiter.WaitURL(ctx, site); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site, nil)
	if err != nil {
		return "", fmt.Errorf("homepage request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	res, err := f.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("homepage get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("homepage status %d", res.StatusCode)
	}

	return ExtractText(io.LimitReader(res.Body, maxHomepageBytes), f.maxChars)
}

// ExtractText strips script/style blocks from an HTML document and returns
// its whitespace-collapsed text cut to maxChars.
func ExtractText(r io.Reader, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("homepage parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	parts := []string{CleanText(doc.Find("title").First().Text())}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		parts = append(parts, CleanText(desc))
	}
	parts = append(parts, CleanText(doc.Find("body").Text()))

	return Truncate(CleanText(joinNonEmpty(parts)), maxChars), nil
}

func joinNonEmpty(xs []string) string {
	out := ""
	for _, x := range xs {
		if x == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += x
	}
	return out
}
