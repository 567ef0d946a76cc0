package hkjc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hkracing-backend/lib/htmlutil"
	"hkracing-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/hkjc")

var (
	// ErrNoData means the page loaded but carries no race content for
	// the key, e.g. a date with no racing. not a failure.
	ErrNoData = errors.New("no race data for key")
	// ErrKeyMismatch means the site silently redirected a stale URL to
	// the nearest valid date/venue. the fetched content belongs to a
	// different key and must never be returned as data for this one.
	ErrKeyMismatch = errors.New("page content does not match requested race key")
)

// FetchMode selects how a page is retrieved.
type FetchMode int

const (
	// FetchStatic is a plain HTTP GET. fast, but useless against
	// client-rendered pages.
	FetchStatic FetchMode = iota
	// FetchRendered drives a headless browser and waits for scripts to
	// populate the page. required for bet.hkjc.com odds pages.
	FetchRendered
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type ClientOptions struct {
	UserAgent string
	// Timeout bounds one fetch including browser startup.
	Timeout time.Duration
	// RenderWait is how long a rendered page gets to settle after
	// navigation before its HTML is read.
	RenderWait time.Duration
}

// Client fetches HKJC pages. it holds no per-race state and is safe
// for sequential reuse across a whole batch.
type Client struct {
	http *resty.Client
	opts ClientOptions
}

// chromeMu serializes headless Chrome so only one instance runs at a
// time.
var chromeMu sync.Mutex

func NewClient(opts ClientOptions) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 45
	}
	if opts.RenderWait == 0 {
		opts.RenderWait = time.Second * 8
	}

	client := resty.New()
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", "zh-HK,zh;q=0.9")
	client.SetTimeout(opts.Timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scrapers/hkjc/http")

	return &Client{http: client, opts: opts}
}

// Fetch retrieves a page and parses it into a document. retry policy
// belongs to the caller; one call makes one attempt.
func (c *Client) Fetch(ctx context.Context, url string, mode FetchMode) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", url),
		attribute.Bool("rendered", mode == FetchRendered),
	)

	telemetry.FetchStarted()
	defer telemetry.FetchFinished()

	var html string
	var err error
	switch mode {
	case FetchRendered:
		html, err = c.fetchRendered(ctx, url)
	default:
		html, err = c.fetchStatic(ctx, url)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "html parse failed")
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

func (c *Client) fetchStatic(ctx context.Context, url string) (string, error) {
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("get %s: unexpected status %d", url, res.StatusCode())
	}
	return res.String(), nil
}

func (c *Client) fetchRendered(ctx context.Context, url string) (string, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(c.opts.UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		// the odds widgets populate over several seconds with no
		// completion signal, so the settle delay is a fixed wait
		chromedp.Sleep(c.opts.RenderWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// race markers that only appear when actual race content rendered
var raceMarkers = []string{"第1場", "第 1 場", "Race 1"}

// VerifyRacePage guards against the site's silent-redirect behavior:
// stale URLs are redirected to the nearest valid date/venue instead of
// erroring, so data for the wrong key would otherwise parse cleanly.
func VerifyRacePage(doc *goquery.Document, key RaceKey) error {
	text := htmlutil.FlattenText(doc.Selection)

	hasMarker := false
	for _, marker := range raceMarkers {
		if strings.Contains(text, marker) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return ErrNoData
	}

	if !containsRaceDate(text, key) {
		return ErrKeyMismatch
	}

	// only check the venue when the page names either course at all:
	// odds pages do, some result layouts don't
	requested := key.Venue.ChineseName()
	other := otherVenue(key.Venue).ChineseName()
	if !strings.Contains(text, requested) && strings.Contains(text, other) {
		return ErrKeyMismatch
	}
	return nil
}

func containsRaceDate(text string, key RaceKey) bool {
	forms := []string{
		key.DateString(),
		key.SlashDateString(),
		key.Date.Format("02/01/2006"),
	}
	for _, f := range forms {
		if strings.Contains(text, f) {
			return true
		}
	}
	return false
}

func otherVenue(v Venue) Venue {
	if v == ShaTin {
		return HappyValley
	}
	return ShaTin
}
