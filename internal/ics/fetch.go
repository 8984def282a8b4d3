package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/task"
)

// maxBodyBytes bounds the size of a fetched calendar.
const maxBodyBytes = 16 << 20

// NewClient returns the HTTP client used for calendar feeds.
func NewClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// IsURL reports whether src names a remote feed rather than a file.
func IsURL(src string) bool {
	lower := strings.ToLower(src)
	for _, scheme := range []string{"http://", "https://", "webcal://"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// Fetch downloads a calendar feed. webcal:// is fetched over https.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("calendar URL is empty")
	}
	if client == nil {
		client = NewClient()
	}
	if strings.HasPrefix(strings.ToLower(url), "webcal://") {
		url = "https://" + url[len("webcal://"):]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching calendar: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	return body, nil
}

// Importer reads a calendar from a file or URL and turns it into events.
type Importer struct {
	Client   *http.Client
	Rules    Rules
	Location *time.Location
	Logger   *slog.Logger
}

// Import loads src and returns the events falling in [from, to].
func (im *Importer) Import(ctx context.Context, src string, from, to dateutil.Date) ([]*task.Event, error) {
	loc := im.Location
	if loc == nil {
		loc = time.Local
	}
	logger := im.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		body []byte
		err  error
	)
	if IsURL(src) {
		body, err = Fetch(ctx, im.Client, src)
	} else {
		body, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("loading calendar: %w", err)
	}

	parsed, err := Parse(body, loc)
	if err != nil {
		return nil, err
	}

	start, err := from.Time(loc)
	if err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	end, err := to.AddDays(1).Time(loc)
	if err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}

	occs, err := Expand(parsed, start, end, loc)
	if err != nil {
		return nil, err
	}
	kept := Filter(occs, im.Rules, from, to, loc)
	events := ToEvents(kept, im.Rules, loc)

	logger.Debug("calendar imported",
		"source", src,
		"parsed", len(parsed),
		"occurrences", len(occs),
		"kept", len(events),
	)
	return events, nil
}
