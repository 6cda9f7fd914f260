// Package enrich fetches media linked from a markdown document so it can be
// sent to the reviewer next to the text. Every fetch is best effort.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

var imageLink = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+)(?:\s+"[^"]*")?\)`)

// ExtractURLs returns the markdown image links of doc in order of first
// appearance, without duplicates, capped at max (max <= 0 means none).
func ExtractURLs(doc string, max int) []string {
	if max <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	for _, m := range imageLink.FindAllStringSubmatch(doc, -1) {
		u := m[1]
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		if len(urls) == max {
			break
		}
	}
	return urls
}

// Resource is one fetched item.
type Resource struct {
	URL      string
	MimeType string
	Data     []byte
}

// FailureFunc observes a fetch that was dropped.
type FailureFunc func(url string, err error)

type Fetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	OnFail   FailureFunc
}

func NewFetcher(timeout time.Duration, maxBytes int64, onFail FailureFunc) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{},
		Timeout:  timeout,
		MaxBytes: maxBytes,
		OnFail:   onFail,
	}
}

// FetchAll fetches every url concurrently and waits for all of them. Failed
// or unsupported resources are omitted; the rest keep input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Resource {
	if len(urls) == 0 {
		return nil
	}

	slots := make([]*Resource, len(urls))
	// errgroup without WithContext: one failure must not cancel siblings.
	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			res, err := f.fetch(ctx, u)
			if err != nil {
				if f.OnFail != nil {
					f.OnFail(u, err)
				}
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Resource, 0, len(urls))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Resource, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("resource exceeds %d bytes", f.MaxBytes)
	}

	mime := mediaType(resp.Header.Get("Content-Type"))
	if !supported(mime) {
		mime = mimetype.Detect(data).String()
		mime = mediaType(mime)
	}
	if !supported(mime) {
		return nil, fmt.Errorf("unsupported media type %q", mime)
	}
	return &Resource{URL: url, MimeType: mime, Data: data}, nil
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func supported(mime string) bool {
	return strings.HasPrefix(mime, "image/") || mime == "application/pdf"
}
