// Package imagecache loads node thumbnails in the background and remembers the outcome.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmptyURL is returned when a load is requested for a blank source.
var ErrEmptyURL = errors.New("empty image url")

// Loader fetches and decodes one image.
type Loader func(ctx context.Context, url string) (image.Image, error)

// Cache is safe for concurrent use. Loads are fire-and-forget and never retried.
type Cache struct {
	mu      sync.Mutex
	images  map[string]image.Image
	pending map[string]chan struct{}
	failed  map[string]error

	token   atomic.Uint64
	load    Loader
	timeout time.Duration
	logger  *log.Logger
	notify  func(url string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithLoader replaces the default file/http loader.
func WithLoader(l Loader) Option {
	return func(c *Cache) {
		if l != nil {
			c.load = l
		}
	}
}

// WithLogger routes load failures to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotify registers fn to run after every finished background load.
func WithNotify(fn func(url string)) Option {
	return func(c *Cache) {
		c.notify = fn
	}
}

// WithTimeout bounds each background load.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		images:  map[string]image.Image{},
		pending: map[string]chan struct{}{},
		failed:  map[string]error{},
		load:    DefaultLoader(http.DefaultClient),
		timeout: 15 * time.Second,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the decoded image when ready. A miss starts a background load unless
// one is already running or the url failed before.
func (c *Cache) Get(url string) (image.Image, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, false
	}
	c.mu.Lock()
	if img, ok := c.images[url]; ok {
		c.mu.Unlock()
		return img, true
	}
	_, busy := c.pending[url]
	_, failed := c.failed[url]
	if busy || failed {
		c.mu.Unlock()
		return nil, false
	}
	c.pending[url] = make(chan struct{})
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		_ = c.fetch(ctx, url)
		if c.notify != nil {
			c.notify(url)
		}
	}()
	return nil, false
}

// Load fetches url synchronously and records the outcome like a background load.
// A load already in flight for url is awaited instead of started again.
func (c *Cache) Load(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	c.mu.Lock()
	if _, ok := c.images[url]; ok {
		c.mu.Unlock()
		return nil
	}
	if err, ok := c.failed[url]; ok {
		c.mu.Unlock()
		return err
	}
	if done, ok := c.pending[url]; ok {
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.failed[url]
	}
	c.pending[url] = make(chan struct{})
	c.mu.Unlock()
	return c.fetch(ctx, url)
}

func (c *Cache) fetch(ctx context.Context, url string) error {
	img, err := c.load(ctx, url)
	if err == nil && img == nil {
		err = fmt.Errorf("decode %s: no image", url)
	}

	c.mu.Lock()
	if done, ok := c.pending[url]; ok {
		close(done)
		delete(c.pending, url)
	}
	if err != nil {
		c.failed[url] = err
	} else {
		c.images[url] = img
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("image load failed", "url", url, "err", err)
	}
	c.token.Add(1)
	return err
}

// Token increases after every completed load. Hosts redraw when it changes.
func (c *Cache) Token() uint64 {
	return c.token.Load()
}

// Failed reports whether url is known to be unloadable.
func (c *Cache) Failed(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.failed[strings.TrimSpace(url)]
	return ok
}

// DefaultLoader reads http(s) urls with client and everything else from disk.
func DefaultLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (image.Image, error) {
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			return fetchHTTP(ctx, client, url)
		}
		img, err := gg.LoadImage(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", url, err)
		}
		return img, nil
	}
}

func fetchHTTP(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}
