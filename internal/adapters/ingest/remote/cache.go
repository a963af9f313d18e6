package remote

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/logger"
)

const pruneEvery = 10 * time.Minute

// CachedFetcher keeps the last body of every source on disk and serves it
// instead of the network. With revalidation on, each hit sends a
// conditional GET built from the stored validators first
type CachedFetcher struct {
	dir        string
	http       *HTTPFetcher
	revalidate bool
	maxAge     time.Duration
	maxBytes   int64
	bodyLimit  int64
	nextPrune  atomic.Int64 // unix seconds
}

type CachedOption func(*CachedFetcher)

func WithRevalidate(on bool) CachedOption {
	return func(c *CachedFetcher) { c.revalidate = on }
}

// WithRetention drops bodies older than maxAge and, oldest first, trims
// the directory to maxBytes. Zero disables a limit
func WithRetention(maxAge time.Duration, maxBytes int64) CachedOption {
	return func(c *CachedFetcher) { c.maxAge, c.maxBytes = maxAge, maxBytes }
}

// WithBodyLimit refuses to store a body larger than n bytes. Zero or less
// means DefaultMaxBytes
func WithBodyLimit(n int64) CachedOption {
	return func(c *CachedFetcher) { c.bodyLimit = n }
}

// NewCachedFetcher caches under dir, fetching through base (nil means a
// default client)
func NewCachedFetcher(dir string, base *HTTPFetcher, opts ...CachedOption) *CachedFetcher {
	if base == nil {
		base = &HTTPFetcher{}
	}
	_ = os.MkdirAll(dir, 0o755)
	c := &CachedFetcher{dir: dir, http: base}
	for _, o := range opts {
		o(c)
	}
	if c.bodyLimit <= 0 {
		c.bodyLimit = DefaultMaxBytes
	}
	return c
}

// CacheKey is the file stem for source
func CacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func (c *CachedFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	defer c.maybePrune()
	e := c.entry(source)
	log := logger.C(ctx).With().Str("source", source).Logger()

	if !e.exists() {
		log.Debug().Msg("payload cache miss")
		return c.refresh(ctx, e, source, false)
	}
	if c.revalidate {
		rc, err := c.refresh(ctx, e, source, true)
		if err == nil {
			return rc, nil
		}
		log.Warn().Err(err).Msg("cache revalidation failed, serving local copy")
	}
	log.Debug().Str("path", e.body).Msg("payload cache hit")
	return e.open()
}

// refresh downloads source into e. When conditional, stored validators go
// out with the request and a 304 serves the local body
func (c *CachedFetcher) refresh(ctx context.Context, e entry, source string, conditional bool) (io.ReadCloser, error) {
	meta, _ := e.readMeta()
	var hdr http.Header
	if conditional {
		hdr = meta.validators()
	}
	resp, err := c.http.get(ctx, source, hdr)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotModified {
		_ = resp.Body.Close()
		meta.Source = source
		meta.LastChecked = time.Now().UTC()
		_ = e.writeMeta(meta)
		return e.open()
	}
	return e.store(resp, source, c.bodyLimit)
}

type cacheMeta struct {
	Source       string    `json:"source"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Size         int64     `json:"size,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	LastChecked  time.Time `json:"last_checked"`
}

func (m cacheMeta) validators() http.Header {
	h := http.Header{}
	if m.ETag != "" {
		h.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		h.Set("If-Modified-Since", m.LastModified)
	}
	return h
}

// entry is one cached body plus its json sidecar
type entry struct{ body, meta string }

func (c *CachedFetcher) entry(source string) entry {
	body := filepath.Join(c.dir, CacheKey(source)+".json")
	return entry{body: body, meta: body + ".meta"}
}

func (e entry) exists() bool {
	fi, err := os.Stat(e.body)
	return err == nil && fi.Mode().IsRegular()
}

func (e entry) open() (io.ReadCloser, error) {
	f, err := os.Open(e.body)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "open cached payload")
	}
	return f, nil
}

func (e entry) remove() {
	_ = os.Remove(e.body)
	_ = os.Remove(e.meta)
}

func (e entry) readMeta() (cacheMeta, error) {
	var m cacheMeta
	b, err := os.ReadFile(e.meta)
	if err == nil {
		err = sonic.Unmarshal(b, &m)
	}
	return m, err
}

func (e entry) writeMeta(m cacheMeta) error {
	b, err := sonic.Marshal(m)
	if err != nil {
		return err
	}
	return writeAtomic(e.meta, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

// store streams at most limit bytes of resp into the body file, records its
// validators and returns the stored copy. A longer body leaves the previous
// copy in place
func (e entry) store(resp *http.Response, source string, limit int64) (io.ReadCloser, error) {
	defer func() { _ = resp.Body.Close() }()
	var n int64
	err := writeAtomic(e.body, func(w io.Writer) error {
		var cerr error
		n, cerr = io.Copy(w, io.LimitReader(resp.Body, limit+1))
		if cerr != nil {
			return perr.Wrapf(cerr, perr.ErrorCodeNetwork, "read %s", source)
		}
		if n > limit {
			return perr.WithField(perr.Networkf("payload from %s exceeds %d bytes", source, limit), "max_bytes")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_ = e.writeMeta(cacheMeta{
		Source:       source,
		ETag:         strings.TrimSpace(resp.Header.Get("ETag")),
		LastModified: strings.TrimSpace(resp.Header.Get("Last-Modified")),
		Size:         n,
		FetchedAt:    now,
		LastChecked:  now,
	})
	return e.open()
}

// writeAtomic fills path through a uniquely named temp file in the same
// directory and renames it into place, so concurrent writers never share one
func writeAtomic(path string, fill func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "create cache file")
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if err := fill(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "close cache file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "commit cache file")
	}
	return nil
}

func (c *CachedFetcher) maybePrune() {
	if c.maxAge <= 0 && c.maxBytes <= 0 {
		return
	}
	now := time.Now()
	due := c.nextPrune.Load()
	if now.Unix() < due || !c.nextPrune.CompareAndSwap(due, now.Add(pruneEvery).Unix()) {
		return
	}
	_ = c.prune(now)
}

// prune applies retention to every cached body in the directory
func (c *CachedFetcher) prune(now time.Time) error {
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	type kept struct {
		e    entry
		size int64
		mod  time.Time
	}
	var (
		live  []kept
		total int64
	)
	for _, d := range dirents {
		if !strings.HasSuffix(d.Name(), ".json") {
			continue
		}
		fi, err := d.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		body := filepath.Join(c.dir, d.Name())
		e := entry{body: body, meta: body + ".meta"}
		if c.maxAge > 0 && now.Sub(fi.ModTime()) > c.maxAge {
			e.remove()
			continue
		}
		live = append(live, kept{e, fi.Size(), fi.ModTime()})
		total += fi.Size()
	}
	if c.maxBytes <= 0 {
		return nil
	}
	slices.SortFunc(live, func(a, b kept) int { return cmp.Compare(a.mod.UnixNano(), b.mod.UnixNano()) })
	for _, k := range live {
		if total <= c.maxBytes {
			break
		}
		k.e.remove()
		total -= k.size
	}
	return nil
}
