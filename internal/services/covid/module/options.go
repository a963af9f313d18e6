package module

import (
	"time"

	"covidsignal/internal/adapters/ingest/remote"
	"covidsignal/internal/platform/config"
	"covidsignal/internal/platform/store/s3"
	covidhttp "covidsignal/internal/services/covid/http"
)

// Options holds configuration for the covid module
type Options struct {
	Source      string
	HTTPTimeout time.Duration
	MaxBytes    int64

	// disk cache, off when CacheDir is empty
	CacheDir      string
	Revalidate    bool
	CacheMaxAge   time.Duration
	CacheMaxBytes int64

	SnapshotCache int

	// export targets
	BundlePath string
	S3         s3.Config
	S3Prefix   string
}

// FromConfig reads CORE_COVID_*, CORE_API_SNAPSHOT_CACHE and SERVICE_S3_*
func FromConfig(cfg config.Conf) Options {
	cv := cfg.Prefix("CORE_COVID_")
	sc := cfg.Prefix("SERVICE_S3_")
	return Options{
		Source:        cv.MayString("SOURCE_URL", remote.DefaultSource),
		HTTPTimeout:   cv.MayDuration("HTTP_TIMEOUT", 0),
		MaxBytes:      cv.MayInt64("MAX_BYTES", remote.DefaultMaxBytes),
		CacheDir:      cv.MayString("CACHE_DIR", ""),
		Revalidate:    cv.MayBool("REVALIDATE", false),
		CacheMaxAge:   cv.MayDuration("CACHE_MAX_AGE", 0),
		CacheMaxBytes: cv.MayInt64("CACHE_MAX_BYTES", 0),
		SnapshotCache: cfg.Prefix("CORE_API_").MayInt("SNAPSHOT_CACHE", covidhttp.DefaultSnapshotCache),
		BundlePath:    cv.MayString("BUNDLE_PATH", ""),
		S3: s3.Config{
			Endpoint:  sc.MayString("ENDPOINT", ""),
			Region:    sc.MayString("REGION", ""),
			AccessKey: sc.MayString("ACCESS_KEY", ""),
			SecretKey: sc.MayString("SECRET_KEY", ""),
			Bucket:    sc.MayString("BUCKET", ""),
			UseSSL:    sc.MayBool("USE_SSL", false),
		},
		S3Prefix: sc.MayString("PREFIX", "loads"),
	}
}

// S3Enabled reports whether an object store endpoint is configured
func (o Options) S3Enabled() bool { return o.S3.Endpoint != "" }

// NewFetcher routes sources by scheme: http(s) through the optional disk
// cache, s3 through objects when given, file from local disk
func NewFetcher(o Options, objects remote.ObjectOpener) remote.Fetcher {
	base := remote.NewHTTPFetcherWithTimeout(o.HTTPTimeout)
	var web remote.Fetcher = base
	if o.CacheDir != "" {
		web = remote.NewCachedFetcher(o.CacheDir, base,
			remote.WithRevalidate(o.Revalidate),
			remote.WithRetention(o.CacheMaxAge, o.CacheMaxBytes),
			remote.WithBodyLimit(o.MaxBytes),
		)
	}
	return remote.NewRouter().
		Handle(web, "http", "https").
		Handle(&remote.ObjectFetcher{Store: objects}, "s3")
}
