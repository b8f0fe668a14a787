// Package geoip resolves client countries for the i18n middleware.
package geoip

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	gocache "github.com/patrickmn/go-cache"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

const cacheTTL = time.Hour

// CountryResolver resolves ISO country codes from IP addresses.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
	Close() error
}

// Resolver looks countries up in a MaxMind GeoIP2 database and remembers
// answers per IP for an hour.
type Resolver struct {
	lookup func(net.IP) (string, error)
	closer io.Closer
	cache  *gocache.Cache
}

// NewResolver opens the GeoIP database at path. An empty path returns a nil
// resolver and no error.
func NewResolver(path string) (CountryResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return newResolver(func(ip net.IP) (string, error) {
		record, err := reader.Country(ip)
		if err != nil {
			return "", err
		}
		if record == nil {
			return "", nil
		}
		return record.Country.IsoCode, nil
	}, reader), nil
}

func newResolver(lookup func(net.IP) (string, error), closer io.Closer) *Resolver {
	return &Resolver{
		lookup: lookup,
		closer: closer,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// CountryCode returns the upper-case ISO country code for ip, or "" when the
// database has no country for it.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.lookup == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	key := parsed.String()
	if v, ok := r.cache.Get(key); ok {
		return v.(string), nil
	}
	code, err := r.lookup(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	code = strings.ToUpper(code)
	r.cache.SetDefault(key, code)
	return code, nil
}

// Close releases the database reader.
func (r *Resolver) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	r.cache.Flush()
	return r.closer.Close()
}
