package geoip

import (
	"errors"
	"net"
	"testing"
)

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}

func TestNewResolverWithoutPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("got %v, %v want nil, nil", r, err)
	}
}

func TestCountryCodeCachesLookups(t *testing.T) {
	calls := 0
	closer := &closeCounter{}
	r := newResolver(func(ip net.IP) (string, error) {
		calls++
		if ip.Equal(net.ParseIP("203.0.113.7")) {
			return "id", nil
		}
		return "", nil
	}, closer)

	for i := 0; i < 3; i++ {
		code, err := r.CountryCode("203.0.113.7")
		if err != nil || code != "ID" {
			t.Fatalf("got %q, %v want ID", code, err)
		}
	}
	if calls != 1 {
		t.Fatalf("got %d lookups want 1", calls)
	}

	code, err := r.CountryCode("198.51.100.1")
	if err != nil || code != "" {
		t.Fatalf("got %q, %v want empty", code, err)
	}

	if err := r.Close(); err != nil || closer.n != 1 {
		t.Fatalf("close: %v, %d calls", err, closer.n)
	}
}

func TestCountryCodeErrors(t *testing.T) {
	var nilResolver *Resolver
	if _, err := nilResolver.CountryCode("203.0.113.7"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v want ErrUnavailable", err)
	}

	boom := errors.New("corrupt db")
	r := newResolver(func(net.IP) (string, error) { return "", boom }, nil)
	if _, err := r.CountryCode("not-an-ip"); err == nil {
		t.Fatalf("expected invalid ip error")
	}
	if _, err := r.CountryCode("203.0.113.7"); !errors.Is(err, boom) {
		t.Fatalf("got %v want wrapped lookup error", err)
	}
}
