package geolite

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"proxycheck/internal/domain"
)

// Unknown is returned when no country can be resolved.
const Unknown = "N/A"

var ErrNoPath = errors.New("geolite: database path is empty")

// Locator resolves proxy hosts to ISO country codes.
type Locator interface {
	Country(address domain.ProxyAddress) string
	Close() error
}

// CountryLookup wraps a GeoLite2-Country reader.
type CountryLookup struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

func Open(path string) (*CountryLookup, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geolite: open %s: %w", path, err)
	}
	return &CountryLookup{reader: reader}, nil
}

// FromBytes builds a lookup from an in-memory database.
func FromBytes(data []byte) (*CountryLookup, error) {
	reader, err := geoip2.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("geolite: load database: %w", err)
	}
	return &CountryLookup{reader: reader}, nil
}

func (lookup *CountryLookup) Country(address domain.ProxyAddress) string {
	if lookup == nil {
		return Unknown
	}

	ip := net.ParseIP(address.Host())
	if ip == nil {
		return Unknown
	}

	lookup.mu.RLock()
	defer lookup.mu.RUnlock()
	if lookup.reader == nil {
		return Unknown
	}

	record, err := lookup.reader.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return Unknown
	}
	return record.Country.IsoCode
}

func (lookup *CountryLookup) Close() error {
	if lookup == nil {
		return nil
	}

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	if lookup.reader == nil {
		return nil
	}
	err := lookup.reader.Close()
	lookup.reader = nil
	return err
}

// Noop is a Locator that never resolves anything.
type Noop struct{}

func (Noop) Country(domain.ProxyAddress) string { return Unknown }
func (Noop) Close() error                       { return nil }
