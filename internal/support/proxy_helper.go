package support

import (
	"strings"

	"proxycheck/internal/domain"
)

// ParseTextToProxies splits text into proxy addresses, one per non-blank
// line. Order and duplicates are preserved.
func ParseTextToProxies(text string) []domain.ProxyAddress {
	lines := strings.Split(clearProxyString(text), "\n")
	proxies := make([]domain.ProxyAddress, 0, len(lines))

	for _, line := range lines {
		if address := NormalizeProxyLine(line); address != "" {
			proxies = append(proxies, domain.ProxyAddress(address))
		}
	}

	return proxies
}

// NormalizeProxyLine trims a raw line and drops any scheme prefix, the scheme
// of a run is chosen by configuration and not per line.
func NormalizeProxyLine(line string) string {
	line = strings.TrimSpace(clearProxyString(line))
	if idx := strings.Index(line, "://"); idx >= 0 {
		line = line[idx+len("://"):]
	}
	return strings.TrimSpace(line)
}

func clearProxyString(proxies string) string {
	proxies = strings.ReplaceAll(proxies, "\r", "")
	proxies = strings.TrimPrefix(proxies, "\ufeff")
	return proxies
}
