package shared

import (
	"net/url"
	"strings"
)

// ParseHTTPURL parses an absolute http or https URL with a host
func ParseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, NewDomainError("INVALID_URL", "Must be an absolute http or https URL")
	}
	return u, nil
}
