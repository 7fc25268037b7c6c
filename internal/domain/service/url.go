package service

import "net/url"

// hostnameOf returns the hostname component of rawURL, or "" when the
// URL does not parse or carries no host.
func hostnameOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
