// Package urlnorm canonicalises posting URLs into stable dedup keys.
//
// Two URLs that a human would consider "the same posting" modulo tracking
// noise must normalise to the same string, and Normalize is idempotent:
// Normalize(Normalize(u)) == Normalize(u).
package urlnorm

import (
	"net/url"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// trackingParams are removed from the query string by exact, case-insensitive
// key match. Covers the UTM family, click-id family, analytics params, and
// known job-board single-use tokens.
var trackingParams = map[string]struct{}{
	// UTM family
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},

	// Click-id family
	"gclid":     {},
	"fbclid":    {},
	"msclkid":   {},
	"yclid":     {},
	"dclid":     {},
	"twclid":    {},
	"li_fat_id": {},

	// Analytics
	"ref":      {},
	"referrer": {},
	"_hsenc":   {},
	"_hsmi":    {},
	"mc_cid":   {},
	"mc_eid":   {},
	"igshid":   {},

	// Job-board single-use tokens
	"trk":               {},
	"trkinfo":           {},
	"refid":             {},
	"originalsubdomain": {},
	"src":               {},
	"vssid":             {},
}

// Normalize canonicalises a raw posting URL. The step order is fixed; every
// step is required for idempotence:
//
//  1. lowercase scheme and host (never the path)
//  2. strip a single trailing slash, except when the path is exactly "/"
//  3. drop tracking query parameters
//  4. sort remaining query parameters by key
//  5. drop the fragment
//
// Relative or unparseable input returns an error.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errors.Wrapf(err, "parse url %q", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Newf("url %q is not absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.RawQuery = cleanQuery(u.Query())
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// cleanQuery removes tracking keys and re-encodes the rest with keys sorted
// lexicographically so parameter order never affects the dedup key.
func cleanQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if _, tracking := trackingParams[strings.ToLower(k)]; tracking {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
