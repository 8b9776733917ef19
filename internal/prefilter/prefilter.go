// Package prefilter implements the cheap keyword gates run before any
// scoring: the title filter and the stop list. Both are synchronous,
// side-effect free, and case-insensitive.
package prefilter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
)

// Result reports a gate decision. Reason is set only on rejection.
type Result struct {
	Pass   bool
	Reason string
}

func pass() Result                { return Result{Pass: true} }
func reject(reason string) Result { return Result{Pass: false, Reason: reason} }

// EvaluateTitle applies the title keyword gate:
//
//  1. any excluded keyword found in the title rejects immediately;
//  2. a non-empty required list with zero hits rejects;
//  3. otherwise the title passes.
//
// Empty lists are permissive: no required keywords means no requirement,
// no excluded keywords means nothing is excluded.
func EvaluateTitle(title string, pol policy.TitleFilterPolicy) Result {
	lower := strings.ToLower(title)

	for _, kw := range pol.ExcludedKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return reject(fmt.Sprintf("excluded title keyword: %s", kw))
		}
	}

	if len(pol.RequiredKeywords) > 0 {
		found := false
		for _, kw := range pol.RequiredKeywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return reject("no required keyword matched")
		}
	}

	return pass()
}

// EvaluateStopList rejects postings from excluded companies, excluded
// source domains, or whose combined text contains an excluded keyword.
// text is typically title + description.
func EvaluateStopList(companyName, rawURL, text string, stop policy.StopList) Result {
	for _, c := range stop.ExcludedCompanies {
		if c != "" && strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(companyName)) {
			return reject(fmt.Sprintf("excluded company: %s", c))
		}
	}

	if host := hostOf(rawURL); host != "" {
		for _, d := range stop.ExcludedDomains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			if host == d || strings.HasSuffix(host, "."+d) {
				return reject(fmt.Sprintf("excluded domain: %s", d))
			}
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range stop.ExcludedKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return reject(fmt.Sprintf("excluded keyword: %s", kw))
		}
	}

	return pass()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
