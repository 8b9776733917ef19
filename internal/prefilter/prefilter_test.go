package prefilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
	"github.com/Jdubz/job-finder-worker-sub014/internal/prefilter"
)

func TestEvaluateTitle_ExcludedBeatsRequired(t *testing.T) {
	pol := policy.TitleFilterPolicy{
		RequiredKeywords: []string{"engineer"},
		ExcludedKeywords: []string{"intern"},
	}

	// Title matches a required keyword AND an excluded one — exclusion wins.
	res := prefilter.EvaluateTitle("Senior Intern Engineer", pol)
	assert.False(t, res.Pass)
	assert.Equal(t, "excluded title keyword: intern", res.Reason)
}

func TestEvaluateTitle_CaseInsensitive(t *testing.T) {
	pol := policy.TitleFilterPolicy{ExcludedKeywords: []string{"INTERN"}}
	res := prefilter.EvaluateTitle("engineering intern", pol)
	assert.False(t, res.Pass)
}

func TestEvaluateTitle_RequiredNoneMatched(t *testing.T) {
	pol := policy.TitleFilterPolicy{RequiredKeywords: []string{"engineer", "developer"}}
	res := prefilter.EvaluateTitle("Product Manager", pol)
	assert.False(t, res.Pass)
	assert.Equal(t, "no required keyword matched", res.Reason)
}

func TestEvaluateTitle_RequiredAnyMatches(t *testing.T) {
	pol := policy.TitleFilterPolicy{RequiredKeywords: []string{"engineer", "developer"}}
	res := prefilter.EvaluateTitle("Backend Developer", pol)
	assert.True(t, res.Pass)
}

// Empty lists are permissive in both directions.
func TestEvaluateTitle_EmptyPolicyPassesEverything(t *testing.T) {
	res := prefilter.EvaluateTitle("Anything At All", policy.TitleFilterPolicy{})
	assert.True(t, res.Pass)
	assert.Empty(t, res.Reason)
}

func TestEvaluateStopList_ExcludedCompany(t *testing.T) {
	stop := policy.StopList{ExcludedCompanies: []string{"Acme Corp"}}
	res := prefilter.EvaluateStopList("acme corp", "https://jobs.io/1", "title text", stop)
	assert.False(t, res.Pass)
	assert.Equal(t, "excluded company: Acme Corp", res.Reason)
}

func TestEvaluateStopList_ExcludedDomainIncludesSubdomains(t *testing.T) {
	stop := policy.StopList{ExcludedDomains: []string{"spamboard.io"}}

	res := prefilter.EvaluateStopList("Acme", "https://jobs.spamboard.io/p/1", "", stop)
	assert.False(t, res.Pass)

	res = prefilter.EvaluateStopList("Acme", "https://spamboard.io/p/1", "", stop)
	assert.False(t, res.Pass)

	// A domain merely containing the excluded string must not match.
	res = prefilter.EvaluateStopList("Acme", "https://notspamboard.io/p/1", "", stop)
	assert.True(t, res.Pass)
}

func TestEvaluateStopList_ExcludedKeywordInText(t *testing.T) {
	stop := policy.StopList{ExcludedKeywords: []string{"unpaid"}}
	res := prefilter.EvaluateStopList("Acme", "https://jobs.io/1", "Great UNPAID opportunity", stop)
	assert.False(t, res.Pass)
	assert.Equal(t, "excluded keyword: unpaid", res.Reason)
}

func TestEvaluateStopList_EmptyStopListPasses(t *testing.T) {
	res := prefilter.EvaluateStopList("Acme", "https://jobs.io/1", "anything", policy.StopList{})
	assert.True(t, res.Pass)
}
