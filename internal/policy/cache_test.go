package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
)

// fakeReader counts reads and can be switched into a failing mode.
type fakeReader struct {
	reads int
	fail  bool
	tech  policy.TechnologyPolicy
}

func (f *fakeReader) TitleFilter(context.Context) (policy.TitleFilterPolicy, error) {
	f.reads++
	if f.fail {
		return policy.TitleFilterPolicy{}, errors.New("store down")
	}
	return policy.TitleFilterPolicy{RequiredKeywords: []string{"engineer"}}, nil
}

func (f *fakeReader) Technology(context.Context) (policy.TechnologyPolicy, error) {
	f.reads++
	if f.fail {
		return policy.TechnologyPolicy{}, errors.New("store down")
	}
	return f.tech, nil
}

func (f *fakeReader) StopList(context.Context) (policy.StopList, error) {
	f.reads++
	if f.fail {
		return policy.StopList{}, errors.New("store down")
	}
	return policy.StopList{ExcludedCompanies: []string{"Acme"}}, nil
}

func (f *fakeReader) CandidateProfile(context.Context) (policy.CandidateProfile, error) {
	f.reads++
	if f.fail {
		return policy.CandidateProfile{}, errors.New("store down")
	}
	return policy.CandidateProfile{Skills: []string{"go"}}, nil
}

func TestCached_ServesFromCacheWithinTTL(t *testing.T) {
	src := &fakeReader{tech: policy.DefaultTechnology()}
	c := policy.NewCached(src, time.Minute, zap.NewNop())
	ctx := context.Background()

	first := c.StopList(ctx)
	second := c.StopList(ctx)

	assert.Equal(t, []string{"Acme"}, first.ExcludedCompanies)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.reads, "second read within TTL must hit the cache")
}

func TestCached_FallsBackToDefaultsOnError(t *testing.T) {
	src := &fakeReader{fail: true}
	c := policy.NewCached(src, time.Minute, zap.NewNop())

	tf := c.TitleFilter(context.Background())
	assert.Empty(t, tf.RequiredKeywords, "failed read with empty cache must yield permissive defaults")

	tech := c.Technology(context.Background())
	assert.Equal(t, policy.DefaultTechnology(), tech)
}

func TestCached_ServesStaleOnError(t *testing.T) {
	src := &fakeReader{}
	c := policy.NewCached(src, time.Nanosecond, zap.NewNop())
	ctx := context.Background()

	fresh := c.CandidateProfile(ctx)
	assert.Equal(t, []string{"go"}, fresh.Skills)

	src.fail = true
	time.Sleep(time.Millisecond) // let the entry expire

	stale := c.CandidateProfile(ctx)
	assert.Equal(t, fresh, stale, "stale-but-valid beats defaults when the store is down")
}

func TestTechnologyPolicy_Vocabulary(t *testing.T) {
	p := policy.TechnologyPolicy{
		Required:  []string{"go"},
		Preferred: []string{"postgres"},
		Disliked:  []string{"php"},
		Rejected:  []string{"cobol"},
	}
	assert.ElementsMatch(t, []string{"go", "postgres", "php", "cobol"}, p.Vocabulary())
}
