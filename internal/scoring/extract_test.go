package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jdubz/job-finder-worker-sub014/internal/scoring"
)

func TestExtract_WholeWordMatching(t *testing.T) {
	vocab := []string{"go", "java", "react"}

	ex := scoring.Extract("Backend Engineer", "We write Go services. Some Django too.", vocab)
	assert.Equal(t, []string{"go"}, ex.Technologies, "\"go\" must not match inside \"Django\"")

	ex = scoring.Extract("Engineer", "JavaScript heavy frontend", vocab)
	assert.Empty(t, ex.Technologies, "\"java\" must not match inside \"JavaScript\"")
}

func TestExtract_KeepsPolicyCasing(t *testing.T) {
	ex := scoring.Extract("Engineer", "postgres and REDIS experience", []string{"Postgres", "Redis"})
	assert.Equal(t, []string{"Postgres", "Redis"}, ex.Technologies)
}

func TestExtract_DeduplicatesVocabulary(t *testing.T) {
	ex := scoring.Extract("Go Engineer", "Go, go, GO!", []string{"go", "Go"})
	assert.Len(t, ex.Technologies, 1)
}

func TestExtract_Seniority(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Senior Backend Engineer", "senior"},
		{"Sr. Platform Engineer", "senior"},
		{"Staff Engineer", "staff"},
		{"Principal Engineer", "principal"},
		{"Junior Developer", "junior"},
		{"Engineering Intern", "junior"},
		{"Backend Engineer", ""},
	}
	for _, c := range cases {
		ex := scoring.Extract(c.title, "", nil)
		assert.Equal(t, c.want, ex.Seniority, "title %q", c.title)
	}
}

func TestExtract_Remote(t *testing.T) {
	ex := scoring.Extract("Engineer", "This is a fully remote position.", nil)
	assert.True(t, ex.Remote)

	ex = scoring.Extract("Engineer", "On-site in Berlin.", nil)
	assert.False(t, ex.Remote)
}
