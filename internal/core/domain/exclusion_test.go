package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusion_Matches(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		externalID string
		want       bool
	}{
		{name: "substring", pattern: "awesome", externalID: "owner/awesome-go", want: true},
		{name: "substring miss", pattern: "awesome", externalID: "owner/plain", want: false},
		{name: "case insensitive", pattern: "Awesome", externalID: "owner/AWESOME-list", want: true},
		{name: "suffix", pattern: "*-mirror", externalID: "owner/linux-mirror", want: true},
		{name: "suffix miss", pattern: "*-mirror", externalID: "owner/mirror-tools", want: false},
		{name: "prefix", pattern: "spam/*", externalID: "spam/anything", want: true},
		{name: "prefix miss", pattern: "spam/*", externalID: "owner/spam", want: false},
		{name: "double star substring", pattern: "*tutorial*", externalID: "owner/go-tutorial-code", want: true},
		{name: "empty pattern never matches", pattern: "", externalID: "owner/repo", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Exclusion{Pattern: tt.pattern}
			assert.Equal(t, tt.want, e.Matches(tt.externalID))
		})
	}
}

func TestFirstMatch(t *testing.T) {
	exclusions := []Exclusion{
		{Pattern: "*-mirror", Reason: "mirrors"},
		{Pattern: "awesome", Reason: "lists"},
	}

	match := FirstMatch(exclusions, "owner/awesome-mirror")
	require.NotNil(t, match)
	assert.Equal(t, "mirrors", match.Reason)

	match = FirstMatch(exclusions, "owner/awesome-go")
	require.NotNil(t, match)
	assert.Equal(t, "lists", match.Reason)

	assert.Nil(t, FirstMatch(exclusions, "owner/plain"))
	assert.Nil(t, FirstMatch(nil, "owner/plain"))
}
