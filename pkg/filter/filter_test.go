package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreDisjoint(t *testing.T) {
	seen := make(map[string]string)
	groups := map[string][]string{
		"open_source": OpenSource(),
		"iac":         IaC(),
		"container":   Container(),
	}

	for name, group := range groups {
		for _, typ := range group {
			prev, dup := seen[typ]
			assert.Falsef(t, dup, "type %q appears in both %q and %q", typ, prev, name)
			seen[typ] = name
		}
	}
}

func TestAllCoversEveryPreset(t *testing.T) {
	all := All()
	require.Len(t, all, 30)

	for _, group := range [][]string{OpenSource(), IaC(), Container(), {"sast"}} {
		for _, typ := range group {
			assert.Containsf(t, all, typ, "All() missing %q", typ)
		}
	}
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("npm"))
	assert.True(t, IsAllowed("terraformconfig"))
	assert.True(t, IsAllowed("dockerfile"))
	assert.True(t, IsAllowed("sast"))
	assert.False(t, IsAllowed("cargo"))
	assert.False(t, IsAllowed(""))
	assert.False(t, IsAllowed("NPM")) // normalization is Validate's job
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		raw          []string
		wantValid    []string
		wantRejected []string
	}{
		{
			name:      "all valid",
			raw:       []string{"npm", "maven"},
			wantValid: []string{"npm", "maven"},
		},
		{
			name:      "normalizes case and whitespace",
			raw:       []string{" NPM ", "Maven"},
			wantValid: []string{"npm", "maven"},
		},
		{
			name:         "rejects unknown types",
			raw:          []string{"npm", "cargo", "vendor"},
			wantValid:    []string{"npm"},
			wantRejected: []string{"cargo", "vendor"},
		},
		{
			name: "drops empty entries silently",
			raw:  []string{"", "  "},
		},
		{
			name:         "all rejected",
			raw:          []string{"bogus"},
			wantRejected: []string{"bogus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, rejected := Validate(tt.raw)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantRejected, rejected)
		})
	}
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"npm", "maven"}, ParseList("npm, maven"))
	assert.Equal(t, []string{"npm"}, ParseList("npm,,"))
	assert.Nil(t, ParseList(""))
	assert.Nil(t, ParseList("   "))
}

func TestQueryValue(t *testing.T) {
	assert.Equal(t, "npm,maven,pip", QueryValue([]string{"npm", "maven", "pip"}))
	assert.Equal(t, "", QueryValue(nil))
}

func TestPresetsReturnCopies(t *testing.T) {
	a := OpenSource()
	a[0] = "mutated"
	assert.NotEqual(t, a[0], OpenSource()[0])
}
