package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagOrRangeExact(t *testing.T) {
	r, err := TagOrRange("3.13-64")
	require.NoError(t, err)
	assert.True(t, r.SatisfiedBy(PythonCore, "3.13-64"))
	assert.False(t, r.SatisfiedBy(PythonCore, "3.13-32"))
	assert.False(t, r.SatisfiedBy(PythonCore, "3.12-64"))
}

func TestTagOrRangePrefix(t *testing.T) {
	r, err := TagOrRange("3.13")
	require.NoError(t, err)
	assert.True(t, r.SatisfiedBy(PythonCore, "3.13"))
	assert.True(t, r.SatisfiedBy(PythonCore, "3.13.1-64"))
	assert.True(t, r.SatisfiedBy(PythonCore, "3.13.0rc1-32"))
	assert.False(t, r.SatisfiedBy(PythonCore, "3.12-64"))
}

func TestTagOrRangeCompanyScoped(t *testing.T) {
	r, err := TagOrRange(`Contoso\3.13`)
	require.NoError(t, err)
	assert.True(t, r.SatisfiedBy("Contoso", "3.13-64"))
	assert.False(t, r.SatisfiedBy(PythonCore, "3.13-64"))
}

func TestTagOrRangeComparators(t *testing.T) {
	tests := []struct {
		spec      string
		company   string
		tag       string
		satisfied bool
	}{
		{">=3.11", PythonCore, "3.11-64", true},
		{">=3.11", PythonCore, "3.10-64", false},
		{">3.11", PythonCore, "3.11-64", false},
		{">3.11", PythonCore, "3.12-64", true},
		{"<=3.11", PythonCore, "3.11-64", true},
		{"<3.11", PythonCore, "3.11-64", false},
		{">=3.13t", PythonCore, "3.13t-64", true},
		{">=3.13t", PythonCore, "3.13-64", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec+"_"+tt.tag, func(t *testing.T) {
			r, err := TagOrRange(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.satisfied, r.SatisfiedBy(tt.company, tt.tag))
		})
	}
}

func TestTagOrRangeDisjunction(t *testing.T) {
	r, err := TagOrRange("3.11,3.12,>=3.13")
	require.NoError(t, err)
	assert.True(t, r.SatisfiedBy(PythonCore, "3.11-64"))
	assert.True(t, r.SatisfiedBy(PythonCore, "3.12.1-32"))
	assert.True(t, r.SatisfiedBy(PythonCore, "3.14-64"))
	assert.False(t, r.SatisfiedBy(PythonCore, "3.10-64"))
}

func TestInstallMatchesAnyLooseCompany(t *testing.T) {
	r, err := TagOrRange(`Contoso\3.13`)
	require.NoError(t, err)

	assert.False(t, InstallMatchesAny(PythonCore, []string{"3.13-64"}, r, false))
	assert.True(t, InstallMatchesAny(PythonCore, []string{"3.13-64"}, r, true))
}

func TestTagOrRangeEmptyIsError(t *testing.T) {
	_, err := TagOrRange("  ")
	require.Error(t, err)
}
