package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFingerprintIsDeterministic(t *testing.T) {
	content := []byte("%PDF-1.4 hemoglobin 13.5 g/dL")
	a := ComputeFingerprint(content, "Summarize my report")
	b := ComputeFingerprint(content, "Summarize my report")
	require.Equal(t, a, b)
	require.Len(t, string(a), 64)
	require.NotContains(t, string(a), "hemoglobin")
}

func TestComputeFingerprintEquivalentQueries(t *testing.T) {
	content := []byte("report")
	base := ComputeFingerprint(content, "summarize my report")
	for _, q := range []string{
		"Summarize my report",
		"  SUMMARIZE   my\treport \n",
	} {
		require.Equal(t, base, ComputeFingerprint(content, q), "query %q", q)
	}
	require.NotEqual(t, base, ComputeFingerprint(content, "summarize my reports"))
	require.NotEqual(t, base, ComputeFingerprint([]byte("report2"), "summarize my report"))
}

func TestComputeFingerprintSeparatesContentFromQuery(t *testing.T) {
	require.NotEqual(t,
		ComputeFingerprint([]byte("ab"), "c"),
		ComputeFingerprint([]byte("a"), "bc"),
	)
}

func TestNormalizeQueryCapsLength(t *testing.T) {
	long := strings.Repeat("é", MaxQueryRunes+50)
	got := NormalizeQuery(long)
	require.Equal(t, MaxQueryRunes, len([]rune(got)))

	require.Equal(t,
		ComputeFingerprint(nil, long),
		ComputeFingerprint(nil, long+" extra words past the cap"),
	)
}

func TestKeyIncludesMode(t *testing.T) {
	fp := ComputeFingerprint([]byte("x"), "q")
	require.Equal(t, "analysis:simple:"+string(fp), Key("simple", fp))
	require.NotEqual(t, Key("simple", fp), Key("comprehensive", fp))
}
