package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Resolve(t *testing.T) {
	d, err := NewDirectory(nil)
	require.NoError(t, err)
	assert.Equal(t, 249, d.Len())

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"China", "CHN", true},
		{"china", "CHN", true},
		{"  United   States ", "USA", true},
		{"USA", "USA", true},
		{"de", "DEU", true},
		{"Cote d'Ivoire", "CIV", true},
		{"CÔTE D'IVOIRE", "CIV", true},
		{"Türkiye", "TUR", true},
		{"Turkey", "TUR", true},
		{"Viet Nam", "VNM", true},
		{"Vietnam", "VNM", true},
		{"Korea, Republic of", "KOR", true},
		{"Narnia", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Resolve(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectory_ExtraAliases(t *testing.T) {
	d, err := NewDirectory(map[string]string{"Peoples Rep. of China": "CHN", "Blighty": "United Kingdom"})
	require.NoError(t, err)

	code, ok := d.Resolve("peoples rep. of china")
	assert.True(t, ok)
	assert.Equal(t, "CHN", code)

	code, ok = d.Resolve("Blighty")
	assert.True(t, ok)
	assert.Equal(t, "GBR", code)
}

func TestDirectory_UnknownAliasTarget(t *testing.T) {
	_, err := NewDirectory(map[string]string{"Somewhere": "Atlantis"})
	assert.Error(t, err)
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Rep. of Korea: KOR\nHolland: NLD\n"), 0o644))

	aliases, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Rep. of Korea": "KOR", "Holland": "NLD"}, aliases)

	_, err = LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cote d'ivoire", Normalize("  Côte  d'Ivoire "))
	assert.Equal(t, "reunion", Normalize("RÉUNION"))
}

func TestCachedResolver(t *testing.T) {
	calls := 0
	inner := ResolverFunc(func(name string) (string, bool) {
		calls++
		if name == "Kenya" {
			return "KEN", true
		}
		return "", false
	})

	r, err := NewCachedResolver(inner, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		code, ok := r.Resolve("Kenya")
		assert.True(t, ok)
		assert.Equal(t, "KEN", code)

		_, ok = r.Resolve("Narnia")
		assert.False(t, ok)
	}
	assert.Equal(t, 2, calls)
}
