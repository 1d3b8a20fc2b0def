// internal/words/words_test.go
package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name:    "json",
			file:    "words.json",
			content: `["Pizza", " Playa ", "pizza", ""]`,
			want:    []string{"Pizza", "Playa"},
		},
		{
			name:    "yaml list",
			file:    "words.yaml",
			content: "- Pizza\n- Playa\n- Guitarra\n",
			want:    []string{"Pizza", "Playa", "Guitarra"},
		},
		{
			name:    "yaml mapping",
			file:    "words.yml",
			content: "words:\n  - Cine\n  - Circo\n  - CINE\n",
			want:    []string{"Cine", "Circo"},
		},
		{
			name:    "text",
			file:    "words.txt",
			content: "# comida\nPizza\n\nHelado # postre\n  Playa\n",
			want:    []string{"Pizza", "Helado", "Playa"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", `{"not": "a list"}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "empty.txt", "# nothing\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadOrFallback(t *testing.T) {
	logger, hook := test.NewNullLogger()

	assert.Equal(t, Fallback, LoadOrFallback("", logger))
	assert.Empty(t, hook.AllEntries())

	assert.Equal(t, Fallback, LoadOrFallback(filepath.Join(t.TempDir(), "nope.json"), logger))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "built-in word list")

	path := writeFile(t, "w.txt", "Robot\nCohete\n")
	assert.Equal(t, []string{"Robot", "Cohete"}, LoadOrFallback(path, logger))
}

func TestFallbackHasNoDuplicates(t *testing.T) {
	assert.Equal(t, Fallback, clean(Fallback))
}
