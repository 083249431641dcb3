package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndexSearch(t *testing.T) {
	idx := NewVectorIndex(zerolog.Nop())
	idx.AddText("vacation.md", "Employees get 25 vacation days per year.\n\nVacation requests go through the HR portal.")
	idx.AddText("expenses.md", "Travel expenses are reimbursed within 30 days.")

	matches := idx.Search("How many vacation days do employees get?", 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "vacation.md", matches[0].Source)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}

	assert.Nil(t, idx.Search("vacation", 0))
	assert.Len(t, idx.Search("days", 1), 1)
}

func TestVectorIndexLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.txt"), []byte("Remote work is allowed on Fridays."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{1, 2, 3}, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	idx := NewVectorIndex(zerolog.Nop())
	require.NoError(t, idx.LoadDir(dir))
	assert.Equal(t, 1, idx.Len())

	matches := idx.Search("remote work", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "policy.txt", matches[0].Source)
}

func TestVectorIndexMissingDir(t *testing.T) {
	idx := NewVectorIndex(zerolog.Nop())
	require.NoError(t, idx.LoadDir(filepath.Join(t.TempDir(), "missing")))
	assert.Equal(t, 0, idx.Len())
}

func TestSplitPassages(t *testing.T) {
	text := strings.Repeat("a", 30) + "\r\n\r\n" + strings.Repeat("b", 30) + "\n\n\n\n" + strings.Repeat("c", 10)
	passages := splitPassages(text, 50)
	require.Len(t, passages, 2)
	assert.Equal(t, strings.Repeat("a", 30), passages[0])
	assert.Equal(t, strings.Repeat("b", 30)+"\n\n"+strings.Repeat("c", 10), passages[1])
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokens("Hello, WORLD! 42"))
}
