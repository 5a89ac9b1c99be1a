package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		product string
		want    bool
	}{
		{name: "enabled", input: "torua.readonlyredirect true\n", want: true},
		{name: "key case-insensitive", input: "Torua.ReadOnlyRedirect true\n", want: true},
		{name: "value case-insensitive", input: "torua.readonlyredirect TRUE\n", want: true},
		{name: "value contains true", input: "torua.readonlyredirect istrue\n", want: true},
		{name: "false", input: "torua.readonlyredirect false\n", want: false},
		{name: "yes is not true", input: "torua.readonlyredirect yes\n", want: false},
		{name: "missing value", input: "torua.readonlyredirect\n", want: false},
		{name: "absent", input: "oss.localroot /local\n", want: false},
		{name: "empty stream", input: "", want: false},
		{name: "last wins", input: "torua.readonlyredirect true\ntorua.readonlyredirect false\n", want: false},
		{name: "comment ignored", input: "# torua.readonlyredirect true\n", want: false},
		{name: "other product", input: "torua.readonlyredirect true\n", product: "acme", want: false},
		{name: "custom product", input: "ACME.readonlyredirect true\n", product: "acme", want: true},
		{
			name:  "mixed config",
			input: "all.export /data\n\n   torua.readonlyredirect   true   # operators asked\noss.localroot /local\n",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol, err := Parse(strings.NewReader(tt.input), tt.product)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pol.ReadOnlyRedirectOnly)
		})
	}
}

func TestParseLongLines(t *testing.T) {
	long := "all.export " + strings.Repeat("/very/long/path", 20000) + "\n"
	require.Greater(t, len(long), 256*1024)

	pol, err := Parse(strings.NewReader(long+"torua.readonlyredirect true\n"), "")
	require.NoError(t, err)
	assert.True(t, pol.ReadOnlyRedirectOnly)

	pol, err = Parse(strings.NewReader("torua.readonlyredirect true "+strings.Repeat("x", 100000)), "")
	require.NoError(t, err)
	assert.True(t, pol.ReadOnlyRedirectOnly, "last line without newline")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestParseReadError(t *testing.T) {
	pol, err := Parse(failingReader{}, "")
	assert.Error(t, err)
	assert.False(t, pol.ReadOnlyRedirectOnly)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redirector.cf")
	require.NoError(t, os.WriteFile(path, []byte("torua.readonlyredirect true\n"), 0o644))

	pol, ok := LoadFile(path, "torua")
	assert.True(t, ok)
	assert.True(t, pol.ReadOnlyRedirectOnly)
}

func TestLoadFileMissingIsSilent(t *testing.T) {
	pol, ok := LoadFile(filepath.Join(t.TempDir(), "nope.cf"), "torua")
	assert.False(t, ok)
	assert.Equal(t, Default(), pol)

	pol, ok = LoadFile("", "torua")
	assert.False(t, ok)
	assert.Equal(t, Default(), pol)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "torua.readonlyredirect", Key(""))
	assert.Equal(t, "siteredir.readonlyredirect", Key("SiteRedir"))
}
