package chipmask

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"# global registers are ignored",
		"VCAL_HIGH 1000",
		"COL 000",
		"ENABLE 1,0,1",
		"HITBUS 0,0,0",
		"TDAC 7,7,7",
		"COL 001",
		"ENABLE 0,1,1",
		"",
	}, "\n")

	m, err := Parse(strings.NewReader(input), 3, 3)
	require.NoError(t, err)

	want := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}
	for r, row := range want {
		for c, v := range row {
			assert.Equal(t, v, m.At(r, c), "pixel (%d, %d)", r, c)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "enable before col", input: "ENABLE 1,1\n"},
		{name: "too many columns", input: "COL 0\nCOL 1\nCOL 2\n"},
		{name: "too many rows", input: "COL 0\nENABLE 1,1,1\n"},
		{name: "bad value", input: "COL 0\nENABLE 1,x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), 2, 2)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMSIT_RD53_test.txt")
	require.NoError(t, os.WriteFile(path, []byte("COL 000\nENABLE 1,1\n"), 0644))

	m, err := Load(path, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1, 0}, m.Values())

	_, err = Load(filepath.Join(t.TempDir(), "absent.txt"), 2, 2)
	assert.Error(t, err)
}

func TestWriteParseRoundTrip(t *testing.T) {
	m, err := Parse(strings.NewReader("COL 000\nENABLE 1,0\nCOL 001\nENABLE 0,1\nCOL 002\nENABLE 1,1\n"), 2, 3)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Write(&sb, m))
	assert.Equal(t, "COL 000\nENABLE 1,0\nCOL 001\nENABLE 0,1\nCOL 002\nENABLE 1,1\n", sb.String())

	path := filepath.Join(t.TempDir(), "CMSIT_RD53_test.txt")
	require.NoError(t, Save(path, m))
	back, err := Load(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, m.Values(), back.Values())
}
