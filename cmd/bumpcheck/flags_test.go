package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/compare"
	"github.com/pixlab/bumpcheck/internal/frbias"
	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/store"
	"github.com/pixlab/bumpcheck/internal/testutil"
	"github.com/pixlab/bumpcheck/internal/toy"
)

func TestCommonFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "analysis.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"module": "RH0027", "chip": 13, "hybrid": 1, "html_report": true}`), 0644))

	tests := []struct {
		name       string
		args       []string
		wantModule string
		wantChip   int
		wantHybrid int
		wantHTML   bool
	}{
		{
			name:       "defaults",
			args:       nil,
			wantModule: "RH0026",
			wantChip:   12,
			wantHTML:   true,
		},
		{
			name:       "config file",
			args:       []string{"-config", cfgPath},
			wantModule: "RH0027",
			wantChip:   13,
			wantHybrid: 1,
			wantHTML:   true,
		},
		{
			name:       "flags win over config",
			args:       []string{"-config", cfgPath, "-chip", "0", "-module", "RH0030", "-no-html"},
			wantModule: "RH0030",
			wantChip:   0,
			wantHybrid: 1,
			wantHTML:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCommonFlags("test")
			cfg, err := c.parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantModule, cfg.GetModule())
			assert.Equal(t, tt.wantChip, cfg.GetChip())
			assert.Equal(t, tt.wantHybrid, locator(cfg).Hybrid)
			assert.Equal(t, tt.wantHTML, cfg.GetHTMLReport())
		})
	}
}

func TestCommonFlagsErrors(t *testing.T) {
	_, err := newCommonFlags("test").parse([]string{"-config", "missing.json"})
	assert.Error(t, err)

	_, err = newCommonFlags("test").parse([]string{"-no-such-flag"})
	assert.Error(t, err)

	_, err = newCommonFlags("test").parse([]string{"-module", ""})
	assert.EqualError(t, err, "module must not be empty")
}

func TestParseChips(t *testing.T) {
	chips, err := parseChips("12, 13,,15")
	require.NoError(t, err)
	assert.Equal(t, []int{12, 13, 15}, chips)

	_, err = parseChips("12,x")
	assert.Error(t, err)
	_, err = parseChips(" , ")
	assert.Error(t, err)
}

func TestRequired(t *testing.T) {
	c := newCommonFlags("test")
	in := c.fs.String("in", "", "")
	c.fs.String("mask", "", "")
	require.NoError(t, c.fs.Parse([]string{"-in", "a.root"}))
	assert.Equal(t, "a.root", *in)
	assert.NoError(t, required(c.fs, "in"))
	assert.NoError(t, required(c.fs, "in", "out"), "-out has a default")
	assert.EqualError(t, required(c.fs, "in", "mask"), "-mask is required")
	assert.EqualError(t, required(c.fs, "bogus"), "flag -bogus is not defined for test")
}

func TestAnalysisRequiresInputs(t *testing.T) {
	testutil.QuietLogs(t)
	out := t.TempDir()
	assert.EqualError(t, runFRBias([]string{"-out", out}), "-forward is required")
	assert.EqualError(t, runXTalk([]string{"-out", out, "-same", "a"}), "-coupled is required")
	assert.EqualError(t, runXRay([]string{"-out", out}), "-scurve is required")
	assert.EqualError(t, runCompare([]string{"-out", out}), "-xray is required")
}

func TestToyCompareAndCatalogue(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	split := filepath.Join(dir, "split")
	require.NoError(t, runToy([]string{"-out", dir, "-split", split, "-chip", "12"}))
	assert.FileExists(t, filepath.Join(dir, toy.FileName))

	db := filepath.Join(dir, "runs.db")
	out := filepath.Join(dir, "results")
	err := runCompare([]string{
		"-xray", filepath.Join(split, "xrayroot12.root"),
		"-xtalk", filepath.Join(split, "h_missing2dC12.root"),
		"-frbias", filepath.Join(split, "histograms.root"),
		"-out", out,
		"-module", "toy",
		"-no-html",
		"-db", db,
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "toy", "toyC12Comparison.root"))
	assert.FileExists(t, filepath.Join(out, "toy", "histogram_h_xray_xtalk_frbias.png"))

	s, err := store.Open(db)
	require.NoError(t, err)
	runs, err := s.ListRuns("compare", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "toy", runs[0].Module)
	assert.Equal(t, 12, runs[0].Chip)
	pixels, err := s.RunPixels(runs[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pixels)
	require.NoError(t, s.Close())

	assert.NoError(t, runRuns([]string{"list", "-db", db}))
	assert.NoError(t, runRuns([]string{"show", "-db", db, runs[0].ID}))
	assert.NoError(t, runRuns([]string{"delete", "-db", db, runs[0].ID}))
	assert.ErrorIs(t, runRuns([]string{"show", "-db", db, runs[0].ID}), store.ErrRunNotFound)
	assert.Error(t, runRuns([]string{"bogus", "-db", db}))
}

func TestAnalysesShareModuleDirectory(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	loc := histio.ChipLocator(0, 12)
	flagged := testutil.WithPixels(pixmap.New(6, 8), 1, pixmap.Pixel{Row: 2, Col: 3})

	require.NoError(t, runCompare([]string{
		"-xray", testutil.WriteMapFile(t, dir, "x.root", compare.DefaultXRayHist, flagged),
		"-xtalk", testutil.WriteMapFile(t, dir, "t.root", compare.DefaultXTalkHist, flagged),
		"-frbias", testutil.WriteMapFile(t, dir, "f.root", compare.DefaultFRBiasHist, flagged),
		"-out", out, "-module", "M1",
	}))

	fwd := testutil.WriteScanFile(t, dir, "fwd.root", loc, map[string]*pixmap.Map{
		histio.ScanThreshold: testutil.Uniform(6, 8, 1500),
		histio.ScanNoise:     testutil.Uniform(6, 8, 80),
	})
	rev := testutil.WriteScanFile(t, dir, "rev.root", loc, map[string]*pixmap.Map{
		histio.ScanThreshold: testutil.Uniform(6, 8, 1400),
		histio.ScanNoise:     testutil.Uniform(6, 8, 60),
	})
	require.NoError(t, runFRBias([]string{"-forward", fwd, "-reverse", rev, "-out", out, "-module", "M1"}))

	assert.FileExists(t, filepath.Join(out, "M1", compare.ReportFile(12)))
	assert.FileExists(t, filepath.Join(out, "M1", frbias.ReportFile(12)))
}

func TestMigrateCommand(t *testing.T) {
	testutil.QuietLogs(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	require.NoError(t, runMigrate([]string{"-db", db, "up"}))
	require.NoError(t, runMigrate([]string{"-db", db, "down"}))
	require.NoError(t, runMigrate([]string{"-db", db, "force", "2"}))
	require.NoError(t, runMigrate([]string{"-db", db, "status"}))

	s, err := store.OpenRaw(db)
	require.NoError(t, err)
	defer s.Close()
	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	assert.Error(t, runMigrate([]string{"-db", db}))
	assert.Error(t, runMigrate([]string{"-db", db, "force", "x"}))
	assert.Error(t, runMigrate([]string{"-db", db, "sideways"}))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	m, err := toy.Generate(4, 3)
	require.NoError(t, err)
	path, err := toy.Write(dir, m)
	require.NoError(t, err)
	assert.NoError(t, runInspect([]string{path}))
	assert.Error(t, runInspect(nil))
	assert.Error(t, runInspect([]string{filepath.Join(dir, "none.root")}))
}
