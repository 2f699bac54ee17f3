package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	intel "ninebox/domain/intelligence"
	"ninebox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(4), cfg.Server.MaxConcurrentAnalyses)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 0.05, cfg.Analysis.Thresholds.ModerateP)
	assert.Equal(t, 5, cfg.Analysis.ManagerMinTeamSize)
	assert.Equal(t, 30, cfg.Analysis.SignificanceFloor)
	assert.Equal(t, intel.AxisPerformance, cfg.Analysis.Axis)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATING_AXIS", "grid")
	t.Setenv("MANAGER_MIN_TEAM_SIZE", "8")
	t.Setenv("ROSTER_FILE", "roster.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, intel.AxisGrid, cfg.Analysis.Axis)
	assert.Equal(t, 8, cfg.Analysis.ManagerMinTeamSize)
	assert.Equal(t, "roster.csv", cfg.Data.RosterFile)
}

func TestLoad_LogLevelSpellings(t *testing.T) {
	for input, want := range map[string]string{
		"warn":    "WARN",
		"Warning": "WARN",
		" debug ": "DEBUG",
		"trace":   "TRACE",
		"ERROR":   "ERROR",
	} {
		t.Setenv("LOG_LEVEL", input)
		cfg, err := Load()
		require.NoError(t, err, input)
		assert.Equal(t, want, cfg.Logging.Level, input)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thresholds:
  severe_p: 0.0001
  moderate_p: 0.01
  cell_z: 2.5
  min_expected: 5
  min_group_size: 20
significance_floor: 20
top_n: 3
axis: potential
`), 0o644))
	t.Setenv("ANALYSIS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0001, cfg.Analysis.Thresholds.SevereP)
	assert.Equal(t, 2.5, cfg.Analysis.Thresholds.CellZ)
	assert.Equal(t, 20, cfg.Analysis.SignificanceFloor)
	assert.Equal(t, 3, cfg.Analysis.TopN)
	assert.Equal(t, intel.AxisPotential, cfg.Analysis.Axis)
	// Untouched keys keep their defaults.
	assert.Equal(t, 15, cfg.Analysis.SeverePenalty)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown axis", func(t *testing.T) {
		t.Setenv("RATING_AXIS", "sideways")
		_, err := Load()
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})

	t.Run("moderate below severe", func(t *testing.T) {
		t.Setenv("SEVERE_P", "0.1")
		t.Setenv("MODERATE_P", "0.05")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})

	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "LOUD")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing overlay file", func(t *testing.T) {
		t.Setenv("ANALYSIS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}
