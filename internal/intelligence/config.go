package intelligence

import (
	intel "ninebox/domain/intelligence"
	"ninebox/internal/stats"
)

// Config tunes the analysis. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Thresholds stats.Thresholds `yaml:"thresholds"`

	// ManagerMinTeamSize is the smallest team (direct + indirect) analyzed for bias.
	ManagerMinTeamSize int `yaml:"manager_min_team_size" validate:"gte=1"`
	// SignificanceFloor is the team size below which manager results stay descriptive.
	SignificanceFloor int `yaml:"significance_floor" validate:"gte=1"`

	ModeratePenalty int `yaml:"moderate_penalty" validate:"gte=0"`
	SeverePenalty   int `yaml:"severe_penalty" validate:"gte=0"`
	TopN            int `yaml:"top_n" validate:"gte=1"`

	Axis intel.Axis `yaml:"axis" validate:"omitempty,oneof=performance potential grid"`
}

func DefaultConfig() Config {
	return Config{
		Thresholds:         stats.DefaultThresholds(),
		ManagerMinTeamSize: 5,
		SignificanceFloor:  30,
		ModeratePenalty:    5,
		SeverePenalty:      15,
		TopN:               10,
		Axis:               intel.AxisPerformance,
	}
}
