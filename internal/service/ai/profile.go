package ai

// Profile names a temperature/length preset.
type Profile string

const (
	ProfileQuick       Profile = "quick"
	ProfileTherapeutic Profile = "therapeutic"
	ProfileCrisis      Profile = "crisis"
	ProfileAnalysis    Profile = "analysis"
)

// GenerationOptions 单次生成参数。
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int
}

var profiles = map[Profile]GenerationOptions{
	ProfileQuick:       {Temperature: 0.5, MaxTokens: 200},
	ProfileTherapeutic: {Temperature: 0.7, MaxTokens: 500},
	ProfileCrisis:      {Temperature: 0.3, MaxTokens: 300},
	ProfileAnalysis:    {Temperature: 0.6, MaxTokens: 400},
}

var probeOptions = GenerationOptions{Temperature: 0.1, MaxTokens: 20}

// Options returns the preset; unknown profiles use the therapeutic one.
func (p Profile) Options() GenerationOptions {
	if opts, ok := profiles[p]; ok {
		return opts
	}
	return profiles[ProfileTherapeutic]
}
