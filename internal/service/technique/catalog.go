package technique

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

//go:embed techniques.yaml
var builtinCatalog []byte

const (
	// ThoughtChallenging 是目录独有的 CBT 练习。
	ThoughtChallenging = "thought_challenging"

	minutesPerStep = 2
)

// Guide 技巧说明。
type Guide struct {
	Name            string   `yaml:"name" json:"technique"`
	Aliases         []string `yaml:"aliases" json:"-"`
	Title           string   `yaml:"title" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	DurationMinutes int      `yaml:"duration_minutes" json:"duration_minutes"`
	Steps           []string `yaml:"steps" json:"steps"`
	Benefits        []string `yaml:"benefits" json:"benefits"`
	UseCases        []string `yaml:"use_cases" json:"use_cases,omitempty"`
}

// GuidedStep is one prompted step of a guided exercise.
type GuidedStep struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
	Prompt      string `json:"prompt"`
	Validation  string `json:"validation"`
}

// GuidedExercise walks the user through a technique step by step.
type GuidedExercise struct {
	TechniqueName     string       `json:"technique_name"`
	Steps             []GuidedStep `json:"guided_steps"`
	TotalSteps        int          `json:"total_steps"`
	EstimatedDuration int          `json:"estimated_duration"`
}

// Recommendation is a guide chosen for an emotion.
type Recommendation struct {
	Guide
	EstimatedTime int    `json:"estimated_time"`
	Difficulty    string `json:"difficulty"`
}

var byEmotion = map[emotion.State]string{
	emotion.Anxious:   string(emotion.BreathingExercise),
	emotion.Stressed:  string(emotion.GroundingTechnique),
	emotion.Depressed: string(emotion.BehavioralActivation),
	emotion.Angry:     ThoughtChallenging,
}

// Catalog is a read-only set of technique guides.
type Catalog struct {
	guides []Guide
	index  map[string]int
}

// Default 加载内置目录。
func Default() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("technique: builtin catalog: %v", err))
	}
	return c
}

// Parse builds a catalog from a YAML list of guides.
func Parse(data []byte) (*Catalog, error) {
	var guides []Guide
	if err := yaml.Unmarshal(data, &guides); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{guides: guides, index: make(map[string]int)}
	for i, g := range guides {
		if g.Name == "" || len(g.Steps) == 0 {
			return nil, fmt.Errorf("guide %d: name and steps are required", i)
		}
		for _, key := range append([]string{g.Name}, g.Aliases...) {
			key = normalize(key)
			if _, dup := c.index[key]; dup {
				return nil, fmt.Errorf("duplicate technique %q", key)
			}
			c.index[key] = i
		}
	}
	return c, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Names lists canonical guide names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.guides))
	for _, g := range c.guides {
		names = append(names, g.Name)
	}
	return names
}

// Lookup finds a guide by name or alias.
func (c *Catalog) Lookup(name string) (Guide, bool) {
	i, ok := c.index[normalize(name)]
	if !ok {
		return Guide{}, false
	}
	return c.guides[i], true
}

// Guided returns the step-by-step version of a guide.
func (c *Catalog) Guided(name string) (GuidedExercise, bool) {
	g, ok := c.Lookup(name)
	if !ok {
		return GuidedExercise{}, false
	}

	steps := make([]GuidedStep, 0, len(g.Steps))
	for i, instruction := range g.Steps {
		n := i + 1
		steps = append(steps, GuidedStep{
			StepNumber:  n,
			Instruction: instruction,
			Prompt:      fmt.Sprintf("Let me know when you've completed step %d, and I'll guide you to the next one.", n),
			Validation:  fmt.Sprintf("How did step %d feel for you?", n),
		})
	}
	return GuidedExercise{
		TechniqueName:     g.Name,
		Steps:             steps,
		TotalSteps:        len(steps),
		EstimatedDuration: len(steps) * minutesPerStep,
	}, true
}

// ForEmotion recommends a guide; unmapped emotions get grounding.
func (c *Catalog) ForEmotion(state emotion.State, intensity emotion.Intensity) Recommendation {
	name, ok := byEmotion[state]
	if !ok {
		name = string(emotion.GroundingTechnique)
	}
	g, found := c.Lookup(name)
	if !found && len(c.guides) > 0 {
		g = c.guides[0]
	}

	difficulty := "moderate"
	if intensity == emotion.IntensityLow {
		difficulty = "easy"
	}
	return Recommendation{
		Guide:         g,
		EstimatedTime: len(g.Steps) * minutesPerStep,
		Difficulty:    difficulty,
	}
}
