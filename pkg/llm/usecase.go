package llm

import "strings"

// UseCase is a named sampling preset.
type UseCase struct {
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
}

var useCases = []UseCase{
	{
		Name:        "General Conversation",
		Value:       "general",
		Temperature: 1.3,
		Description: "Balanced responses for everyday conversation",
	},
	{
		Name:        "Coding & Math",
		Value:       "coding",
		Temperature: 0.0,
		Description: "Precise, deterministic responses for technical tasks",
	},
	{
		Name:        "Data Analysis",
		Value:       "data",
		Temperature: 1.0,
		Description: "Balanced analysis for data processing tasks",
	},
	{
		Name:        "Translation",
		Value:       "translation",
		Temperature: 1.3,
		Description: "Natural language translation tasks",
	},
	{
		Name:        "Creative Writing",
		Value:       "creative",
		Temperature: 1.5,
		Description: "More creative and varied responses",
	},
}

// UseCases returns a copy of the known presets in display order.
func UseCases() []UseCase {
	out := make([]UseCase, len(useCases))
	copy(out, useCases)
	return out
}

// UseCaseValues returns the preset keys, e.g. "general", "coding".
func UseCaseValues() []string {
	out := make([]string, 0, len(useCases))
	for _, uc := range useCases {
		out = append(out, uc.Value)
	}
	return out
}

// LookupUseCase finds a preset by its value, case-insensitively.
func LookupUseCase(value string) (UseCase, bool) {
	for _, uc := range useCases {
		if strings.EqualFold(uc.Value, value) {
			return uc, true
		}
	}
	return UseCase{}, false
}
