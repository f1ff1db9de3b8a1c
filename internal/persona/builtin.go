package persona

import (
	"sort"
	"strings"
)

var builtins = []Persona{
	{
		Name:        "Chief Financial Officer",
		Description: "A senior executive overseeing financial planning, compliance, and profitability.",
		Goals: []string{
			"Maintain financial health and stability",
			"Ensure compliance with regulations",
			"Identify opportunities for cost savings",
			"Support sustainable growth",
		},
		PainPoints: []string{
			"Unclear ROI from initiatives",
			"Fragmented financial reporting",
			"Pressure to reduce costs while driving growth",
		},
		Preferences: map[string]string{"tone": "professional", "detail_level": "low"},
		Trait:       map[string]any{"risk_averse": true, "data_driven": true, "goal_focused": true},
	},
	{
		Name:        "VP of Sales",
		Description: "A senior leader responsible for driving revenue growth and managing the sales organization.",
		Goals: []string{
			"Achieve quarterly revenue targets",
			"Optimize sales processes and pipelines",
			"Motivate and enable sales teams",
			"Expand into new markets",
		},
		PainPoints: []string{
			"Unreliable pipeline forecasting",
			"Difficulty tracking team performance",
			"Customer churn in competitive markets",
		},
		Preferences: map[string]string{"tone": "motivational", "detail_level": "medium"},
		Trait:       map[string]any{"goal_focused": true, "time_sensitive": true, "people_oriented": true},
	},
}

// Builtin looks up a sample persona by name, ignoring case. The result is a
// copy the caller may modify.
func Builtin(name string) (*Persona, bool) {
	for _, p := range builtins {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p.clone(), true
		}
	}
	return nil, false
}

// BuiltinNames lists the sample personas.
func BuiltinNames() []string {
	out := make([]string, len(builtins))
	for i, p := range builtins {
		out[i] = p.Name
	}
	sort.Strings(out)
	return out
}

func (p Persona) clone() *Persona {
	out := p
	out.Goals = append([]string(nil), p.Goals...)
	out.PainPoints = append([]string(nil), p.PainPoints...)
	if p.Preferences != nil {
		out.Preferences = make(map[string]string, len(p.Preferences))
		for k, v := range p.Preferences {
			out.Preferences[k] = v
		}
	}
	if p.Trait != nil {
		out.Trait = make(map[string]any, len(p.Trait))
		for k, v := range p.Trait {
			out.Trait[k] = v
		}
	}
	return &out
}
