package models

// Profile is the upstream profile record. Absent fields stay nil.
type Profile struct {
	Category                 *string `json:"category,omitempty"`
	MentalProblem            *string `json:"mental_problem,omitempty"`
	MentalSolution           *string `json:"mental_solution,omitempty"`
	MotivationalQuote        *string `json:"motivational_quote,omitempty"`
	RecommendedPrioritySlots *int    `json:"recommended_priority_slots,omitempty"`
}

// IsEmpty reports whether every field is absent.
func (p Profile) IsEmpty() bool {
	return p.Category == nil && p.MentalProblem == nil && p.MentalSolution == nil &&
		p.MotivationalQuote == nil && p.RecommendedPrioritySlots == nil
}

// CachedProfile is the object persisted locally as the offline fallback.
type CachedProfile struct {
	Job               string `json:"job"`
	Status            string `json:"status"`
	MotivationalQuote string `json:"motivational_quote,omitempty"`
	MentalProblem     string `json:"mental_problem,omitempty"`
	MentalSolution    string `json:"mental_solution,omitempty"`
}

// ProfileView is what the dashboard displays.
type ProfileView struct {
	Job                      string `json:"job"`
	Status                   string `json:"status"`
	MotivationalQuote        string `json:"motivational_quote,omitempty"`
	MentalSolution           string `json:"mental_solution,omitempty"`
	RecommendedPrioritySlots *int   `json:"recommended_priority_slots,omitempty"`
}

// ToCache builds the cache object with its own defaults.
func (p Profile) ToCache() CachedProfile {
	return CachedProfile{
		Job:               deref(p.Category, "Default"),
		Status:            deref(p.MentalProblem, "None"),
		MotivationalQuote: deref(p.MotivationalQuote, ""),
		MentalProblem:     deref(p.MentalProblem, ""),
		MentalSolution:    deref(p.MentalSolution, ""),
	}
}

// FromCache rebuilds a profile record from the cached object.
func FromCache(c CachedProfile) Profile {
	var p Profile
	if c.Job != "" && c.Job != "Default" {
		p.Category = &c.Job
	}
	if c.MentalProblem != "" {
		p.MentalProblem = &c.MentalProblem
	}
	if c.MentalSolution != "" {
		p.MentalSolution = &c.MentalSolution
	}
	if c.MotivationalQuote != "" {
		p.MotivationalQuote = &c.MotivationalQuote
	}
	return p
}

func deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
