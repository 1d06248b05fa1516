package normalize

import (
	"github.com/harrylevesque/taskboard/internal/models"
)

// Profile normalizes a profile payload into a single-record list. Accepted
// shapes are {"tasks": [record, ...]}, [record, ...] and a bare record.
func (n *Normalizer) Profile(raw []byte) ProfileList {
	v, h, ok := n.decode(KindProfile, raw)
	if !ok {
		return ProfileList{Tasks: []models.Profile{{}}, Health: h}
	}

	var rec *object
	switch t := v.(type) {
	case *object:
		rec = t
		if inner, ok := t.get("tasks"); ok {
			rec = nil
			if list, ok := inner.([]any); ok && len(list) > 0 {
				rec, _ = list[0].(*object)
			}
		}
	case []any:
		if len(t) > 0 {
			rec, _ = t[0].(*object)
		}
	default:
		n.log().Warn("unrecognized profile payload shape")
		return ProfileList{Tasks: []models.Profile{{}}, Health: Degraded("unrecognized shape")}
	}

	if rec == nil {
		return ProfileList{Tasks: []models.Profile{{}}}
	}
	return ProfileList{Tasks: []models.Profile{coerceProfile(rec)}}
}

func coerceProfile(o *object) models.Profile {
	var p models.Profile
	p.Category = optString(o, "category")
	p.MentalProblem = optString(o, "mental_problem")
	p.MentalSolution = optString(o, "mental_solution")
	p.MotivationalQuote = optString(o, "motivational_quote")
	if v, ok := o.get("recommended_priority_slots"); ok {
		if n, ok := asInt(v); ok {
			p.RecommendedPrioritySlots = &n
		}
	}
	return p
}

func optString(o *object, key string) *string {
	s, ok := stringField(o, key)
	if !ok {
		return nil
	}
	return &s
}
