package normalize

import (
	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// GoalHorizonDays is how far ahead synthesized goals are targeted.
const GoalHorizonDays = 90

const noDescription = "No description"

type hoisted struct {
	pekerjaan, pekerjaanUpper *string
	status, statusUpper       *string
}

// take records reserved keys. It reports whether key was reserved.
func (h *hoisted) take(key string, v any) bool {
	var slot **string
	switch key {
	case "pekerjaan":
		slot = &h.pekerjaan
	case "Pekerjaan":
		slot = &h.pekerjaanUpper
	case "status":
		slot = &h.status
	case "Status":
		slot = &h.statusUpper
	default:
		return false
	}
	if *slot == nil {
		if s, ok := asString(v); ok {
			*slot = &s
		}
	}
	return true
}

func (h *hoisted) apply(l *GoalList) {
	l.Pekerjaan = pick(l.Pekerjaan, h.pekerjaan, h.pekerjaanUpper)
	l.GoalState = pick(l.GoalState, h.status, h.statusUpper)
}

func pick(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

type goalBuilder struct {
	target string
	goals  []models.Goal
}

func (b *goalBuilder) synth(title string, desc any) {
	d, ok := desc.(string)
	if !ok {
		d = noDescription
	}
	target := b.target
	b.goals = append(b.goals, models.Goal{
		ID:          models.GoalID(len(b.goals) + 1),
		Title:       title,
		Description: d,
		Status:      models.GoalInProgress,
		Progress:    0,
		TargetDate:  &target,
		Category:    "General",
	})
}

func (b *goalBuilder) native(o *object) {
	g := models.Goal{
		ID:          models.GoalID(len(b.goals) + 1),
		Title:       firstString(o, "title"),
		Description: noDescription,
		Status:      models.GoalInProgress,
		Category:    "General",
	}
	if id := firstString(o, "id"); id != "" {
		g.ID = id
	}
	if d, ok := o.get("description"); ok {
		if s, ok := d.(string); ok {
			g.Description = s
		}
	}
	if s := models.GoalStatus(firstString(o, "status")); s.IsValid() {
		g.Status = s
	}
	if pv, ok := o.get("progress"); ok {
		if p, ok := asInt(pv); ok {
			g.Progress = models.ClampPriority(p)
		}
	}
	if td := firstString(o, "target_date"); td != "" {
		g.TargetDate = &td
	}
	if c := firstString(o, "category"); c != "" {
		g.Category = c
	}
	b.goals = append(b.goals, g)
}

// Goals normalizes a goals payload. Accepted shapes:
//
//	[{"Title": "description"}, ...]
//	{"goals": [...], "pekerjaan": "...", "status": "..."}
//	{"Title": "description", ..., "pekerjaan": "..."}
//
// Elements carrying a "title" key are read as full goal records.
func (n *Normalizer) Goals(raw []byte) GoalList {
	v, h, ok := n.decode(KindGoals, raw)
	if !ok {
		return GoalList{Goals: []models.Goal{}, Health: h}
	}

	b := &goalBuilder{
		target: utils.DateOf(n.now()).AddDays(GoalHorizonDays).String(),
		goals:  []models.Goal{},
	}
	var top, nested hoisted
	var out GoalList

	switch t := v.(type) {
	case []any:
		n.goalElems(b, &nested, t)
	case *object:
		list, isWrapped := t.vals["goals"].([]any)
		if isWrapped {
			for _, key := range t.keys {
				top.take(key, t.vals[key])
			}
			n.goalElems(b, &nested, list)
		} else {
			for _, key := range t.keys {
				if top.take(key, t.vals[key]) {
					continue
				}
				b.synth(key, t.vals[key])
			}
		}
	default:
		n.log().Warn("unrecognized goals payload shape")
		return GoalList{Goals: []models.Goal{}, Health: Degraded("unrecognized shape")}
	}

	top.apply(&out)
	nested.apply(&out)
	out.Goals = b.goals
	return out
}

func (n *Normalizer) goalElems(b *goalBuilder, h *hoisted, list []any) {
	for i, elem := range list {
		obj, ok := elem.(*object)
		if !ok {
			n.log().Debug("dropping non-object goal element", zap.Int("index", i))
			continue
		}
		if _, ok := obj.get("title"); ok {
			b.native(obj)
			continue
		}
		produced := false
		for _, key := range obj.keys {
			if h.take(key, obj.vals[key]) {
				continue
			}
			if !produced {
				b.synth(key, obj.vals[key])
				produced = true
			}
		}
	}
}
