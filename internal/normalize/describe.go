package normalize

import "encoding/json"

// Shape summarizes a raw payload for debugging upstream output.
type Shape struct {
	Valid    bool     `json:"valid"`
	DataType string   `json:"dataType"`
	IsArray  bool     `json:"isArray"`
	Length   int      `json:"length,omitempty"`
	Keys     []string `json:"keys,omitempty"`
	HasTasks bool     `json:"hasTasksProperty"`
}

// Describe reports the top-level type of raw and, for objects, its keys in order.
func Describe(raw []byte) Shape {
	v, err := decodeOrdered(raw)
	if err != nil {
		return Shape{DataType: "invalid"}
	}
	s := Shape{Valid: true}
	switch t := v.(type) {
	case nil:
		s.DataType = "null"
	case bool:
		s.DataType = "boolean"
	case string:
		s.DataType = "string"
	case json.Number:
		s.DataType = "number"
	case []any:
		s.DataType = "array"
		s.IsArray = true
		s.Length = len(t)
	case *object:
		s.DataType = "object"
		s.Keys = append([]string{}, t.keys...)
		_, s.HasTasks = t.get("tasks")
	}
	return s
}
