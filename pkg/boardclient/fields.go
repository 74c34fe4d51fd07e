package boardclient

import (
	"encoding/json"
	"fmt"
)

// Editable field names, matching the wire's camelCase keys.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldPriority     = "priority"
	FieldStatus       = "status"
	FieldAssignedUser = "assignedUser"
)

// fieldValue reads one editable field. assignedUser comes back as *UserRef
// (possibly nil), everything else as string.
func fieldValue(t Task, field string) (any, error) {
	switch field {
	case FieldTitle:
		return t.Title, nil
	case FieldDescription:
		return t.Description, nil
	case FieldPriority:
		return t.Priority, nil
	case FieldStatus:
		return t.Status, nil
	case FieldAssignedUser:
		return t.AssignedUser, nil
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}
}

// withFieldValue returns a copy of t with one field replaced.
func withFieldValue(t Task, field string, value any) (Task, error) {
	switch field {
	case FieldTitle, FieldDescription, FieldPriority, FieldStatus:
		s, ok := value.(string)
		if !ok {
			return Task{}, fmt.Errorf("field %q wants a string, got %T", field, value)
		}
		switch field {
		case FieldTitle:
			t.Title = s
		case FieldDescription:
			t.Description = s
		case FieldPriority:
			t.Priority = s
		case FieldStatus:
			t.Status = s
		}
		return t, nil
	case FieldAssignedUser:
		switch v := value.(type) {
		case nil:
			t.AssignedUser = nil
		case *UserRef:
			t.AssignedUser = v
		default:
			return Task{}, fmt.Errorf("field %q wants *UserRef or nil, got %T", field, value)
		}
		return t, nil
	default:
		return Task{}, fmt.Errorf("unknown field %q", field)
	}
}

// fieldRequest builds the single-field conditional update for a submit.
func fieldRequest(field string, value any, version *int64) (UpdateRequest, error) {
	req := UpdateRequest{Version: version}
	switch field {
	case FieldTitle, FieldDescription, FieldPriority, FieldStatus:
		s, ok := value.(string)
		if !ok {
			return UpdateRequest{}, fmt.Errorf("field %q wants a string, got %T", field, value)
		}
		switch field {
		case FieldTitle:
			req.Title = &s
		case FieldDescription:
			req.Description = &s
		case FieldPriority:
			req.Priority = &s
		case FieldStatus:
			req.Status = &s
		}
		return req, nil
	case FieldAssignedUser:
		req.AssignedUserSet = true
		switch v := value.(type) {
		case nil:
		case *UserRef:
			if v != nil {
				id := v.ID
				req.AssignedUser = &id
			}
		default:
			return UpdateRequest{}, fmt.Errorf("field %q wants *UserRef or nil, got %T", field, value)
		}
		return req, nil
	default:
		return UpdateRequest{}, fmt.Errorf("unknown field %q", field)
	}
}

// applyChanges merges a server changes diff into a task. Values arrive as
// decoded JSON (strings, float64 numbers, maps), so they are normalized
// here rather than at every call site.
func applyChanges(t Task, changes map[string]any) Task {
	for k, v := range changes {
		switch k {
		case FieldTitle:
			if s, ok := v.(string); ok {
				t.Title = s
			}
		case FieldDescription:
			if s, ok := v.(string); ok {
				t.Description = s
			}
		case FieldPriority:
			if s, ok := v.(string); ok {
				t.Priority = s
			}
		case FieldStatus:
			if s, ok := v.(string); ok {
				t.Status = s
			}
		case FieldAssignedUser:
			t.AssignedUser = asUserRef(v)
		case "version":
			switch n := v.(type) {
			case float64:
				t.Version = int64(n)
			case int64:
				t.Version = n
			case int:
				t.Version = int64(n)
			case json.Number:
				if i, err := n.Int64(); err == nil {
					t.Version = i
				}
			}
		}
	}
	return t
}

func asUserRef(v any) *UserRef {
	switch ref := v.(type) {
	case nil:
		return nil
	case *UserRef:
		return ref
	case UserRef:
		return &ref
	case map[string]any:
		out := &UserRef{}
		if s, ok := ref["id"].(string); ok {
			out.ID = s
		}
		if s, ok := ref["name"].(string); ok {
			out.Name = s
		}
		if s, ok := ref["email"].(string); ok {
			out.Email = s
		}
		if out.ID == "" {
			return nil
		}
		return out
	default:
		return nil
	}
}
