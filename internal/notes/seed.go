package notes

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/notes-api/internal/errs"
)

// DemoNotes is the welcome note every fresh instance starts with.
func DemoNotes() []Note {
	return []Note{{
		ID:       "demo-1",
		Title:    "Welcome to DevStream",
		Content:  "This is your first note. Create, read, update, and delete notes using this API.",
		Tags:     []string{"welcome", "getting-started"},
		Priority: PriorityMedium,
	}}
}

// LoadSeedFile reads a YAML (or JSON) list of notes and validates each one
// with the same rules as a create request.
func LoadSeedFile(path string, v *Validator) ([]Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed []Note
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for i := range seed {
		if err := v.normalizeSeed(&seed[i]); err != nil {
			return nil, fmt.Errorf("seed note %d (%q): %w", i, seed[i].ID, err)
		}
	}
	return seed, nil
}

// reservedIDs name fixed routes under /notes. A note with one of these ids
// could never be fetched by id.
var reservedIDs = []string{"events"}

func (v *Validator) normalizeSeed(n *Note) error {
	if err := v.ValidateID(n.ID); err != nil {
		return err
	}
	if slices.Contains(reservedIDs, strings.ToLower(n.ID)) {
		return errs.Invalid(MsgValidationFailed, []errs.FieldError{{Field: "id", Message: msgIDReserved, Value: n.ID}})
	}

	values, fields := v.evaluate(createRules, noteLookup(*n))
	if len(fields) > 0 {
		return errs.Invalid(MsgValidationFailed, fields)
	}
	n.Title = values["title"].(string)
	n.Content = values["content"].(string)
	if tags, ok := values["tags"].([]string); ok {
		n.Tags = tags
	} else {
		n.Tags = []string{}
	}
	return nil
}

func noteLookup(n Note) lookup {
	return func(r Rule) (any, bool, bool) {
		switch r.Field {
		case "title":
			return n.Title, true, true
		case "content":
			return n.Content, true, true
		case "tags":
			return n.Tags, n.Tags != nil, true
		case "priority":
			return string(n.Priority), n.Priority != "", true
		}
		return nil, false, false
	}
}
