package notes

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/stringsx"
)

// MsgValidationFailed heads every error that carries field detail.
const MsgValidationFailed = "Validation failed"

const (
	msgInvalidJSON = "Invalid JSON"
	msgTitle       = "Title must be between 1 and 100 characters"
	msgContent     = "Content must be between 1 and 1000 characters"
	msgIDRequired  = "Note ID is required"
	msgIDFormat    = "Invalid note ID format"
	msgIDReserved  = "Note ID is reserved"

	// longest echoed value in a field error
	maxEchoRunes = 100
)

// Kind is the shape a rule expects its raw value to have.
type Kind int

const (
	KindString Kind = iota
	KindStringList
	KindInt
)

// Rule describes the constraint on one input field. Tag is a
// go-playground/validator expression checked against the decoded,
// normalized value.
type Rule struct {
	Field    string
	Kind     Kind
	Required bool
	Trim     bool
	Sanitize bool
	Tag      string
	Message  string
	// TypeMessage is reported when the value has the wrong shape.
	// Defaults to Message.
	TypeMessage string
}

func (r Rule) typeMessage() string {
	if r.TypeMessage != "" {
		return r.TypeMessage
	}
	return r.Message
}

var createRules = []Rule{
	{Field: "title", Kind: KindString, Required: true, Trim: true, Sanitize: true, Tag: "min=1,max=100", Message: msgTitle},
	{Field: "content", Kind: KindString, Required: true, Trim: true, Sanitize: true, Tag: "min=1,max=1000", Message: msgContent},
	{Field: "tags", Kind: KindStringList, Sanitize: true, Tag: "max=5", Message: "Maximum 5 tags allowed", TypeMessage: "Tags must be an array"},
	{Field: "priority", Kind: KindString, Tag: "oneof=low medium high", Message: "Priority must be low, medium, or high"},
}

var updateRules = optional(createRules)

var queryRules = []Rule{
	{Field: "page", Kind: KindInt, Tag: "min=1", Message: "Page must be a positive integer"},
	{Field: "limit", Kind: KindInt, Tag: "min=1,max=100", Message: "Limit must be between 1 and 100"},
	{Field: "search", Kind: KindString, Trim: true, Tag: "min=1,max=50", Message: "Search term must be between 1 and 50 characters"},
	{Field: "sortBy", Kind: KindString, Tag: "oneof=title createdAt updatedAt priority", Message: "Invalid sort field"},
	{Field: "sortOrder", Kind: KindString, Tag: "oneof=asc desc", Message: "Sort order must be asc or desc"},
}

func optional(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.Required = false
		out[i] = r
	}
	return out
}

var looseID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validator turns raw request input into normalized values or field errors.
type Validator struct {
	v      *validator.Validate
	policy *bluemonday.Policy
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithHTMLStripping strips markup from free-text fields before they are checked.
func WithHTMLStripping() ValidatorOption {
	return func(v *Validator) { v.policy = bluemonday.StrictPolicy() }
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{v: validator.New()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DecodeBody reads exactly one JSON object. An empty body decodes to an
// empty object. Anything after the object other than whitespace is invalid.
func DecodeBody(r io.Reader) (map[string]json.RawMessage, error) {
	body := map[string]json.RawMessage{}
	dec := json.NewDecoder(r)
	err := dec.Decode(&body)
	switch {
	case errors.Is(err, io.EOF):
		return body, nil
	case err != nil:
		return nil, errs.Wrap(errs.InvalidArgument, msgInvalidJSON, err)
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after JSON object")
		}
		return nil, errs.Wrap(errs.InvalidArgument, msgInvalidJSON, err)
	}
	if body == nil {
		// literal null
		body = map[string]json.RawMessage{}
	}
	return body, nil
}

func (v *Validator) ValidateCreate(body map[string]json.RawMessage) (NewNote, error) {
	values, fields := v.evaluate(createRules, bodyLookup(body))
	if len(fields) > 0 {
		return NewNote{}, errs.Invalid(MsgValidationFailed, fields)
	}

	in := NewNote{
		Title:    values["title"].(string),
		Content:  values["content"].(string),
		Tags:     []string{},
		Priority: PriorityMedium,
	}
	if tags, ok := values["tags"].([]string); ok {
		in.Tags = tags
	}
	if p, ok := values["priority"].(string); ok {
		in.Priority = Priority(p)
	}
	return in, nil
}

// ValidateUpdate accepts any subset of the create fields. An explicitly
// empty title or content is still rejected.
func (v *Validator) ValidateUpdate(body map[string]json.RawMessage) (Patch, error) {
	values, fields := v.evaluate(updateRules, bodyLookup(body))
	if len(fields) > 0 {
		return Patch{}, errs.Invalid(MsgValidationFailed, fields)
	}

	var p Patch
	if s, ok := values["title"].(string); ok {
		p.Title = &s
	}
	if s, ok := values["content"].(string); ok {
		p.Content = &s
	}
	if tags, ok := values["tags"].([]string); ok {
		p.Tags = &tags
	}
	if s, ok := values["priority"].(string); ok {
		pr := Priority(s)
		p.Priority = &pr
	}
	return p, nil
}

// ValidateQuery checks list parameters. Empty values count as absent.
func (v *Validator) ValidateQuery(q url.Values) (Query, error) {
	values, fields := v.evaluate(queryRules, queryLookup(q))
	if len(fields) > 0 {
		return Query{}, errs.Invalid(MsgValidationFailed, fields)
	}

	var out Query
	if n, ok := values["page"].(int); ok {
		out.Page = n
	}
	if n, ok := values["limit"].(int); ok {
		out.Limit = n
	}
	if s, ok := values["search"].(string); ok {
		out.Search = s
	}
	if s, ok := values["sortBy"].(string); ok {
		out.SortBy = SortField(s)
	}
	if s, ok := values["sortOrder"].(string); ok {
		out.SortOrder = SortOrder(s)
	}
	return out.WithDefaults(), nil
}

// ValidateID accepts canonical UUIDs and loose alphanumeric/dash/underscore
// ids such as "demo-1".
func (v *Validator) ValidateID(id string) error {
	if id == "" {
		return errs.Invalid(MsgValidationFailed, []errs.FieldError{{Field: "id", Message: msgIDRequired}})
	}
	if v.v.Var(id, "uuid") == nil || looseID.MatchString(id) {
		return nil
	}
	return errs.Invalid(MsgValidationFailed, []errs.FieldError{{Field: "id", Message: msgIDFormat, Value: echo(id)}})
}

// lookup fetches the raw value for a rule. present is false when the field
// is absent; ok is false when it has the wrong shape, in which case value is
// the raw input for echoing back.
type lookup func(r Rule) (value any, present, ok bool)

func (v *Validator) evaluate(rules []Rule, get lookup) (map[string]any, []errs.FieldError) {
	values := make(map[string]any, len(rules))
	var fields []errs.FieldError

	for _, r := range rules {
		val, present, ok := get(r)
		if !present {
			if r.Required {
				fields = append(fields, errs.FieldError{Field: r.Field, Message: r.Message})
			}
			continue
		}
		if !ok {
			fields = append(fields, errs.FieldError{Field: r.Field, Message: r.typeMessage(), Value: echo(val)})
			continue
		}

		val = v.normalize(r, val)
		if r.Tag != "" {
			if err := v.v.Var(val, r.Tag); err != nil {
				fields = append(fields, errs.FieldError{Field: r.Field, Message: r.Message, Value: echo(val)})
				continue
			}
		}
		values[r.Field] = val
	}
	return values, fields
}

func (v *Validator) normalize(r Rule, val any) any {
	switch x := val.(type) {
	case string:
		if r.Sanitize && v.policy != nil {
			x = v.policy.Sanitize(x)
		}
		if r.Trim {
			x = strings.TrimSpace(x)
		}
		return x
	case []string:
		if r.Sanitize && v.policy != nil {
			for i := range x {
				x[i] = v.policy.Sanitize(x[i])
			}
		}
		return x
	default:
		return val
	}
}

func bodyLookup(body map[string]json.RawMessage) lookup {
	return func(r Rule) (any, bool, bool) {
		raw, found := body[r.Field]
		if !found || string(raw) == "null" {
			return nil, false, false
		}

		switch r.Kind {
		case KindString:
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return s, true, true
			}
		case KindStringList:
			var xs []string
			if err := json.Unmarshal(raw, &xs); err == nil {
				return xs, true, true
			}
		case KindInt:
			var n int
			if err := json.Unmarshal(raw, &n); err == nil {
				return n, true, true
			}
		}

		var generic any
		_ = json.Unmarshal(raw, &generic)
		return generic, true, false
	}
}

func queryLookup(q url.Values) lookup {
	return func(r Rule) (any, bool, bool) {
		s := q.Get(r.Field)
		if s == "" {
			return nil, false, false
		}
		if r.Kind == KindInt {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return s, true, false
			}
			return n, true, true
		}
		return s, true, true
	}
}

func echo(val any) any {
	if s, ok := val.(string); ok {
		return stringsx.Clip(s, maxEchoRunes)
	}
	return val
}
