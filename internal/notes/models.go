package notes

import "time"

// Priority ranks a note.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Priority  Priority  `json:"priority" yaml:"priority"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a copy that shares no memory with n.
func (n Note) Clone() Note {
	out := n
	out.Tags = append(make([]string, 0, len(n.Tags)), n.Tags...)
	return out
}

// NewNote is validated input for Create.
type NewNote struct {
	Title    string
	Content  string
	Tags     []string
	Priority Priority
}

// Patch is validated input for Update. Nil fields are left unchanged.
type Patch struct {
	Title    *string
	Content  *string
	Tags     *[]string
	Priority *Priority
}

// Empty reports whether the patch touches no field.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil && p.Priority == nil
}

// SortField names a sortable note attribute.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByPriority  SortField = "priority"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds list parameters after validation. Zero values mean defaults.
type Query struct {
	Search    string
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Pagination describes where a page sits in the filtered result.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	NextPage    *int `json:"nextPage"`
	PrevPage    *int `json:"prevPage"`
}

// Page is one slice of a query result.
type Page struct {
	Notes      []Note
	Pagination Pagination
}
