package notes

import (
	"slices"
	"strings"

	"example.com/notes-api/internal/mathx"
	"example.com/notes-api/internal/stringsx"
)

// WithDefaults fills unset parameters. A page or limit below 1 takes its
// default and limit is capped at MaxLimit.
func (q Query) WithDefaults() Query {
	q.Search = strings.TrimSpace(q.Search)
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = Desc
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	q.Limit = min(q.Limit, MaxLimit)
	return q
}

// Run filters, sorts and paginates all. all is not modified.
func Run(all []Note, q Query) Page {
	q = q.WithDefaults()
	matched := Filter(all, q.Search)
	sorted := Sort(matched, q.SortBy, q.SortOrder)
	return Paginate(sorted, q.Page, q.Limit)
}

// Filter keeps notes whose title, content or any tag contains search,
// ignoring case. A blank search returns a copy of in.
func Filter(in []Note, search string) []Note {
	term := stringsx.Normalize(search)
	if term == "" {
		return slices.Clone(in)
	}

	out := make([]Note, 0, len(in))
	for _, n := range in {
		if matches(n, term) {
			out = append(out, n)
		}
	}
	return out
}

func matches(n Note, term string) bool {
	if stringsx.ContainsFold(n.Title, term) || stringsx.ContainsFold(n.Content, term) {
		return true
	}
	return slices.ContainsFunc(n.Tags, func(tag string) bool {
		return stringsx.ContainsFold(tag, term)
	})
}

// Sort returns in ordered by field. Title and priority compare as strings
// ignoring case, so priorities order high < low < medium. The sort is stable
// in both directions: notes with equal keys keep their relative order.
func Sort(in []Note, by SortField, order SortOrder) []Note {
	out := slices.Clone(in)
	cmp := comparator(by)
	if order == Asc {
		slices.SortStableFunc(out, cmp)
	} else {
		slices.SortStableFunc(out, func(a, b Note) int { return cmp(b, a) })
	}
	return out
}

func comparator(by SortField) func(a, b Note) int {
	switch by {
	case SortByTitle:
		return func(a, b Note) int { return stringsx.CompareFold(a.Title, b.Title) }
	case SortByUpdatedAt:
		return func(a, b Note) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortByPriority:
		return func(a, b Note) int { return stringsx.CompareFold(string(a.Priority), string(b.Priority)) }
	default:
		return func(a, b Note) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// Paginate slices in to the requested 1-based page.
func Paginate(in []Note, page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	total := len(in)
	// limit >= 1 here, so CeilDiv cannot fail.
	totalPages, _ := mathx.CeilDiv(total, limit)
	start, end := mathx.Window(page, limit, total)

	p := Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: end < total,
		HasPrevPage: page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}

	notes := make([]Note, end-start)
	copy(notes, in[start:end])
	return Page{Notes: notes, Pagination: p}
}
