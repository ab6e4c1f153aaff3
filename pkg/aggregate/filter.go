package aggregate

import (
	"strings"

	"github.com/klokku/meetstats/pkg/calendar"
)

// NoneLabel stands in for missing categories and for subjects without a prefix.
const NoneLabel = "None"

// Filter decides which events are folded into the report.
type Filter struct {
	AllowedStatuses map[calendar.MeetingStatus]struct{}
	// CategoryTerms are matched as substrings of the event's categories.
	CategoryTerms []string
	// ExcludeMode drops matching events instead of keeping only them.
	// It has no effect while CategoryTerms is empty.
	ExcludeMode bool
}

// NewFilter builds a Filter from the raw user inputs. An empty status list is
// accepted and produces an empty report.
func NewFilter(statuses []calendar.MeetingStatus, categoryFilter string, exclude bool) Filter {
	allowed := make(map[calendar.MeetingStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	return Filter{
		AllowedStatuses: allowed,
		CategoryTerms:   ParseCategoryTerms(categoryFilter),
		ExcludeMode:     exclude,
	}
}

// ParseCategoryTerms splits a comma separated filter, trimming every term and
// dropping the empty ones.
func ParseCategoryTerms(raw string) []string {
	terms := make([]string, 0)
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func (f Filter) allowsStatus(status calendar.MeetingStatus) bool {
	_, ok := f.AllowedStatuses[status]
	return ok
}

// MatchesCategories reports whether any term occurs in categories.
func (f Filter) MatchesCategories(categories string) bool {
	for _, term := range f.CategoryTerms {
		if strings.Contains(categories, term) {
			return true
		}
	}
	return false
}

func (f Filter) allowsCategories(categories string) bool {
	if len(f.CategoryTerms) == 0 {
		return true
	}
	matched := f.MatchesCategories(categories)
	if f.ExcludeMode {
		return !matched
	}
	return matched
}

func normalizeCategories(categories string) string {
	if categories == "" {
		return NoneLabel
	}
	return categories
}
