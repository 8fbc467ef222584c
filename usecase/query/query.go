// Package query derives filtered views and statistics from a task collection.
// Nothing here mutates its input.
package query

import (
	"strings"
	"time"

	"github.com/fastygo/tasker/domain"
)

// Filter selects a named subset of tasks.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
	FilterHigh      Filter = "high"
	FilterWork      Filter = "work"
	FilterPersonal  Filter = "personal"
	FilterStudy     Filter = "study"
)

// Filters lists every selector in display order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterPending, FilterHigh, FilterWork, FilterPersonal, FilterStudy}

// ParseFilter accepts a selector name; empty means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Filters {
		if f == known {
			return f, nil
		}
	}
	return "", domain.ErrInvalidFilter
}

// Match reports whether task passes f. Unknown selectors match everything.
func (f Filter) Match(task domain.Task) bool {
	switch f {
	case FilterCompleted:
		return task.IsCompleted
	case FilterPending:
		return !task.IsCompleted
	case FilterHigh:
		return task.Priority == domain.PriorityHigh
	case FilterWork:
		return task.Category == domain.CategoryWork
	case FilterPersonal:
		return task.Category == domain.CategoryPersonal
	case FilterStudy:
		return task.Category == domain.CategoryStudy
	default:
		return true
	}
}

// MatchesSearch reports whether term occurs in the title or description,
// ignoring case. An empty term matches every task.
func MatchesSearch(task domain.Task, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

// Apply returns the tasks matching both f and term, in their original order.
func Apply(tasks []domain.Task, f Filter, term string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Match(task) && MatchesSearch(task, term) {
			out = append(out, task)
		}
	}
	return out
}

// Stats summarizes a whole collection, independent of any filter.
type Stats struct {
	Completed int     `json:"completedCount"`
	Total     int     `json:"totalCount"`
	Progress  float64 `json:"progressPercentage"`
	Overdue   int     `json:"overdueCount"`
}

// Summarize counts completed and overdue tasks. Progress is 0 for an empty
// collection.
func Summarize(tasks []domain.Task, now time.Time) Stats {
	stats := Stats{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].IsCompleted {
			stats.Completed++
		}
		if tasks[i].IsOverdue(now) {
			stats.Overdue++
		}
	}
	if stats.Total > 0 {
		stats.Progress = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}

// View is a filtered task list together with whole-collection statistics.
type View struct {
	Filter Filter        `json:"filter"`
	Search string        `json:"search,omitempty"`
	Tasks  []domain.Task `json:"tasks"`
	Stats  Stats         `json:"stats"`
}

// Build combines Apply and Summarize.
func Build(tasks []domain.Task, f Filter, term string, now time.Time) View {
	return View{
		Filter: f,
		Search: term,
		Tasks:  Apply(tasks, f, term),
		Stats:  Summarize(tasks, now),
	}
}
