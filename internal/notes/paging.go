package notes

import "time"

// pageSize is the fixed page length of the listing API.
const pageSize = 20

// Page is the listing envelope. Data is empty when the requested page is
// past the end; HasMore reports whether a strictly later page exists.
type Page struct {
	Data    []*Note `json:"data"`
	HasMore bool    `json:"hasMore"`
}

// ResolveAge maps the age selector to an archive flag and a created lower
// bound. "archive" selects archived notes and skips the time filter
// entirely. "1month" and "3months" anchor at the most recent week boundary
// before subtracting whole calendar months. Any other value, including an
// absent one, means all active notes.
func ResolveAge(age string, now time.Time) (archived bool, since time.Time) {
	switch age {
	case "archive":
		return true, time.Time{}
	case "1month":
		return false, monthsBack(now, 1)
	case "3months":
		return false, monthsBack(now, 3)
	default:
		return false, time.Time{}
	}
}

// monthsBack rolls now back to the start of its week, then subtracts n
// calendar months. AddDate normalizes, so the window follows the calendar
// rather than a fixed 30-day span.
func monthsBack(now time.Time, n int) time.Time {
	anchor := now.AddDate(0, 0, -int(now.Weekday()))
	return anchor.AddDate(0, -n, 0)
}

// Paginate slices the full filtered set into fixed-size pages. Pages are
// 1-based; a page past the end yields empty Data. The set is re-fetched on
// every request, so boundaries are consistent only within one snapshot.
func Paginate(all []*Note, page int) *Page {
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return &Page{Data: []*Note{}}
	}

	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return &Page{Data: all[start:end], HasMore: end < len(all)}
}
