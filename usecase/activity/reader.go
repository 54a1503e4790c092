package activity

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

// Page is one screen of a user's log, most recent entry first.
type Page struct {
	Entries     []domain.ActivityEntry `json:"entries"`
	Number      int                    `json:"page"`
	Pages       int                    `json:"pages"`
	Total       int                    `json:"total"`
	HasNext     bool                   `json:"has_next"`
	HasPrevious bool                   `json:"has_previous"`
}

// Log returns the user's log in append order.
func (r *Recorder) Log(ctx context.Context, userID string) (*domain.ActivityLog, error) {
	return r.logs.Get(ctx, userID)
}

// Page returns page number (1-based) of the user's log in most-recent-first order.
// Out-of-range page numbers are clamped to the nearest valid page.
func (r *Recorder) Page(ctx context.Context, userID string, number int) (*Page, error) {
	log, err := r.logs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return paginate(log.Reversed(), number, r.cfg.PageSize), nil
}

func paginate(entries []domain.ActivityEntry, number, size int) *Page {
	total := len(entries)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return &Page{
		Entries:     append([]domain.ActivityEntry{}, entries[start:end]...),
		Number:      number,
		Pages:       pages,
		Total:       total,
		HasNext:     number < pages,
		HasPrevious: number > 1,
	}
}
