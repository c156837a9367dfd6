package request

import (
	"net/url"

	"ticket-booking/pkg/utils"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PaginatedRequest pages through a user's booking history, newest first.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// PaginationFromQuery reads ?page= and ?per_page=. Out-of-range values are
// kept so validation can reject them.
func PaginationFromQuery(query url.Values) *PaginatedRequest {
	return &PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), DefaultPerPage),
	}
}

func (p PaginatedRequest) CurrentPage() int {
	return max(p.Page, 1)
}

func (p PaginatedRequest) Offset() int {
	return (p.CurrentPage() - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	return min(p.PerPage, MaxPerPage)
}
