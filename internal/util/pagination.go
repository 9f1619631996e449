package util

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxPage bounds page numbers so offsets never overflow.
const MaxPage = math.MaxInt32

// Calculate turns a 1-based page number into an offset and limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	if last := math.MaxInt/size + 1; page > last {
		page = last
	}
	from = (page - 1) * size
	return from, size
}

// ParsePage reads a page query parameter; anything missing, malformed or below 1 is page 1.
// Pages past MaxPage are clamped to it.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return MaxPage
		}
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

type Pagination struct {
	Page    int
	PerPage int
	Total   int64
	Pages   int
	HasPrev bool
	HasNext bool
	PrevNum int
	NextNum int
}

func NewPagination(page, perPage int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	p := Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
	if p.HasPrev {
		p.PrevNum = page - 1
	}
	if p.HasNext {
		p.NextNum = page + 1
	}
	return p
}

// PageNumbers lists the pages to link to, with 0 marking a gap, e.g. 1 2 0 5 6 7 8 9 0 20 21.
func (p Pagination) PageNumbers() []int {
	const edge, around = 2, 2
	var out []int
	last := 0
	for n := 1; n <= p.Pages; n++ {
		if n <= edge || n > p.Pages-edge || (n >= p.Page-around && n <= p.Page+around) {
			if last != 0 && n != last+1 {
				out = append(out, 0)
			}
			out = append(out, n)
			last = n
		}
	}
	return out
}
