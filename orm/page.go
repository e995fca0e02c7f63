package orm

// Page 一次分页查询的结果，每次调用都重新计算
type Page struct {
	Data        []Row `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	// LastPage = ceil(Total / PerPage)，没有数据的时候为 0
	LastPage int `json:"last_page"`
}

func newPage(data []Row, perPage int, page int, total int64) *Page {
	if data == nil {
		data = []Row{}
	}
	pp := int64(perPage)
	return &Page{
		Data:        data,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    int((total + pp - 1) / pp),
	}
}

// HasMore 是否还有下一页
func (p *Page) HasMore() bool {
	return p.CurrentPage < p.LastPage
}
