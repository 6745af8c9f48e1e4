package confluence

// Page is the immutable record the formatter renders.
type Page struct {
	ID       string
	Title    string
	SpaceKey string
	Version  int
	Body     string
	Created  string
	Updated  string
	Author   string
}

// Space groups pages.
type Space struct {
	ID   int
	Key  string
	Name string
	Type string
}

// SearchResult is one page of a CQL search.
type SearchResult struct {
	Total int
	Pages []Page
}

type pageDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
		By     struct {
			DisplayName string `json:"displayName"`
		} `json:"by"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	History struct {
		CreatedDate string `json:"createdDate"`
		CreatedBy   struct {
			DisplayName string `json:"displayName"`
		} `json:"createdBy"`
	} `json:"history"`
}

type pageListDTO struct {
	Results   []pageDTO `json:"results"`
	Size      int       `json:"size"`
	TotalSize int       `json:"totalSize"`
}

type spaceDTO struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type spaceListDTO struct {
	Results []spaceDTO `json:"results"`
}

func (d pageDTO) record() Page {
	return Page{
		ID:       d.ID,
		Title:    d.Title,
		SpaceKey: d.Space.Key,
		Version:  d.Version.Number,
		Body:     d.Body.Storage.Value,
		Created:  d.History.CreatedDate,
		Updated:  d.Version.When,
		Author:   d.History.CreatedBy.DisplayName,
	}
}
