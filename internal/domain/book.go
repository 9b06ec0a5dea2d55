package domain

type Book struct {
	ID           int    `json:"id"`
	ParentBookID int    `json:"parentBookId"` // owning volume id
	Abbr         string `json:"abbr"`
	CiteFull     string `json:"citeFull"`
	FullName     string `json:"fullName"`
	TocName      string `json:"tocName"`
	GridName     string `json:"gridName"`
	WebTitle     string `json:"webTitle"`
	Subdiv       string `json:"subdiv"` // "chapter", "section", ...
	NumChapters  int    `json:"numChapters"`
}

type Volume struct {
	ID        int    `json:"id"`
	Abbr      string `json:"abbr"`
	FullName  string `json:"fullName"`
	GridName  string `json:"gridName"`
	MinBookID int    `json:"minBookId"`
	MaxBookID int    `json:"maxBookId"`

	// Books is derived once both catalogs are loaded.
	Books []*Book `json:"books,omitempty"`
}
