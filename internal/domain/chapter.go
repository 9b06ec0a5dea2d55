package domain

// ChapterContent is a fetched chapter: the raw markup for the renderer and
// the geotags extracted from it.
type ChapterContent struct {
	BookID  int      `json:"book_id"`
	Chapter int      `json:"chapter"`
	Markup  string   `json:"markup"`
	Geotags []Geotag `json:"geotags"`
}

// ChapterLink points at an adjacent chapter for prev/next navigation.
type ChapterLink struct {
	BookID   int    `json:"book_id"`
	Chapter  int    `json:"chapter"`
	Title    string `json:"title"`
	Fragment string `json:"fragment"`
}
