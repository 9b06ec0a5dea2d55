package domain

import "fmt"

type StateKind int

const (
	StateHome StateKind = iota
	StateVolume
	StateBook
	StateChapter
)

func (k StateKind) String() string {
	switch k {
	case StateHome:
		return "home"
	case StateVolume:
		return "volume"
	case StateBook:
		return "book"
	case StateChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

// NavigationState is the view a URL fragment resolves to. Only the fields
// that belong to Kind are meaningful.
type NavigationState struct {
	Kind     StateKind `json:"kind"`
	VolumeID int       `json:"volume_id,omitempty"`
	BookID   int       `json:"book_id,omitempty"`
	Chapter  int       `json:"chapter,omitempty"`
}

func Home() NavigationState {
	return NavigationState{Kind: StateHome}
}

func VolumeState(volumeID int) NavigationState {
	return NavigationState{Kind: StateVolume, VolumeID: volumeID}
}

func BookState(volumeID, bookID int) NavigationState {
	return NavigationState{Kind: StateBook, VolumeID: volumeID, BookID: bookID}
}

func ChapterState(volumeID, bookID, chapter int) NavigationState {
	return NavigationState{Kind: StateChapter, VolumeID: volumeID, BookID: bookID, Chapter: chapter}
}

// Fragment renders the state back into its canonical URL fragment.
func (s NavigationState) Fragment() string {
	switch s.Kind {
	case StateVolume:
		return fmt.Sprintf("#%d", s.VolumeID)
	case StateBook:
		return fmt.Sprintf("#%d:%d", s.VolumeID, s.BookID)
	case StateChapter:
		return fmt.Sprintf("#%d:%d:%d", s.VolumeID, s.BookID, s.Chapter)
	default:
		return "#"
	}
}

func (s NavigationState) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Fragment())
}
