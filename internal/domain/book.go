package domain

// Book is a catalogue entry. Physical items are tracked separately as BookCopy.
// No two books share the same (Title, Author, Genre) triple.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       Genre  `json:"genre"`
	Description string `json:"description"`
}

// SameIdentity reports whether b and other describe the same catalogue entry.
func (b *Book) SameIdentity(other *Book) bool {
	return b.Title == other.Title && b.Author == other.Author && b.Genre == other.Genre
}

// BookCopy is a single lendable item of a Book.
// IsAvailable is false exactly while an open loan references the copy.
type BookCopy struct {
	ID          int64 `json:"id"`
	BookID      int64 `json:"book_id"`
	IsAvailable bool  `json:"is_available"`
}
