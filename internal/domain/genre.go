package domain

import "fmt"

// Genre is the closed set of categories a book can be filed under.
// The zero value is not a valid genre; use GenreOther when none applies.
type Genre string

// Known genres.
const (
	GenreMystery   Genre = "Mystery"
	GenreRomance   Genre = "Romance"
	GenreSciFi     Genre = "SciFi"
	GenreFantasy   Genre = "Fantasy"
	GenreBiography Genre = "Biography"
	GenreHistory   Genre = "History"
	GenreSelfHelp  Genre = "SelfHelp"
	GenreOther     Genre = "Other"
)

var genres = []Genre{
	GenreMystery,
	GenreRomance,
	GenreSciFi,
	GenreFantasy,
	GenreBiography,
	GenreHistory,
	GenreSelfHelp,
	GenreOther,
}

// Genres returns every known genre in declaration order.
func Genres() []Genre {
	out := make([]Genre, len(genres))
	copy(out, genres)
	return out
}

// IsValid reports whether g is one of the known genres.
func (g Genre) IsValid() bool {
	for _, known := range genres {
		if g == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (g Genre) String() string {
	return string(g)
}

// ParseGenre converts a raw name into a Genre.
// An empty name yields GenreOther.
func ParseGenre(name string) (Genre, error) {
	if name == "" {
		return GenreOther, nil
	}
	g := Genre(name)
	if !g.IsValid() {
		return "", fmt.Errorf("unknown genre %q", name)
	}
	return g, nil
}
