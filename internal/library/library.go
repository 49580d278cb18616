// package library groups a user's saved songs by release year
package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/desertthunder/songyears/internal/services"
	"github.com/desertthunder/songyears/internal/shared"
	"github.com/samber/lo"
)

// Item is the part of a saved track the grouping needs.
type Item struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"` // YYYY-MM-DD, YYYY-MM or YYYY
}

// Year returns the first four characters of the release date, or the whole date when it is shorter.
func (i Item) Year() string {
	if len(i.ReleaseDate) < 4 {
		return i.ReleaseDate
	}
	return i.ReleaseDate[:4]
}

// YearGroup is one year and the songs released in it.
type YearGroup struct {
	Year  string   `json:"year"`
	Songs []string `json:"songs"`
}

// YearGroups maps release years to song names.
//
// Years keep the order in which they were first added and songs keep the order of the input.
type YearGroups struct {
	years []string
	songs map[string][]string
}

// NewYearGroups returns an empty grouping.
func NewYearGroups() *YearGroups {
	return &YearGroups{songs: make(map[string][]string)}
}

// Add appends a song to its year, creating the year if it is new.
func (g *YearGroups) Add(year, song string) {
	if _, ok := g.songs[year]; !ok {
		g.years = append(g.years, year)
	}
	g.songs[year] = append(g.songs[year], song)
}

// Years returns the years in first-seen order.
func (g *YearGroups) Years() []string {
	return slices.Clone(g.years)
}

// Songs returns the songs released in year.
func (g *YearGroups) Songs(year string) []string {
	return slices.Clone(g.songs[year])
}

// Len returns the number of years.
func (g *YearGroups) Len() int {
	return len(g.years)
}

// Count returns the number of songs across all years.
func (g *YearGroups) Count() int {
	return lo.SumBy(g.years, func(year string) int { return len(g.songs[year]) })
}

// Groups returns the grouping as an ordered slice.
func (g *YearGroups) Groups() []YearGroup {
	return lo.Map(g.years, func(year string, _ int) YearGroup {
		return YearGroup{Year: year, Songs: g.Songs(year)}
	})
}

// Items flattens the grouping back into items whose release date is the year.
//
// Grouping the result again yields an equal grouping.
func (g *YearGroups) Items() []Item {
	return lo.FlatMap(g.years, func(year string, _ int) []Item {
		return lo.Map(g.songs[year], func(song string, _ int) Item {
			return Item{Name: song, ReleaseDate: year}
		})
	})
}

// Sorted returns a copy with years in ascending order.
func (g *YearGroups) Sorted() *YearGroups {
	sorted := NewYearGroups()
	years := g.Years()
	slices.Sort(years)
	for _, year := range years {
		for _, song := range g.songs[year] {
			sorted.Add(year, song)
		}
	}
	return sorted
}

// Equal reports whether both groupings hold the same years in the same order with the same songs.
func (g *YearGroups) Equal(other *YearGroups) bool {
	if !slices.Equal(g.years, other.years) {
		return false
	}
	for _, year := range g.years {
		if !slices.Equal(g.songs[year], other.songs[year]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the grouping as a JSON object whose keys follow the year order.
func (g *YearGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, year := range g.years {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(year)
		if err != nil {
			return nil, err
		}

		songs := g.songs[year]
		if songs == nil {
			songs = []string{}
		}
		value, err := json.Marshal(songs)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GroupByYear groups item names by release year.
//
// An item without a release date fails the whole grouping with [shared.ErrMissingReleaseDate].
func GroupByYear(items []Item) (*YearGroups, error) {
	groups := NewYearGroups()
	for i, item := range items {
		if item.ReleaseDate == "" {
			return nil, fmt.Errorf("%w: item %d (%q)", shared.ErrMissingReleaseDate, i, item.Name)
		}
		groups.Add(item.Year(), item.Name)
	}
	return groups, nil
}

// ItemsFromSaved converts saved tracks into items.
//
// An entry without a track fails with [shared.ErrMalformedItem].
func ItemsFromSaved(saved []services.SpotifySavedTrack) ([]Item, error) {
	items := make([]Item, 0, len(saved))
	for i, entry := range saved {
		if entry.Track == nil {
			return nil, fmt.Errorf("%w: saved track %d has no track", shared.ErrMalformedItem, i)
		}
		items = append(items, Item{Name: entry.Track.Name, ReleaseDate: entry.Track.Album.ReleaseDate})
	}
	return items, nil
}
