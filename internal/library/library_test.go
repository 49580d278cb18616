package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/songyears/internal/pager"
	"github.com/desertthunder/songyears/internal/services"
	"github.com/desertthunder/songyears/internal/shared"
	tu "github.com/desertthunder/songyears/internal/testing"
)

func quiet() pager.Options {
	return pager.Options{Logger: shared.NewLogger(&bytes.Buffer{})}
}

func TestItemYear(t *testing.T) {
	tc := []struct {
		date string
		want string
	}{
		{date: "2001-05-01", want: "2001"},
		{date: "1999-12", want: "1999"},
		{date: "2020", want: "2020"},
		{date: "199", want: "199"},
		{date: "0000-00-00", want: "0000"},
	}

	for _, tt := range tc {
		t.Run(tt.date, func(t *testing.T) {
			if got := (Item{ReleaseDate: tt.date}).Year(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGroupByYear(t *testing.T) {
	t.Run("groups in first-seen order", func(t *testing.T) {
		groups, err := GroupByYear([]Item{
			{Name: "A", ReleaseDate: "2001-05-01"},
			{Name: "B", ReleaseDate: "1999"},
			{Name: "C", ReleaseDate: "2001-11"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !slices.Equal(groups.Years(), []string{"2001", "1999"}) {
			t.Errorf("expected years [2001 1999], got %v", groups.Years())
		}
		if !slices.Equal(groups.Songs("2001"), []string{"A", "C"}) {
			t.Errorf("expected [A C] for 2001, got %v", groups.Songs("2001"))
		}
		if !slices.Equal(groups.Songs("1999"), []string{"B"}) {
			t.Errorf("expected [B] for 1999, got %v", groups.Songs("1999"))
		}
		if groups.Len() != 2 || groups.Count() != 3 {
			t.Errorf("expected 2 years and 3 songs, got %d and %d", groups.Len(), groups.Count())
		}
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		groups, err := GroupByYear([]Item{
			{Name: "A", ReleaseDate: "2010"},
			{Name: "A", ReleaseDate: "2010-02-02"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(groups.Songs("2010"), []string{"A", "A"}) {
			t.Errorf("expected duplicates, got %v", groups.Songs("2010"))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		groups, err := GroupByYear(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if groups.Len() != 0 {
			t.Errorf("expected no years, got %v", groups.Years())
		}
	})

	t.Run("short release date", func(t *testing.T) {
		groups, err := GroupByYear([]Item{{Name: "X", ReleaseDate: "19"}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(groups.Years(), []string{"19"}) {
			t.Errorf("expected year 19, got %v", groups.Years())
		}
	})

	t.Run("missing release date", func(t *testing.T) {
		_, err := GroupByYear([]Item{
			{Name: "A", ReleaseDate: "2001"},
			{Name: "B"},
		})
		if !errors.Is(err, shared.ErrMissingReleaseDate) {
			t.Errorf("expected ErrMissingReleaseDate, got %v", err)
		}
	})

	t.Run("regrouping is idempotent", func(t *testing.T) {
		groups, err := GroupByYear([]Item{
			{Name: "A", ReleaseDate: "2001-05-01"},
			{Name: "B", ReleaseDate: "1999"},
			{Name: "C", ReleaseDate: "2001-11"},
			{Name: "D", ReleaseDate: "1985-07-30"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		again, err := GroupByYear(groups.Items())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !groups.Equal(again) {
			t.Errorf("expected equal groupings, got %v and %v", groups.Groups(), again.Groups())
		}
	})
}

func TestYearGroups(t *testing.T) {
	build := func() *YearGroups {
		g := NewYearGroups()
		g.Add("2001", "A")
		g.Add("1999", "B")
		g.Add("2001", "C")
		return g
	}

	t.Run("MarshalJSON keeps year order", func(t *testing.T) {
		data, err := json.Marshal(build())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := `{"2001":["A","C"],"1999":["B"]}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("MarshalJSON empty", func(t *testing.T) {
		data, err := json.Marshal(NewYearGroups())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "{}" {
			t.Errorf("expected {}, got %s", data)
		}
	})

	t.Run("MarshalJSON escapes", func(t *testing.T) {
		g := NewYearGroups()
		g.Add("2001", `say "hi" </script>`)

		var decoded map[string][]string
		data, err := json.Marshal(g)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("expected valid JSON, got %v: %s", err, data)
		}
		if decoded["2001"][0] != `say "hi" </script>` {
			t.Errorf("unexpected round trip %q", decoded["2001"][0])
		}
	})

	t.Run("Groups", func(t *testing.T) {
		groups := build().Groups()
		if len(groups) != 2 || groups[0].Year != "2001" || groups[1].Year != "1999" {
			t.Fatalf("unexpected groups %+v", groups)
		}
		if !slices.Equal(groups[0].Songs, []string{"A", "C"}) {
			t.Errorf("expected [A C], got %v", groups[0].Songs)
		}
	})

	t.Run("Sorted", func(t *testing.T) {
		g := build()
		sorted := g.Sorted()
		if !slices.Equal(sorted.Years(), []string{"1999", "2001"}) {
			t.Errorf("expected ascending years, got %v", sorted.Years())
		}
		if !slices.Equal(g.Years(), []string{"2001", "1999"}) {
			t.Error("expected Sorted to leave the original untouched")
		}
	})

	t.Run("accessors return copies", func(t *testing.T) {
		g := build()
		g.Years()[0] = "mutated"
		g.Songs("2001")[0] = "mutated"
		if g.Years()[0] != "2001" || g.Songs("2001")[0] != "A" {
			t.Error("expected accessors not to expose internal slices")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		if !build().Equal(build()) {
			t.Error("expected identical groupings to be equal")
		}
		other := build()
		other.Add("1999", "D")
		if build().Equal(other) {
			t.Error("expected different songs to differ")
		}
		if build().Equal(build().Sorted()) {
			t.Error("expected different year order to differ")
		}
	})
}

func TestItemsFromSaved(t *testing.T) {
	t.Run("reads track and album", func(t *testing.T) {
		items, err := ItemsFromSaved([]services.SpotifySavedTrack{
			tu.SavedTrack("A", "2001-05-01"),
			tu.SavedTrack("B", "1999"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []Item{{Name: "A", ReleaseDate: "2001-05-01"}, {Name: "B", ReleaseDate: "1999"}}
		if !slices.Equal(items, want) {
			t.Errorf("expected %v, got %v", want, items)
		}
	})

	t.Run("entry without track", func(t *testing.T) {
		_, err := ItemsFromSaved([]services.SpotifySavedTrack{tu.SavedTrack("A", "2001"), {AddedAt: "2024-01-01"}})
		if !errors.Is(err, shared.ErrMalformedItem) {
			t.Errorf("expected ErrMalformedItem, got %v", err)
		}
	})
}

func TestSongsByYear(t *testing.T) {
	t.Run("groups the whole library", func(t *testing.T) {
		lib := tu.NewFakeLibrary("A", "2001-05-01", "B", "1999", "C", "2001-11")

		groups, report, err := SongsByYear(context.Background(), lib, quiet())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(mustJSON(t, groups)) != `{"2001":["A","C"],"1999":["B"]}` {
			t.Errorf("unexpected grouping %s", mustJSON(t, groups))
		}
		if report.Requests != 1 {
			t.Errorf("expected 1 request, got %d", report.Requests)
		}
	})

	t.Run("pages through the library", func(t *testing.T) {
		lib := &tu.FakeLibrary{}
		for i := range 120 {
			lib.Tracks = append(lib.Tracks, tu.SavedTrack(fmt.Sprintf("song-%03d", i), fmt.Sprintf("%d-01-01", 1950+i%3)))
		}

		groups, report, err := SongsByYear(context.Background(), lib, quiet())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(lib.Calls(), []int{0, 50, 100}) {
			t.Errorf("expected offsets [0 50 100], got %v", lib.Calls())
		}
		if groups.Count() != 120 || report.Items != 120 {
			t.Errorf("expected 120 songs, got %d", groups.Count())
		}
		if !slices.Equal(groups.Years(), []string{"1950", "1951", "1952"}) {
			t.Errorf("unexpected years %v", groups.Years())
		}
		if groups.Songs("1950")[1] != "song-003" {
			t.Errorf("expected songs in library order, got %v", groups.Songs("1950")[:3])
		}
	})

	t.Run("failed page shrinks the result", func(t *testing.T) {
		lib := &tu.FakeLibrary{Fail: map[int]error{50: fmt.Errorf("%w: status 500", shared.ErrAPIRequest)}}
		for i := range 150 {
			lib.Tracks = append(lib.Tracks, tu.SavedTrack(fmt.Sprintf("song-%03d", i), "2000"))
		}

		groups, report, err := SongsByYear(context.Background(), lib, quiet())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if groups.Count() != 100 || report.Failures != 1 {
			t.Errorf("expected 100 songs and one failure, got %d and %d", groups.Count(), report.Failures)
		}
		songs := groups.Songs("2000")
		if songs[49] != "song-049" || songs[50] != "song-100" {
			t.Errorf("expected page 2 to be skipped, got %s then %s", songs[49], songs[50])
		}
	})

	t.Run("first page failure yields an empty grouping", func(t *testing.T) {
		lib := tu.NewFakeLibrary("A", "2001")
		lib.Fail = map[int]error{0: shared.ErrTokenExpired}

		groups, _, err := SongsByYear(context.Background(), lib, quiet())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if groups.Len() != 0 {
			t.Errorf("expected empty grouping, got %v", groups.Years())
		}
	})

	t.Run("unavailable track fails the grouping", func(t *testing.T) {
		lib := tu.NewFakeLibrary("A", "2001")
		lib.Tracks = append(lib.Tracks, services.SpotifySavedTrack{AddedAt: "2024-01-01"})

		_, _, err := SongsByYear(context.Background(), lib, quiet())
		if !errors.Is(err, shared.ErrMalformedItem) {
			t.Errorf("expected ErrMalformedItem, got %v", err)
		}
	})

	t.Run("missing release date fails the grouping", func(t *testing.T) {
		lib := tu.NewFakeLibrary("A", "2001", "B", "")

		_, _, err := SongsByYear(context.Background(), lib, quiet())
		if !errors.Is(err, shared.ErrMissingReleaseDate) {
			t.Errorf("expected ErrMissingReleaseDate, got %v", err)
		}
	})

	t.Run("zero total stops after one request", func(t *testing.T) {
		lib := tu.NewFakeLibrary("A", "2001")
		zero := 0
		lib.Total = &zero

		groups, _, err := SongsByYear(context.Background(), lib, quiet())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Calls()) != 1 || groups.Count() != 1 {
			t.Errorf("expected one request returning the first page, got %v", lib.Calls())
		}
	})
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return data
}
