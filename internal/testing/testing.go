// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/songyears/internal/services"
)

// FakeLibrary is a test double for a user's saved-track library.
//
// It serves Tracks in pages and records every requested offset. Offsets listed in Fail return that error.
type FakeLibrary struct {
	Tracks     []services.SpotifySavedTrack
	Total      *int // reported total; defaults to len(Tracks)
	Fail       map[int]error
	Profile    *services.SpotifyUser
	ProfileErr error

	mu    sync.Mutex
	calls []int
}

// NewFakeLibrary builds a library from name/release date pairs.
func NewFakeLibrary(pairs ...string) *FakeLibrary {
	if len(pairs)%2 != 0 {
		panic("NewFakeLibrary: pairs must be name, release date")
	}

	tracks := make([]services.SpotifySavedTrack, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		tracks = append(tracks, SavedTrack(pairs[i], pairs[i+1]))
	}
	return &FakeLibrary{Tracks: tracks}
}

// SavedTrack returns a saved track with the given name and album release date.
func SavedTrack(name, releaseDate string) services.SpotifySavedTrack {
	return services.SpotifySavedTrack{
		AddedAt: "2024-01-01T00:00:00Z",
		Track: &services.SpotifyTrack{
			ID:    name,
			Name:  name,
			Album: services.SpotifyAlbum{Name: name + " (album)", ReleaseDate: releaseDate},
		},
	}
}

func (f *FakeLibrary) SavedTracks(ctx context.Context, limit, offset int) (*services.SpotifyPaginatedTracks, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.Fail[offset]; ok {
		return nil, err
	}

	total := len(f.Tracks)
	if f.Total != nil {
		total = *f.Total
	}

	start := min(offset, len(f.Tracks))
	end := min(offset+limit, len(f.Tracks))
	return &services.SpotifyPaginatedTracks{
		Items:  slices.Clone(f.Tracks[start:end]),
		Total:  services.Count(total),
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (f *FakeLibrary) UserProfile(ctx context.Context) (*services.SpotifyUser, error) {
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	if f.Profile != nil {
		return f.Profile, nil
	}
	return &services.SpotifyUser{ID: "fake-user", DisplayName: "Fake User", Email: "fake@example.com"}, nil
}

// Calls returns the requested offsets in ascending order.
func (f *FakeLibrary) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := slices.Clone(f.calls)
	slices.Sort(calls)
	return calls
}

// SavedTracksJSON renders a /me/tracks response body for tracks.
func SavedTracksJSON(total, limit, offset int, tracks ...services.SpotifySavedTrack) string {
	body := fmt.Sprintf(`{"total":%d,"limit":%d,"offset":%d,"items":[`, total, limit, offset)
	for i, t := range tracks {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(
			`{"added_at":%q,"track":{"id":%q,"name":%q,"album":{"name":%q,"release_date":%q}}}`,
			t.AddedAt, t.Track.ID, t.Track.Name, t.Track.Album.Name, t.Track.Album.ReleaseDate,
		)
	}
	return body + "]}"
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
