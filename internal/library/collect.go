package library

import (
	"context"
	"fmt"

	"github.com/desertthunder/songyears/internal/pager"
	"github.com/desertthunder/songyears/internal/services"
)

// SavedTrackSource returns one page of a user's saved tracks.
//
// [services.SpotifyClient] satisfies it.
type SavedTrackSource interface {
	SavedTracks(ctx context.Context, limit, offset int) (*services.SpotifyPaginatedTracks, error)
}

// FetchSavedTracks adapts src to a [pager.FetchFunc].
func FetchSavedTracks(src SavedTrackSource) pager.FetchFunc[services.SpotifySavedTrack] {
	return func(ctx context.Context, offset, limit int) (pager.Page[services.SpotifySavedTrack], error) {
		resp, err := src.SavedTracks(ctx, limit, offset)
		if err != nil {
			return pager.Page[services.SpotifySavedTrack]{}, err
		}
		return pager.Page[services.SpotifySavedTrack]{Items: resp.Items, Total: int(resp.Total)}, nil
	}
}

// SongsByYear collects every saved track from src and groups them by release year.
//
// Page failures only shrink the result; errors come from entries that cannot be grouped.
func SongsByYear(ctx context.Context, src SavedTrackSource, opts pager.Options) (*YearGroups, pager.Report, error) {
	saved, report := pager.CollectWithReport(ctx, FetchSavedTracks(src), opts)

	items, err := ItemsFromSaved(saved)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read saved tracks: %w", err)
	}

	groups, err := GroupByYear(items)
	if err != nil {
		return nil, report, fmt.Errorf("failed to group saved tracks: %w", err)
	}

	return groups, report, nil
}
