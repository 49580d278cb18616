package services

import (
	"sync"

	"golang.org/x/oauth2"
)

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every token it has not seen before.
//
// Pages are fetched concurrently, so Token may be called from several goroutines.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}

	return token, nil
}
