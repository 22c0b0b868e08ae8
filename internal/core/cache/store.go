// Package cache stores season documents as JSON blobs keyed by data kind and year.
package cache

import (
	"context"
	"errors"
)

// Kind names a family of cached documents.
type Kind string

const (
	KindSeasons     Kind = "raw/seasons"
	KindDrivers     Kind = "raw/drivers"
	KindStandings   Kind = "processed/standings"
	KindTyres       Kind = "processed/tyres"
	KindTeamBattles Kind = "processed/team-battles"
)

// ErrNotFound is returned by Load on a cache miss.
var ErrNotFound = errors.New("cache entry not found")

type Store interface {
	Load(ctx context.Context, kind Kind, year int, out any) error
	LoadRaw(ctx context.Context, kind Kind, year int) ([]byte, error)
	Save(ctx context.Context, kind Kind, year int, v any) error
	Delete(ctx context.Context, kind Kind, year int) error
	// Years lists the years stored for kind, newest first.
	Years(ctx context.Context, kind Kind) ([]int, error)
}
