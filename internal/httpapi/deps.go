package httpapi

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"dealflow-engine/internal/config"
	"dealflow-engine/internal/discovery"
	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/events"
	"dealflow-engine/internal/store"
)

// Searcher runs one discovery search for a workspace.
type Searcher interface {
	Run(ctx context.Context, workspaceID string, req domain.SearchRequest) (discovery.Result, error)
}

type ListingReader interface {
	ListListings(ctx context.Context, workspaceID string, opts store.ListListingsOpts) ([]domain.Listing, error)
}

type Store interface {
	ListingReader
	Ping(ctx context.Context) error
	Checkpoint(ctx context.Context) error
}

type Deps struct {
	Store Store
	Hub   *events.Hub
	Auth  Authenticator
	Log   zerolog.Logger

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// NewSearcher builds a pipeline from the live config. Credentials are
	// resolved per call so a key stored at runtime takes effect immediately.
	NewSearcher func(cfg config.Config) (Searcher, error)

	SetSecret func(name, value string) error
}
