package session

import (
	"encoding/json"
	"os"

	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/internal/version"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/utils"
)

type envelope struct {
	Version string  `json:"version"`
	Context Context `json:"context"`
}

// Store persists a Context as a versioned JSON document.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the stored context. found is false when nothing was saved yet.
func (s *Store) Load() (Context, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Context{}, false, nil
	}

	if err != nil {
		return Context{}, false, errors.Wrapf(errors.ErrCodeSessionLoadFailed, err, "failed to read session file %s", s.path)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Context{}, false, errors.Wrapf(errors.ErrCodeSessionLoadFailed, err, "failed to decode session file %s", s.path)
	}

	if err := version.CheckVersionCompatibility(version.SessionSchemaVersion, env.Version); err != nil {
		return Context{}, false, errors.Wrapf(errors.ErrCodeSessionIncompatible, err, "session file %s has schema %q", s.path, env.Version)
	}

	ctx := env.Context
	if ctx.Journal == nil {
		ctx.Journal = []string{}
	}

	if ctx.Trades == nil {
		ctx.Trades = []types.TradeRecord{}
	}

	return ctx, true, nil
}

// Save replaces the stored context atomically.
func (s *Store) Save(c Context) error {
	data, err := json.MarshalIndent(envelope{Version: version.SessionSchemaVersion, Context: c}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionSaveFailed, "failed to encode session", err)
	}

	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeSessionSaveFailed, err, "failed to write session file %s", s.path)
	}

	return nil
}
