package session

import (
	"github.com/venrik/skydeck/internal/core"
	"github.com/venrik/skydeck/internal/store"
)

const selectedCloudKey = "selected_cloud"

// Service is the single authoritative source of session state. The top-level
// gate and every route guard consult it instead of re-deriving token state
// independently, so the two checks cannot diverge.
type Service struct {
	tokens *store.TokenStore
	state  *store.Store
}

func NewService(tokens *store.TokenStore, state *store.Store) *Service {
	return &Service{tokens: tokens, state: state}
}

// Snapshot re-reads token and provider from persistent storage. This is a
// deliberate re-validation on every route change, never a cached flag, so
// out-of-band token removal is noticed on the next navigation.
func (s *Service) Snapshot() Snapshot {
	_, hasToken := s.tokens.Get()

	provider, hasProvider := s.Provider()

	return Snapshot{
		HasToken: hasToken,
		Provider: provider,
		State:    StateOf(hasToken, hasProvider),
	}
}

// Provider returns the persisted provider selection, if it parses.
func (s *Service) Provider() (core.Provider, bool) {
	value, ok := s.state.Get(selectedCloudKey)
	if !ok {
		return "", false
	}

	provider, err := core.ParseProvider(value)
	if err != nil {
		return "", false
	}

	return provider, true
}

// SetProvider persists the provider selection.
func (s *Service) SetProvider(provider core.Provider) error {
	return s.state.Set(selectedCloudKey, string(provider))
}

// ClearProvider removes the persisted provider selection.
func (s *Service) ClearProvider() error {
	return s.state.Delete(selectedCloudKey)
}

// Resolve decides render-or-redirect for path from fresh storage reads.
func (s *Service) Resolve(path string) Decision {
	_, hasToken := s.tokens.Get()
	_, hasProvider := s.Provider()
	return Resolve(hasToken, hasProvider, path)
}

type Snapshot struct {
	HasToken bool
	Provider core.Provider
	State    State
}
