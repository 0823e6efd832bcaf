package cloud

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/venrik/skydeck/internal/core"
	"github.com/venrik/skydeck/internal/session"
)

// FileAPI is the slice of the backend client the cloud session needs.
type FileAPI interface {
	ListFiles(ctx context.Context, provider core.Provider) ([]core.FileEntry, error)
	SearchFiles(ctx context.Context, query string) ([]core.FileEntry, error)
	FuzzySearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error)
	SynonymSearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error)
	UploadFile(ctx context.Context, provider core.Provider, name string, content io.Reader) error
	DeleteFile(ctx context.Context, provider core.Provider, file core.FileEntry) error
	DownloadLink(ctx context.Context, provider core.Provider, file core.FileEntry) (string, error)
	BatchDownloadLinks(ctx context.Context, provider core.Provider, files []core.FileEntry) ([]string, error)
	UploadLinks(ctx context.Context, links []string) error
}

// State is what consumers render from. Files and Stats are derived state:
// they are discarded wholesale on provider switch, search, upload and delete.
type State struct {
	Provider  core.Provider
	Connected bool
	Files     []core.FileEntry
	Loading   bool
	Err       string
	Stats     core.Stats
}

type SearchMode int

const (
	SearchPlain SearchMode = iota
	SearchFuzzy
	SearchSynonym
)

// Session owns the connected-provider state and its derived file listing.
// Every fetch is tagged with the generation it was issued under; a response
// resolving after a provider switch or disconnect finds a newer generation
// and is discarded, so new-provider labels are never shown with old-provider
// data.
type Session struct {
	api      FileAPI
	sessions *session.Service
	navigate func(path string)
	onChange func(State)
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation int

	enrich sync.WaitGroup
}

type Options struct {
	API      FileAPI
	Sessions *session.Service
	Navigate func(path string)
	OnChange func(State)
	Now      func() time.Time
}

func NewSession(opts Options) *Session {
	s := &Session{
		api:      opts.API,
		sessions: opts.Sessions,
		navigate: opts.Navigate,
		onChange: opts.OnChange,
		now:      opts.Now,
	}

	if s.navigate == nil {
		s.navigate = func(string) {}
	}
	if s.onChange == nil {
		s.onChange = func(State) {}
	}
	if s.now == nil {
		s.now = time.Now
	}

	if provider, ok := opts.Sessions.Provider(); ok {
		s.state.Provider = provider
	}

	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectProvider switches the active provider. Same-provider selection is a
// no-op. Derived state is cleared before the new selection is persisted, so
// stale data is never visible under the new provider's label.
func (s *Session) SelectProvider(provider core.Provider) error {
	if !provider.Valid() {
		return fmt.Errorf("select provider: unknown provider %q", string(provider))
	}

	s.mu.Lock()
	if s.state.Provider == provider {
		s.mu.Unlock()
		return nil
	}

	s.generation++
	s.clearDerivedLocked()
	s.state.Provider = provider
	snapshot := s.state
	s.mu.Unlock()

	if err := s.sessions.SetProvider(provider); err != nil {
		return fmt.Errorf("select provider: %w", err)
	}

	s.onChange(snapshot)
	return nil
}

// FetchFiles loads the listing for the current provider. Only the most
// recent invocation's result is applied; anything resolving under a stale
// generation is dropped.
func (s *Session) FetchFiles(ctx context.Context) error {
	s.mu.Lock()
	provider := s.state.Provider
	if !provider.Valid() {
		s.mu.Unlock()
		s.navigate("/selectcloud")
		return nil
	}

	s.generation++
	fetchGen := s.generation
	s.clearDerivedLocked()
	s.state.Loading = true
	snapshot := s.state
	s.mu.Unlock()
	s.onChange(snapshot)

	files, err := s.api.ListFiles(ctx, provider)

	s.mu.Lock()
	if s.generation != fetchGen || s.state.Provider != provider {
		// A provider switch or disconnect happened while this fetch was in
		// flight. The newer operation owns the state now.
		s.mu.Unlock()
		return nil
	}

	s.state.Loading = false
	if err != nil {
		s.clearDerivedLocked()
		s.state.Err = err.Error()
		snapshot = s.state
		s.mu.Unlock()
		s.onChange(snapshot)
		return fmt.Errorf("fetch files: %w", err)
	}

	s.state.Files = files
	s.state.Stats = ComputeStats(files, s.now())
	s.state.Connected = true
	s.state.Err = ""
	snapshot = s.state
	s.mu.Unlock()
	s.onChange(snapshot)

	s.enrich.Add(1)
	go func() {
		defer s.enrich.Done()
		s.enrichInBackground(ctx, provider, files)
	}()

	return nil
}

// Disconnect drops the persisted selection and all derived state, then sends
// the user back to provider selection. Idempotent: nothing stale survives.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	s.generation++
	s.clearDerivedLocked()
	s.state.Provider = ""
	s.state.Loading = false
	snapshot := s.state
	s.mu.Unlock()

	err := s.sessions.ClearProvider()

	s.onChange(snapshot)
	s.navigate("/selectcloud")

	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Search replaces the visible listing wholesale with the backend's results.
// On failure the current listing is left untouched and the error is returned
// for the caller to surface transiently.
func (s *Session) Search(ctx context.Context, mode SearchMode, query string) error {
	s.mu.Lock()
	provider := s.state.Provider
	searchGen := s.generation
	s.mu.Unlock()

	if !provider.Valid() {
		return fmt.Errorf("search: no provider selected")
	}

	var files []core.FileEntry
	var err error

	switch mode {
	case SearchFuzzy:
		files, err = s.api.FuzzySearch(ctx, provider, query)
	case SearchSynonym:
		files, err = s.api.SynonymSearch(ctx, provider, query)
	default:
		files, err = s.api.SearchFiles(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	s.mu.Lock()
	if s.generation != searchGen || s.state.Provider != provider {
		s.mu.Unlock()
		return nil
	}

	s.state.Files = files
	s.state.Stats = ComputeStats(files, s.now())
	snapshot := s.state
	s.mu.Unlock()
	s.onChange(snapshot)

	return nil
}

// ResetSearch restores the full listing by refetching it.
func (s *Session) ResetSearch(ctx context.Context) error {
	return s.FetchFiles(ctx)
}

// Upload sends one file and refreshes the listing on success.
func (s *Session) Upload(ctx context.Context, name string, content io.Reader) error {
	s.mu.Lock()
	provider := s.state.Provider
	s.mu.Unlock()

	if !provider.Valid() {
		return fmt.Errorf("upload: no provider selected")
	}

	if err := s.api.UploadFile(ctx, provider, name, content); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	return s.FetchFiles(ctx)
}

// Delete removes one file and refreshes the listing on success.
func (s *Session) Delete(ctx context.Context, file core.FileEntry) error {
	s.mu.Lock()
	provider := s.state.Provider
	s.mu.Unlock()

	if !provider.Valid() {
		return fmt.Errorf("delete: no provider selected")
	}

	if err := s.api.DeleteFile(ctx, provider, file); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return s.FetchFiles(ctx)
}

// DownloadLink resolves a sharable link for one file.
func (s *Session) DownloadLink(ctx context.Context, file core.FileEntry) (string, error) {
	s.mu.Lock()
	provider := s.state.Provider
	s.mu.Unlock()

	if !provider.Valid() {
		return "", fmt.Errorf("download link: no provider selected")
	}

	link, err := s.api.DownloadLink(ctx, provider, file)
	if err != nil {
		return "", fmt.Errorf("download link: %w", err)
	}

	return link, nil
}

func (s *Session) clearDerivedLocked() {
	s.state.Files = nil
	s.state.Stats = core.Stats{}
	s.state.Connected = false
	s.state.Err = ""
}
