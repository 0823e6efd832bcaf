package cloud

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/venrik/skydeck/internal/core"
	"github.com/venrik/skydeck/internal/session"
	"github.com/venrik/skydeck/internal/store"
)

type fakeAPI struct {
	mu sync.Mutex

	listings map[core.Provider][]core.FileEntry
	listErr  error
	// When set for a provider, ListFiles blocks until the channel closes.
	listGate map[core.Provider]chan struct{}

	searchResults []core.FileEntry
	searchErr     error

	batchLinks      []string
	batchErr        error
	batchCalls      int
	uploadLinksGot  [][]string
	uploadLinksErr  error
	deleteCalls     int
	uploadFileCalls int
}

func (f *fakeAPI) ListFiles(ctx context.Context, provider core.Provider) ([]core.FileEntry, error) {
	f.mu.Lock()
	gate := f.listGate[provider]
	listErr := f.listErr
	files := f.listings[provider]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if listErr != nil {
		return nil, listErr
	}
	return files, nil
}

func (f *fakeAPI) SearchFiles(ctx context.Context, query string) ([]core.FileEntry, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeAPI) FuzzySearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeAPI) SynonymSearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeAPI) UploadFile(ctx context.Context, provider core.Provider, name string, content io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadFileCalls++
	return nil
}

func (f *fakeAPI) DeleteFile(ctx context.Context, provider core.Provider, file core.FileEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

func (f *fakeAPI) DownloadLink(ctx context.Context, provider core.Provider, file core.FileEntry) (string, error) {
	return "https://example.com/dl", nil
}

func (f *fakeAPI) BatchDownloadLinks(ctx context.Context, provider core.Provider, files []core.FileEntry) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	return f.batchLinks, f.batchErr
}

func (f *fakeAPI) UploadLinks(ctx context.Context, links []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadLinksGot = append(f.uploadLinksGot, links)
	return f.uploadLinksErr
}

type harness struct {
	api       *fakeAPI
	sess      *Session
	svc       *session.Service
	mu        sync.Mutex
	frames    []State
	navigated []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backing := store.New(t.TempDir())
	svc := session.NewService(store.NewTokenStore(backing), backing)

	h := &harness{
		api: &fakeAPI{
			listings: map[core.Provider][]core.FileEntry{},
			listGate: map[core.Provider]chan struct{}{},
		},
		svc: svc,
	}

	h.sess = NewSession(Options{
		API:      h.api,
		Sessions: svc,
		Navigate: func(path string) {
			h.mu.Lock()
			h.navigated = append(h.navigated, path)
			h.mu.Unlock()
		},
		OnChange: func(state State) {
			h.mu.Lock()
			h.frames = append(h.frames, state)
			h.mu.Unlock()
		},
		Now: func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	})

	return h
}

func driveFiles() []core.FileEntry {
	return []core.FileEntry{
		{ID: "g1", Name: "drive-doc", MimeType: "text/plain", Size: int64Ptr(5)},
	}
}

func dropboxFiles() []core.FileEntry {
	return []core.FileEntry{
		{ID: "/notes.txt", Name: "notes.txt", MimeType: "text/plain", PathLower: "/notes.txt", Size: int64Ptr(9)},
	}
}

func TestFetchFilesSuccess(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatalf("FetchFiles failed: %v", err)
	}

	state := h.sess.State()
	if !state.Connected {
		t.Error("expected connected")
	}
	if state.Loading {
		t.Error("expected loading cleared")
	}
	if len(state.Files) != 1 || state.Files[0].ID != "g1" {
		t.Fatalf("unexpected files: %+v", state.Files)
	}
	if state.Stats.TotalFiles != 1 || state.Stats.TotalSize != 5 {
		t.Errorf("unexpected stats: %+v", state.Stats)
	}
}

func TestFetchFilesWithoutProviderRedirects(t *testing.T) {
	h := newHarness(t)

	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatalf("FetchFiles failed: %v", err)
	}

	if len(h.navigated) != 1 || h.navigated[0] != "/selectcloud" {
		t.Fatalf("expected redirect to /selectcloud, got %v", h.navigated)
	}
}

func TestFetchFilesErrorResetsState(t *testing.T) {
	h := newHarness(t)
	h.api.listErr = errors.New("backend down")

	if err := h.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	state := h.sess.State()
	if state.Loading {
		t.Error("loading must be cleared even on failure")
	}
	if state.Connected {
		t.Error("expected not connected")
	}
	if state.Err == "" {
		t.Error("expected error message in state")
	}
	if state.Files != nil {
		t.Errorf("expected no files, got %+v", state.Files)
	}
	if state.Stats != (core.Stats{}) {
		t.Errorf("expected zero stats, got %+v", state.Stats)
	}
}

func TestStaleFetchDiscardedOnProviderSwitch(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()
	h.api.listings[core.ProviderDropbox] = dropboxFiles()

	gate := make(chan struct{})
	h.api.listGate[core.ProviderGoogleDrive] = gate

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- h.sess.FetchFiles(context.Background())
	}()

	// Wait for the fetch to be in flight (loading frame observed).
	waitFor(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, frame := range h.frames {
			if frame.Loading {
				return true
			}
		}
		return false
	})

	// Switch providers while the Drive listing is still in flight.
	if err := h.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}
	close(gate)

	if err := <-done; err != nil {
		t.Fatalf("stale fetch returned error: %v", err)
	}

	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatalf("dropbox fetch failed: %v", err)
	}

	state := h.sess.State()
	if state.Provider != core.ProviderDropbox {
		t.Fatalf("provider: got %v", state.Provider)
	}
	if len(state.Files) != 1 || state.Files[0].ID != "/notes.txt" {
		t.Fatalf("expected dropbox files only, got %+v", state.Files)
	}

	// No frame may ever pair the Dropbox label with Drive data.
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, frame := range h.frames {
		if frame.Provider != core.ProviderDropbox {
			continue
		}
		for _, file := range frame.Files {
			if file.ID == "g1" {
				t.Fatalf("frame %d shows Drive entry under Dropbox label", i)
			}
		}
	}
}

func TestSelectProviderClearsBeforeNewLabel(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := h.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}

	state := h.sess.State()
	if state.Provider != core.ProviderDropbox {
		t.Fatalf("provider: got %v", state.Provider)
	}
	if state.Files != nil || state.Connected || state.Err != "" || state.Stats != (core.Stats{}) {
		t.Fatalf("derived state must be cleared on switch, got %+v", state)
	}

	// Selection must be persisted for the next startup.
	if provider, ok := h.svc.Provider(); !ok || provider != core.ProviderDropbox {
		t.Fatalf("persisted provider: got (%v, %v)", provider, ok)
	}
}

func TestSelectSameProviderIsNoop(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}

	before := h.sess.State()
	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	after := h.sess.State()

	if len(after.Files) != len(before.Files) || after.Connected != before.Connected {
		t.Fatalf("same-provider select must not clear state: before %+v after %+v", before, after)
	}
}

func TestDisconnectThenSelectEqualsSelectAlone(t *testing.T) {
	dirtied := newHarness(t)
	dirtied.api.listings[core.ProviderGoogleDrive] = driveFiles()

	if err := dirtied.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := dirtied.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := dirtied.sess.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if err := dirtied.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}

	fresh := newHarness(t)
	if err := fresh.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}

	got := dirtied.sess.State()
	want := fresh.sess.State()
	if got.Provider != want.Provider || got.Connected != want.Connected ||
		got.Err != want.Err || got.Stats != want.Stats ||
		len(got.Files) != len(want.Files) {
		t.Fatalf("disconnect leaked state:\n got %+v\nwant %+v", got, want)
	}
}

func TestDisconnectNavigatesToSelection(t *testing.T) {
	h := newHarness(t)

	if err := h.sess.SelectProvider(core.ProviderDropbox); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.Disconnect(); err != nil {
		t.Fatal(err)
	}

	if len(h.navigated) == 0 || h.navigated[len(h.navigated)-1] != "/selectcloud" {
		t.Fatalf("expected navigation to /selectcloud, got %v", h.navigated)
	}
	if _, ok := h.svc.Provider(); ok {
		t.Fatal("expected persisted selection to be cleared")
	}
}

func TestSearchReplacesListingWholesale(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()
	h.api.searchResults = []core.FileEntry{{ID: "hit", Name: "hit.txt", Size: int64Ptr(1)}}

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := h.sess.Search(context.Background(), SearchFuzzy, "hit"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	state := h.sess.State()
	if len(state.Files) != 1 || state.Files[0].ID != "hit" {
		t.Fatalf("expected search results to replace listing, got %+v", state.Files)
	}
	if state.Stats.TotalFiles != 1 || state.Stats.TotalSize != 1 {
		t.Errorf("stats not recomputed for results: %+v", state.Stats)
	}
}

func TestSearchErrorLeavesListingUntouched(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()
	h.api.searchErr = errors.New("search exploded")

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := h.sess.Search(context.Background(), SearchPlain, "x"); err == nil {
		t.Fatal("expected error")
	}

	state := h.sess.State()
	if len(state.Files) != 1 || state.Files[0].ID != "g1" {
		t.Fatalf("failed search must not touch listing, got %+v", state.Files)
	}
}

func TestBackgroundEnrichmentForwardsLinks(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()
	h.api.batchLinks = []string{"https://example.com/a"}

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.sess.enrich.Wait()

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	if h.api.batchCalls != 1 {
		t.Errorf("batch calls: got %d, want 1", h.api.batchCalls)
	}
	if len(h.api.uploadLinksGot) != 1 || h.api.uploadLinksGot[0][0] != "https://example.com/a" {
		t.Errorf("upload links: got %v", h.api.uploadLinksGot)
	}
}

func TestBackgroundEnrichmentFailureIsInvisible(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()
	h.api.batchErr = errors.New("enrichment down")

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.FetchFiles(context.Background()); err != nil {
		t.Fatalf("enrichment failure must not surface: %v", err)
	}
	h.sess.enrich.Wait()

	state := h.sess.State()
	if !state.Connected || state.Err != "" || len(state.Files) != 1 {
		t.Fatalf("enrichment failure altered visible state: %+v", state)
	}
}

func TestUploadAndDeleteRefreshListing(t *testing.T) {
	h := newHarness(t)
	h.api.listings[core.ProviderGoogleDrive] = driveFiles()

	if err := h.sess.SelectProvider(core.ProviderGoogleDrive); err != nil {
		t.Fatal(err)
	}

	if err := h.sess.Upload(context.Background(), "new.txt", nil); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := h.sess.Delete(context.Background(), driveFiles()[0]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	if h.api.uploadFileCalls != 1 || h.api.deleteCalls != 1 {
		t.Errorf("calls: upload %d delete %d", h.api.uploadFileCalls, h.api.deleteCalls)
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
