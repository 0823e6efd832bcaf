package ui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/venrik/skydeck/internal/api"
	"github.com/venrik/skydeck/internal/auth"
	"github.com/venrik/skydeck/internal/chat"
	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/core"
)

func fetchFilesCmd(session *cloud.Session) tea.Cmd {
	return func() tea.Msg {
		return filesOpDoneMsg{op: "fetch", err: session.FetchFiles(context.Background())}
	}
}

func disconnectCmd(session *cloud.Session) tea.Cmd {
	return func() tea.Msg {
		return filesOpDoneMsg{op: "disconnect", err: session.Disconnect()}
	}
}

func searchCmd(session *cloud.Session, mode cloud.SearchMode, query string) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: session.Search(context.Background(), mode, query)}
	}
}

func resetSearchCmd(session *cloud.Session) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: session.ResetSearch(context.Background())}
	}
}

func uploadCmd(session *cloud.Session, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return filesOpDoneMsg{op: "upload", err: err}
		}
		defer file.Close()

		return filesOpDoneMsg{op: "upload", err: session.Upload(context.Background(), filepath.Base(path), file)}
	}
}

func deleteCmd(session *cloud.Session, file core.FileEntry) tea.Cmd {
	return func() tea.Msg {
		return filesOpDoneMsg{op: "delete", err: session.Delete(context.Background(), file)}
	}
}

func downloadLinkCmd(session *cloud.Session, file core.FileEntry) tea.Cmd {
	return func() tea.Msg {
		link, err := session.DownloadLink(context.Background(), file)
		return downloadLinkMsg{link: link, err: err}
	}
}

func loginCmd(actions *auth.Actions, creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: actions.Login(context.Background(), creds)}
	}
}

func registerCmd(actions *auth.Actions, req api.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		if err := actions.Register(context.Background(), req); err != nil {
			return authDoneMsg{register: true, err: err}
		}

		err := actions.Login(context.Background(), api.Credentials{
			Username: req.Username,
			Password: req.Password,
		})
		return authDoneMsg{register: true, err: err}
	}
}

func logoutCmd(actions *auth.Actions) tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: actions.Logout(context.Background())}
	}
}

func selectProviderCmd(session *cloud.Session, provider core.Provider) tea.Cmd {
	return func() tea.Msg {
		return providerSelectedMsg{provider: provider, err: session.SelectProvider(provider)}
	}
}

func authURLCmd(client *api.Client, provider core.Provider) tea.Cmd {
	return func() tea.Msg {
		url, err := client.AuthURL(context.Background(), provider)
		return authURLMsg{provider: provider, url: url, err: err}
	}
}

// connectCheckCmd probes whether the provider grant is usable: the dedicated
// check endpoint for Google, a listing probe for Dropbox.
func connectCheckCmd(client *api.Client, provider core.Provider, seq int) tea.Cmd {
	return func() tea.Msg {
		if provider == core.ProviderGoogleDrive {
			connected, err := client.CheckGoogleAuth(context.Background())
			return connectCheckedMsg{provider: provider, connected: connected, seq: seq, err: err}
		}

		_, err := client.ListFiles(context.Background(), provider)
		return connectCheckedMsg{provider: provider, connected: err == nil, seq: seq, err: err}
	}
}

func connectPollCmd(provider core.Provider, seq int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return connectPollMsg{provider: provider, seq: seq}
	})
}

func attachDocumentCmd(assistant *chat.Assistant, file core.FileEntry, provider core.Provider) tea.Cmd {
	return func() tea.Msg {
		err := assistant.AttachDocument(context.Background(), file, provider)
		return chatAttachedMsg{name: file.Name, err: err}
	}
}

func sendChatCmd(assistant *chat.Assistant, text string) tea.Cmd {
	return func() tea.Msg {
		return chatRepliedMsg{err: assistant.Send(context.Background(), text)}
	}
}

func semanticSearchCmd(client *api.Client, provider core.Provider, mode cloud.SearchMode, query string) tea.Cmd {
	return func() tea.Msg {
		var files []core.FileEntry
		var err error

		if mode == cloud.SearchSynonym {
			files, err = client.SynonymSearch(context.Background(), provider, query)
		} else {
			files, err = client.FuzzySearch(context.Background(), provider, query)
		}

		return semanticDoneMsg{files: files, err: err}
	}
}

func toastCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text, isErr: isErr} }
}

func goBackCmd() tea.Cmd {
	return func() tea.Msg { return backMsg{} }
}

func navigateCmd(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path, push: true} }
}
