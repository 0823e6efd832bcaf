package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/venrik/skydeck/internal/chat"
	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/core"
)

type dashFocus int

const (
	focusFiles dashFocus = iota
	focusSearch
	focusUpload
	focusChat
)

var searchModeLabels = map[cloud.SearchMode]string{
	cloud.SearchPlain:   "plain",
	cloud.SearchFuzzy:   "fuzzy",
	cloud.SearchSynonym: "synonym",
}

// dashModel is the main page: stats strip, file table, search bar with three
// modes, and the document chat widget.
type dashModel struct {
	deps *Deps

	focus  dashFocus
	cursor int

	searchInput  textinput.Model
	searchMode   cloud.SearchMode
	searchActive bool

	uploadInput textinput.Model

	chatOpen  bool
	chatInput textinput.Model
	chatBusy  bool
}

func newDashModel(deps *Deps) dashModel {
	search := textinput.New()
	search.Placeholder = "search files"
	search.CharLimit = 200

	upload := textinput.New()
	upload.Placeholder = "path to local file"
	upload.CharLimit = 500

	chatIn := textinput.New()
	chatIn.Placeholder = "ask about the attached document"
	chatIn.CharLimit = 1000

	return dashModel{
		deps:        deps,
		searchInput: search,
		uploadInput: upload,
		chatInput:   chatIn,
	}
}

func (d dashModel) Init() tea.Cmd {
	return nil
}

func (d dashModel) selectedFile(state cloud.State) (core.FileEntry, bool) {
	if len(state.Files) == 0 {
		return core.FileEntry{}, false
	}

	cursor := d.cursor
	if cursor >= len(state.Files) {
		cursor = len(state.Files) - 1
	}

	return state.Files[cursor], true
}

func (d dashModel) Update(msg tea.Msg, root *Model) (dashModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.updateKey(msg, root)

	case filesOpDoneMsg:
		return d.handleOpDone(msg)

	case searchDoneMsg:
		if msg.err != nil {
			return d, toastCmd(msg.err.Error(), true)
		}
		return d, nil

	case downloadLinkMsg:
		if msg.err != nil {
			return d, toastCmd(msg.err.Error(), true)
		}
		return d, toastCmd("Link: "+msg.link, false)

	case chatAttachedMsg:
		if msg.err != nil {
			return d, toastCmd(msg.err.Error(), true)
		}
		return d, toastCmd("Chatting about "+msg.name, false)

	case chatRepliedMsg:
		d.chatBusy = false
		return d, nil
	}

	return d, nil
}

func (d dashModel) updateKey(key tea.KeyMsg, root *Model) (dashModel, tea.Cmd) {
	switch d.focus {
	case focusSearch:
		return d.updateSearchKey(key)
	case focusUpload:
		return d.updateUploadKey(key)
	case focusChat:
		return d.updateChatKey(key)
	}

	state := root.cloudState

	switch key.String() {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(state.Files)-1 {
			d.cursor++
		}
	case "/":
		d.focus = focusSearch
		return d, d.searchInput.Focus()
	case "u":
		d.focus = focusUpload
		return d, d.uploadInput.Focus()
	case "r":
		return d, fetchFilesCmd(d.deps.Cloud)
	case "d":
		if file, ok := d.selectedFile(state); ok {
			return d, deleteCmd(d.deps.Cloud, file)
		}
	case "l":
		if file, ok := d.selectedFile(state); ok {
			return d, downloadLinkCmd(d.deps.Cloud, file)
		}
	case "c":
		d.chatOpen = !d.chatOpen
		if d.chatOpen {
			d.focus = focusChat
			return d, d.chatInput.Focus()
		}
	case "a":
		if file, ok := d.selectedFile(state); ok && !file.IsFolder() {
			d.chatOpen = true
			return d, attachDocumentCmd(d.deps.Chat, file, state.Provider)
		}
	case "s":
		return d, navigateCmd(pathSemantic)
	case "x":
		return d, disconnectCmd(d.deps.Cloud)
	case "o":
		return d, logoutCmd(d.deps.Auth)
	case "q":
		return d, tea.Quit
	case "esc":
		return d, goBackCmd()
	}

	return d, nil
}

func (d dashModel) updateSearchKey(key tea.KeyMsg) (dashModel, tea.Cmd) {
	switch key.String() {
	case "enter":
		query := d.searchInput.Value()
		d.focus = focusFiles
		d.searchInput.Blur()
		if query == "" {
			if d.searchActive {
				d.searchActive = false
				return d, resetSearchCmd(d.deps.Cloud)
			}
			return d, nil
		}
		d.searchActive = true
		d.cursor = 0
		return d, searchCmd(d.deps.Cloud, d.searchMode, query)
	case "tab":
		d.searchMode = (d.searchMode + 1) % 3
		return d, nil
	case "esc":
		d.focus = focusFiles
		d.searchInput.Blur()
		d.searchInput.SetValue("")
		if d.searchActive {
			d.searchActive = false
			return d, resetSearchCmd(d.deps.Cloud)
		}
		return d, nil
	}

	var cmd tea.Cmd
	d.searchInput, cmd = d.searchInput.Update(key)
	return d, cmd
}

func (d dashModel) updateUploadKey(key tea.KeyMsg) (dashModel, tea.Cmd) {
	switch key.String() {
	case "enter":
		path := d.uploadInput.Value()
		d.focus = focusFiles
		d.uploadInput.Blur()
		d.uploadInput.SetValue("")
		if path == "" {
			return d, nil
		}
		return d, uploadCmd(d.deps.Cloud, path)
	case "esc":
		d.focus = focusFiles
		d.uploadInput.Blur()
		d.uploadInput.SetValue("")
		return d, nil
	}

	var cmd tea.Cmd
	d.uploadInput, cmd = d.uploadInput.Update(key)
	return d, cmd
}

func (d dashModel) updateChatKey(key tea.KeyMsg) (dashModel, tea.Cmd) {
	switch key.String() {
	case "enter":
		text := d.chatInput.Value()
		if text == "" || d.chatBusy {
			return d, nil
		}
		d.chatInput.SetValue("")
		d.chatBusy = true
		return d, sendChatCmd(d.deps.Chat, text)
	case "esc":
		d.focus = focusFiles
		d.chatInput.Blur()
		return d, nil
	}

	var cmd tea.Cmd
	d.chatInput, cmd = d.chatInput.Update(key)
	return d, cmd
}

func (d dashModel) handleOpDone(msg filesOpDoneMsg) (dashModel, tea.Cmd) {
	if msg.err != nil {
		// Fetch errors land in the session state and render inline; the rest
		// are transient and surface as toasts.
		if msg.op == "fetch" {
			return d, nil
		}
		return d, toastCmd(msg.err.Error(), true)
	}

	switch msg.op {
	case "upload":
		return d, toastCmd("Uploaded.", false)
	case "delete":
		return d, toastCmd("Deleted.", false)
	}

	return d, nil
}

func (d dashModel) View(state cloud.State) string {
	out := d.viewStats(state.Stats) + "\n"

	mode := searchModeLabels[d.searchMode]
	searchLine := styleDim.Render("search["+mode+"] ") + d.searchInput.View()
	out += searchLine + "\n\n"

	switch {
	case state.Loading:
		out += styleDim.Render("loading files...") + "\n"
	case state.Err != "":
		out += styleError.Render(state.Err) + "\n"
	case len(state.Files) == 0:
		out += styleDim.Render("No files.") + "\n"
	default:
		out += d.viewFiles(state) + "\n"
	}

	if d.focus == focusUpload {
		out += "\n" + styleDim.Render("upload ") + d.uploadInput.View() + "\n"
	}

	if d.chatOpen {
		out += "\n" + d.viewChat()
	}

	out += "\n" + styleHelp.Render("/ search  r refresh  u upload  d delete  l link  a chat doc  s semantic  x disconnect  o logout  q quit")
	return out
}

func (d dashModel) viewStats(stats core.Stats) string {
	pair := func(label, value string) string {
		return styleStatLabel.Render(label+" ") + styleStatValue.Render(value)
	}

	return pair("size", formatSize(stats.TotalSize)) + "  " +
		pair("files", fmt.Sprintf("%d", stats.TotalFiles)) + "  " +
		pair("folders", fmt.Sprintf("%d", stats.TotalFolders)) + "  " +
		pair("modified today", fmt.Sprintf("%d", stats.RecentFiles))
}

func (d dashModel) viewFiles(state cloud.State) string {
	t := newTable("", "NAME", "TYPE", "SIZE", "MODIFIED")

	for i, file := range state.Files {
		marker := " "
		name := file.Name
		if i == d.cursor && d.focus == focusFiles {
			marker = styleSelectedRow.Render(">")
			name = styleSelectedRow.Render(name)
		}

		kind := "file"
		if file.IsFolder() {
			kind = "folder"
		}

		size := "-"
		if file.Size != nil {
			size = formatSize(*file.Size)
		}

		t.Row(marker, name, kind, size, formatTime(file.ModifiedTime))
	}

	return t.Render()
}

func (d dashModel) viewChat() string {
	out := styleAccent.Render("chat")
	if name, ok := d.deps.Chat.Document(); ok {
		out += styleDim.Render(" — " + name)
	} else {
		out += styleDim.Render(" — no document attached (press a on a file)")
	}
	out += "\n"

	for _, message := range d.deps.Chat.Messages() {
		switch message.Type {
		case chat.MessageUser:
			out += styleChatUser.Render("you ") + message.Content + "\n"
		case chat.MessageError:
			out += styleChatError.Render(message.Content) + "\n"
		default:
			out += styleChatBot.Render("bot ") + message.Content + "\n"
		}
	}

	if d.chatBusy {
		out += styleDim.Render("thinking...") + "\n"
	}

	out += d.chatInput.View() + "\n"
	return out
}
