package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/venrik/skydeck/internal/core"
)

// Client wraps the gateway with one typed operation per backend endpoint.
type Client struct {
	gw *Gateway
}

func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint: "/auth/login/",
		Method:   http.MethodPost,
		Body:     creds,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", &ShapeError{Endpoint: "/auth/login/", Reason: "no token in response"}
	}

	return resp.Token, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, err := c.gw.Call(ctx, Request{
		Endpoint: "/auth/register/",
		Method:   http.MethodPost,
		Body:     req,
	})
	return err
}

// Logout invalidates the server session. Local cleanup is the caller's job
// and must happen even when this fails.
func (c *Client) Logout(ctx context.Context) error {
	var resp struct {
		Success bool `json:"success"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint:     "/auth/logout/",
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("logout rejected by server")
	}

	return nil
}

func (c *Client) DeleteProcessedFolders(ctx context.Context) error {
	_, err := c.gw.Call(ctx, Request{
		Endpoint:     "/delete-processed-folders/",
		Method:       http.MethodDelete,
		RequiresAuth: true,
	})
	return err
}

// AuthURL fetches the OAuth authorization URL for a provider.
func (c *Client) AuthURL(ctx context.Context, provider core.Provider) (string, error) {
	endpoint := "/auth/google/url/"
	if provider == core.ProviderDropbox {
		endpoint = "/auth/dropbox/url/"
	}

	var resp struct {
		AuthURL string `json:"auth_url"`
	}

	if err := c.gw.JSON(ctx, Request{Endpoint: endpoint, RequiresAuth: true}, &resp); err != nil {
		return "", err
	}

	if resp.AuthURL == "" {
		return "", &ShapeError{Endpoint: endpoint, Reason: "no auth_url in response"}
	}

	return resp.AuthURL, nil
}

// CheckGoogleAuth polls whether the Google OAuth grant completed.
func (c *Client) CheckGoogleAuth(ctx context.Context) (bool, error) {
	var resp struct {
		HasGoogleAuth bool `json:"has_google_auth"`
	}

	err := c.gw.JSON(ctx, Request{Endpoint: "/auth/google/check", RequiresAuth: true}, &resp)
	if err != nil {
		return false, err
	}

	return resp.HasGoogleAuth, nil
}

func (c *Client) RevokeProvider(ctx context.Context, provider core.Provider) error {
	endpoint := "/auth/google/revoke/"
	if provider == core.ProviderDropbox {
		endpoint = "/auth/dropbox/revoke/"
	}

	_, err := c.gw.Call(ctx, Request{
		Endpoint:     endpoint,
		Method:       http.MethodPost,
		RequiresAuth: true,
	})
	return err
}

// ListFiles fetches the listing for the selected provider.
func (c *Client) ListFiles(ctx context.Context, provider core.Provider) ([]core.FileEntry, error) {
	endpoint := "/files/"
	if provider == core.ProviderDropbox {
		endpoint = "/dropbox/files/"
	}

	var files []core.FileEntry
	if err := c.gw.JSON(ctx, Request{Endpoint: endpoint, RequiresAuth: true}, &files); err != nil {
		return nil, err
	}

	if files == nil {
		return nil, &ShapeError{Endpoint: endpoint, Reason: "expected an array of files"}
	}

	return files, nil
}

func (c *Client) SearchFiles(ctx context.Context, query string) ([]core.FileEntry, error) {
	endpoint := "/files/search/?q=" + url.QueryEscape(query)

	var files []core.FileEntry
	if err := c.gw.JSON(ctx, Request{Endpoint: endpoint, RequiresAuth: true}, &files); err != nil {
		return nil, err
	}

	if files == nil {
		return nil, &ShapeError{Endpoint: "/files/search/", Reason: "expected an array of files"}
	}

	return files, nil
}

// searchResults tolerates both wire shapes the search endpoints use: a bare
// array, or an object wrapping it under "results".
type searchResults struct {
	Results []core.FileEntry `json:"results"`
}

func (c *Client) FuzzySearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error) {
	endpoint := "/drive/fuzzy-search/advanced/?q=" + url.QueryEscape(query) + "&field=name"
	if provider == core.ProviderDropbox {
		endpoint = "/dropbox/fuzzy-search/advanced/?q=" + url.QueryEscape(query) + "&field=name"
	}

	return c.flexibleSearch(ctx, endpoint)
}

func (c *Client) SynonymSearch(ctx context.Context, provider core.Provider, query string) ([]core.FileEntry, error) {
	endpoint := "/drive/search-synonyms/?q=" + url.QueryEscape(query)
	if provider == core.ProviderDropbox {
		endpoint = "/dropbox/search-synonyms/?q=" + url.QueryEscape(query)
	}

	return c.flexibleSearch(ctx, endpoint)
}

func (c *Client) flexibleSearch(ctx context.Context, endpoint string) ([]core.FileEntry, error) {
	body, err := c.gw.Raw(ctx, Request{Endpoint: endpoint, RequiresAuth: true})
	if err != nil {
		return nil, err
	}

	var wrapped searchResults
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Results != nil {
		return wrapped.Results, nil
	}

	var files []core.FileEntry
	if err := json.Unmarshal(body, &files); err == nil && files != nil {
		return files, nil
	}

	return nil, &ShapeError{Endpoint: endpoint, Reason: "expected results array"}
}

// UploadFile sends content as a multipart form upload.
func (c *Client) UploadFile(ctx context.Context, provider core.Provider, name string, content io.Reader) error {
	endpoint := "/files/upload/"
	if provider == core.ProviderDropbox {
		endpoint = "/dropbox/upload/"
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish upload form: %w", err)
	}

	_, err = c.gw.Call(ctx, Request{
		Endpoint:     endpoint,
		Method:       http.MethodPost,
		RawBody:      &buffer,
		ContentType:  writer.FormDataContentType(),
		RequiresAuth: true,
	})
	return err
}

// DeleteFile removes a file. The endpoint shape is provider-specific: Drive
// addresses by stable ID, Dropbox by path.
func (c *Client) DeleteFile(ctx context.Context, provider core.Provider, file core.FileEntry) error {
	endpoint := "/files/" + url.PathEscape(file.ID) + "/delete/"
	if provider == core.ProviderDropbox {
		endpoint = "/dropbox/delete/?path=" + url.QueryEscape("/"+file.Name)
	}

	_, err := c.gw.Call(ctx, Request{
		Endpoint:     endpoint,
		Method:       http.MethodDelete,
		RequiresAuth: true,
	})
	return err
}

type downloadLinkRequest struct {
	ServiceType string `json:"service_type"`
	FileID      string `json:"file_id,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	PublicLink  bool   `json:"public_link"`
}

// DownloadLink resolves a sharable download link for one file.
func (c *Client) DownloadLink(ctx context.Context, provider core.Provider, file core.FileEntry) (string, error) {
	body := downloadLinkRequest{ServiceType: "google_drive", FileID: file.ID, PublicLink: true}
	if provider == core.ProviderDropbox {
		body = downloadLinkRequest{ServiceType: "dropbox", FilePath: file.DocumentID(provider), PublicLink: true}
	}

	var resp struct {
		Success bool `json:"success"`
		File    struct {
			DownloadLink string `json:"downloadLink"`
		} `json:"file"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint:     "/file/download-link/",
		Method:       http.MethodPost,
		Body:         body,
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Success || resp.File.DownloadLink == "" {
		return "", &ShapeError{Endpoint: "/file/download-link/", Reason: "no download link in response"}
	}

	return resp.File.DownloadLink, nil
}

type batchDownloadRequest struct {
	GoogleDriveIDs []string `json:"google_drive_ids"`
	DropboxPaths   []string `json:"dropbox_paths"`
	PublicLink     bool     `json:"public_link"`
}

type linkedFile struct {
	DownloadLink string `json:"downloadLink"`
}

// BatchDownloadLinks resolves download links for all listed files in one
// call. Used by the background enrichment pass only.
func (c *Client) BatchDownloadLinks(ctx context.Context, provider core.Provider, files []core.FileEntry) ([]string, error) {
	body := batchDownloadRequest{
		GoogleDriveIDs: []string{},
		DropboxPaths:   []string{},
		PublicLink:     true,
	}

	for _, file := range files {
		if provider == core.ProviderDropbox {
			body.DropboxPaths = append(body.DropboxPaths, file.DocumentID(provider))
		} else {
			body.GoogleDriveIDs = append(body.GoogleDriveIDs, file.ID)
		}
	}

	var resp struct {
		Results struct {
			GoogleDriveFiles []linkedFile `json:"google_drive_files"`
			DropboxFiles     []linkedFile `json:"dropbox_files"`
		} `json:"results"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint:     "/batch-download-links/",
		Method:       http.MethodPost,
		Body:         body,
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	var links []string
	for _, file := range resp.Results.GoogleDriveFiles {
		if file.DownloadLink != "" {
			links = append(links, file.DownloadLink)
		}
	}
	for _, file := range resp.Results.DropboxFiles {
		if file.DownloadLink != "" {
			links = append(links, file.DownloadLink)
		}
	}

	return links, nil
}

// UploadLinks forwards resolved download links to the indexing endpoint.
func (c *Client) UploadLinks(ctx context.Context, links []string) error {
	_, err := c.gw.Call(ctx, Request{
		Endpoint:     "/upload-links/",
		Method:       http.MethodPost,
		Body:         map[string][]string{"links": links},
		RequiresAuth: true,
	})
	return err
}

// CreateChatSession asks the backend for a fresh assistant session.
func (c *Client) CreateChatSession(ctx context.Context) (string, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint:     "/chatbot/sessions/",
		Method:       http.MethodPost,
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Success || resp.Data.SessionID == "" {
		return "", &ShapeError{Endpoint: "/chatbot/sessions/", Reason: "no session id in response"}
	}

	return resp.Data.SessionID, nil
}

type ChatDocument struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	Source    string `json:"source"`
	SessionID string `json:"session_id"`
}

func (c *Client) UploadChatDocument(ctx context.Context, doc ChatDocument) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint:     "/chatbot/upload-document/",
		Method:       http.MethodPost,
		Body:         doc,
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return err
	}

	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = "failed to process file"
		}
		return fmt.Errorf("%s", message)
	}

	return nil
}

// SendChatMessage posts a message to the assistant and returns its reply.
func (c *Client) SendChatMessage(ctx context.Context, sessionID, message string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Response string `json:"response"`
		} `json:"data"`
	}

	err := c.gw.JSON(ctx, Request{
		Endpoint: "/chatbot/send-message/",
		Method:   http.MethodPost,
		Body: map[string]string{
			"message":    message,
			"session_id": sessionID,
		},
		RequiresAuth: true,
	}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Success {
		failure := resp.Message
		if failure == "" {
			failure = "failed to get response"
		}
		return "", fmt.Errorf("%s", failure)
	}

	return resp.Data.Response, nil
}
