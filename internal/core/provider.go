package core

import "fmt"

// Provider identifies a connected cloud-storage account. The literal values
// match what the backend and the persisted selection key use.
type Provider string

const (
	ProviderGoogleDrive Provider = "Google Drive"
	ProviderDropbox     Provider = "Dropbox"
)

func ParseProvider(value string) (Provider, error) {
	switch Provider(value) {
	case ProviderGoogleDrive:
		return ProviderGoogleDrive, nil
	case ProviderDropbox:
		return ProviderDropbox, nil
	default:
		return "", fmt.Errorf("unknown cloud provider %q", value)
	}
}

func (p Provider) Valid() bool {
	return p == ProviderGoogleDrive || p == ProviderDropbox
}

// Source is the short form the chatbot endpoints expect.
func (p Provider) Source() string {
	if p == ProviderDropbox {
		return "dropbox"
	}
	return "google"
}
