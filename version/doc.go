// Package version reports the chatstream build version.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/kbukum/chatstream/version.Version=1.2.0" ./cmd/chatstream
//
// Anything left unset is filled from the module build info when available.
package version
