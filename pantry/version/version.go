// Package version reports build information set with -ldflags:
//
//	go build -ldflags "-X github.com/dalemusser/contactsection/pantry/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/contactsection/pantry/version.Commit=abc123"
package version

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/dalemusser/contactsection/httputil"
	"github.com/go-chi/chi/v5"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

// Info is the /version response body.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info. When Commit was not set at link time the VCS
// revision recorded by the Go toolchain is used, if any.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
	if info.Commit != "unknown" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				info.Commit = s.Value
			}
		}
	}
	return info
}

// Mount attaches GET /version to r.
func Mount(r chi.Router) {
	info := Get()
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	})
}
