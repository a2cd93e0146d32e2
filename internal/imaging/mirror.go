// Package imaging resolves channel artwork through a fallback chain of
// override rules, the local artwork mirror, network fetches and generated
// placeholders, normalising every result to fixed per-kind canvases.
package imaging

import (
	"net/url"
	"strings"

	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/storage"
)

// mirrorPrefix is the URL path under which the local artwork mirror is
// served. Artwork URLs below it are read from disk instead of fetched.
const mirrorPrefix = "/static/"

// Mirror serves locally mirrored artwork. Files live in a sandbox so a
// crafted artwork URL cannot read outside the mirror directory.
type Mirror struct {
	sandbox *storage.Sandbox
}

// NewMirror creates a Mirror rooted at the given directory.
func NewMirror(baseDir string) (*Mirror, error) {
	sandbox, err := storage.NewSandbox(baseDir)
	if err != nil {
		return nil, err
	}
	return &Mirror{sandbox: sandbox}, nil
}

// Lookup reads mirrored artwork when the URL points at the tenant's mirror
// path. It returns false when the URL is not a mirror URL or the file is
// missing.
func (m *Mirror) Lookup(tenant *models.Tenant, rawURL string) ([]byte, bool) {
	rel, ok := m.relativePath(tenant, rawURL)
	if !ok {
		return nil, false
	}

	data, err := m.sandbox.ReadFile(rel)
	if err != nil {
		return nil, false
	}
	return data, true
}

// relativePath extracts the mirror-relative file path from an artwork URL.
// Recognised forms are a bare "/static/..." path and an absolute URL whose
// host matches the tenant's HostURL.
func (m *Mirror) relativePath(tenant *models.Tenant, rawURL string) (string, bool) {
	if rest, ok := strings.CutPrefix(rawURL, mirrorPrefix); ok {
		return rest, rest != ""
	}

	if tenant == nil || tenant.HostURL == "" {
		return "", false
	}
	base := strings.TrimSuffix(tenant.HostURL, "/")
	rest, ok := strings.CutPrefix(rawURL, base+mirrorPrefix)
	if !ok || rest == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	return rest, true
}
