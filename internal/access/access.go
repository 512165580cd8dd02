// Package access shapes stored URLs into the views handed to visitors and to
// admins, and decides which of them a presented key may reach.
//
// The model is capability based: there are no users or sessions. Whoever holds
// the secret key of a URL may read, edit and deactivate that URL, and nothing
// else. The public key only ever yields the public views.
package access

import (
	"crypto/subtle"
	"strings"

	"github.com/vadimbarashkov/redirector/internal/entity"
)

// AdminPathFunc maps a secret key to the path of its admin endpoint.
type AdminPathFunc func(secretKey string) string

// DefaultAdminPath is the admin path mounted by the HTTP router.
func DefaultAdminPath(secretKey string) string {
	return "/admin/" + secretKey
}

// RedirectView is what a visitor learns before and during a redirect.
type RedirectView struct {
	TargetURL string `json:"target_url"`
}

// RecordView exposes the mutable state of a URL without any address.
type RecordView struct {
	TargetURL string `json:"target_url"`
	IsActive  bool   `json:"is_active"`
	Clicks    int64  `json:"clicks"`
}

// ListView is a single entry of the public listing. It never carries the secret key.
type ListView struct {
	RecordView
	URL string `json:"url"`
}

// AdminView is returned on creation and on secret key lookups only.
type AdminView struct {
	ListView
	AdminURL string `json:"admin_url"`
}

// Controller builds views against a fixed base URL.
type Controller struct {
	baseURL   string
	adminPath AdminPathFunc
}

// New returns a Controller. A nil adminPath falls back to DefaultAdminPath.
func New(baseURL string, adminPath AdminPathFunc) *Controller {
	if adminPath == nil {
		adminPath = DefaultAdminPath
	}

	return &Controller{
		baseURL:   strings.TrimRight(baseURL, "/"),
		adminPath: adminPath,
	}
}

// PublicRedirect returns the destination of url only.
func (c *Controller) PublicRedirect(url *entity.URL) RedirectView {
	return RedirectView{TargetURL: url.TargetURL}
}

// Record returns the state of url without addresses.
func (c *Controller) Record(url *entity.URL) RecordView {
	return RecordView{
		TargetURL: url.TargetURL,
		IsActive:  url.IsActive,
		Clicks:    url.Clicks,
	}
}

// PublicListItem returns the listing entry of url.
func (c *Controller) PublicListItem(url *entity.URL) ListView {
	return ListView{
		RecordView: c.Record(url),
		URL:        c.baseURL + "/" + url.Key,
	}
}

// Admin returns the admin view of url, including its admin address.
func (c *Controller) Admin(url *entity.URL) AdminView {
	return AdminView{
		ListView: c.PublicListItem(url),
		AdminURL: c.baseURL + c.adminPath(url.SecretKey),
	}
}

// Authorize reports whether secretKey grants admin rights over url.
// A wrong key and a deactivated URL both yield entity.ErrURLNotFound.
func (c *Controller) Authorize(url *entity.URL, secretKey string) error {
	if url == nil || !url.IsActive {
		return entity.ErrURLNotFound
	}

	if subtle.ConstantTimeCompare([]byte(url.SecretKey), []byte(secretKey)) != 1 {
		return entity.ErrURLNotFound
	}

	return nil
}
