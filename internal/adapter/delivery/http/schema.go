package http

import "github.com/vadimbarashkov/redirector/internal/access"

const (
	serviceName        = "URL Shortener"
	serviceDescription = "Shorten long URLs, share the short link and manage it with a secret key."
	serviceVersion     = "1.0.0"
	docsPath           = "/swagger/index.html"
)

type bannerResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Docs        string `json:"docs"`
}

var banner = bannerResponse{
	Name:        serviceName,
	Description: serviceDescription,
	Version:     serviceVersion,
	Docs:        docsPath,
}

// targetURLRequest is the body of create and update requests.
type targetURLRequest struct {
	TargetURL string `json:"target_url" validate:"required,url"`
}

type listResponse struct {
	URLs []access.ListView `json:"urls"`
}
