package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/redirector/internal/access"
	"github.com/vadimbarashkov/redirector/internal/entity"
	"github.com/vadimbarashkov/redirector/pkg/response"
)

func handleBanner(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, banner)
}

type urlUseCase interface {
	Create(ctx context.Context, targetURL string) (access.AdminView, error)
	Peek(ctx context.Context, key string) (access.RedirectView, error)
	ListAll(ctx context.Context) ([]access.ListView, error)
	RecordVisit(ctx context.Context, key string) (string, error)
	AdminLookup(ctx context.Context, secretKey string) (access.AdminView, error)
	UpdateTarget(ctx context.Context, secretKey, newTargetURL string) (access.RecordView, error)
	Deactivate(ctx context.Context, secretKey string) (string, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// requestURL rebuilds the absolute URL the client asked for.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (h *urlHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidURL)
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(fmt.Sprintf("URL '%s' doesn't exist", requestURL(r))))
	case errors.Is(err, entity.ErrStoreUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.StoreUnavailable)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerError)
	}
}

// decodeTargetURL reads and validates a target_url body. It writes the 400
// response itself and reports false when the body is rejected.
func (h *urlHandler) decodeTargetURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req targetURLRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBody)
			return "", false
		}

		render.JSON(w, r, response.InvalidRequestBody)
		return "", false
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Validation(err))
		return "", false
	}

	return req.TargetURL, true
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.ListAll(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, listResponse{URLs: urls})
}

func (h *urlHandler) createURL(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.decodeTargetURL(w, r)
	if !ok {
		return
	}

	view, err := h.useCase.Create(r.Context(), targetURL)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

func (h *urlHandler) forwardToTargetURL(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	targetURL, err := h.useCase.RecordVisit(r.Context(), key)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, targetURL, http.StatusTemporaryRedirect)
}

func (h *urlHandler) peekTargetURL(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	view, err := h.useCase.Peek(r.Context(), key)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

func (h *urlHandler) getAdminInfo(w http.ResponseWriter, r *http.Request) {
	secretKey := chi.URLParam(r, "secretKey")

	view, err := h.useCase.AdminLookup(r.Context(), secretKey)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

func (h *urlHandler) updateTargetURL(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := h.decodeTargetURL(w, r)
	if !ok {
		return
	}

	secretKey := chi.URLParam(r, "secretKey")

	view, err := h.useCase.UpdateTarget(r.Context(), secretKey, targetURL)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

func (h *urlHandler) deactivateURL(w http.ResponseWriter, r *http.Request) {
	secretKey := chi.URLParam(r, "secretKey")

	msg, err := h.useCase.Deactivate(r.Context(), secretKey)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.Success(msg))
}
