// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/store"
	"github.com/hashicorp/mockpass/token"
	"gopkg.in/square/go-jose.v2"
)

const (
	// HeaderShowLoginPage overrides the configured presentation mode for one
	// request when it is not empty. "true" shows the chooser.
	HeaderShowLoginPage = "X-Show-Login-Page"

	HeaderCustomNRIC = "X-Custom-NRIC"
	HeaderCustomUUID = "X-Custom-UUID"
	HeaderCustomUEN  = "X-Custom-UEN"
)

// tokenError is an OAuth2 token endpoint error response.
type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// variantHandler serves every endpoint of one identity provider variant.
type variantHandler struct {
	idp           *IdP
	jwks          *jose.JSONWebKeySet
	showLoginPage bool
	logger        hclog.Logger
}

func (h *variantHandler) routes(r chi.Router) {
	r.Get("/metadata", h.metadata)
	r.Get("/jwks", h.keys)
	r.Get("/authorize", h.authorize)
	r.Get("/authorize/custom-profile", h.customProfile)
	r.Post("/token", h.token)
	r.Get("/spcplogout", h.logout)
}

func (h *variantHandler) metadata(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, NewMetadata(BaseURL(r), h.idp.Variant()))
}

func (h *variantHandler) keys(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.jwks)
}

// interactive reports whether the chooser is shown for the request.
func (h *variantHandler) interactive(r *http.Request) bool {
	if v := r.Header.Get(HeaderShowLoginPage); v != "" {
		return v == "true"
	}
	return h.showLoginPage
}

func (h *variantHandler) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := AuthorizeRequest{
		ClientID:    q.Get("client_id"),
		RedirectURI: q.Get("redirect_uri"),
		State:       q.Get("state"),
		Nonce:       q.Get("nonce"),
		Interactive: h.interactive(r),
		Override: profile.Attributes{
			profile.AttrNRIC: r.Header.Get(HeaderCustomNRIC),
			profile.AttrUUID: r.Header.Get(HeaderCustomUUID),
		},
	}
	if h.idp.Variant() == profile.CorpPass {
		req.Override[profile.AttrUEN] = r.Header.Get(HeaderCustomUEN)
	}

	sel, err := h.idp.Authorize(r.Context(), req)
	if err != nil {
		h.authorizeError(w, r, err)
		return
	}
	if !sel.Interactive() {
		http.Redirect(w, r, sel.RedirectURL, http.StatusFound)
		return
	}
	page, err := renderChooser(r, h.idp.Variant(), sel, req)
	if err != nil {
		h.logger.Error("unable to render profile chooser", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, http.StatusText(http.StatusInternalServerError))
		return
	}
	render.HTML(w, r, page)
}

func (h *variantHandler) customProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	attrs := profile.Attributes{
		profile.AttrNRIC: q.Get("nric"),
		profile.AttrUUID: q.Get("uuid"),
		profile.AttrUEN:  q.Get("uen"),
	}
	sel, err := h.idp.AuthorizeCustom(r.Context(), attrs, q.Get("redirectURI"), q.Get("state"), q.Get("nonce"))
	if err != nil {
		h.authorizeError(w, r, err)
		return
	}
	http.Redirect(w, r, sel.RedirectURL, http.StatusFound)
}

func (h *variantHandler) authorizeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidRequest) {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "missing redirect URI")
		return
	}
	h.logger.Error("unable to authorize", "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.PlainText(w, r, http.StatusText(http.StatusInternalServerError))
}

func (h *variantHandler) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.tokenError(w, r, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	resp, err := h.idp.Token(r.Context(), TokenRequest{
		GrantType:    r.PostForm.Get("grant_type"),
		Code:         r.PostForm.Get("code"),
		RefreshToken: r.PostForm.Get("refresh_token"),
		ClientID:     r.PostForm.Get("client_id"),
		RedirectURI:  r.PostForm.Get("redirect_uri"),
		Issuer:       BaseURL(r),
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInvalidGrant):
		h.logger.Debug("rejected grant", "error", err)
		h.tokenError(w, r, http.StatusBadRequest, "invalid_grant", "the authorization code or refresh token is invalid or expired")
		return
	case errors.Is(err, ErrUnsupportedGrantType):
		h.tokenError(w, r, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	default:
		if errors.Is(err, token.ErrCryptoFailure) {
			h.logger.Error("unable to sign or encrypt identity token", "error", err)
		} else {
			h.logger.Error("unable to issue tokens", "error", err)
		}
		h.tokenError(w, r, http.StatusInternalServerError, "server_error", "unable to issue tokens")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	render.JSON(w, r, resp)
}

func (h *variantHandler) tokenError(w http.ResponseWriter, r *http.Request, status int, code, desc string) {
	w.Header().Set("Cache-Control", "no-store")
	render.Status(r, status)
	render.JSON(w, r, tokenError{Code: code, Description: desc})
}

func (h *variantHandler) logout(w http.ResponseWriter, r *http.Request) {
	returnURL := r.URL.Query().Get("return_url")
	if returnURL == "" {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "missing return URL")
		return
	}
	h.logger.Info("logout is done, redirecting", "return_url", returnURL)
	http.Redirect(w, r, returnURL, http.StatusFound)
}

// logRequests logs every request once it has been served.
func logRequests(logger hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
