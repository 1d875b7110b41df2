package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

const maxCreateBody = 64 << 10

type HTTPHandler struct {
	service             ports.GatewayService
	baseURL             string
	interstitialSeconds int
	log                 *zap.Logger
}

func NewHTTPHandler(service ports.GatewayService, baseURL string, interstitialSeconds int, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		service:             service,
		baseURL:             strings.TrimRight(baseURL, "/"),
		interstitialSeconds: interstitialSeconds,
		log:                 log,
	}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	Target string `json:"target"`
}

type panelResponse struct {
	Links  []domain.Link `json:"links"`
	Totals domain.Totals `json:"totals"`
}

func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", pageData{Title: "Fast Link Gateway"})
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Visit counts the click and shows the countdown page.
func (h *HTTPHandler) Visit(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	if _, err := h.service.Visit(r.Context(), slug); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "interstitial.html", interstitialPage{
		pageData:    pageData{Title: "One moment"},
		Seconds:     h.interstitialSeconds,
		ContinueURL: h.baseURL + "/redirect/" + slug,
	})
}

// Redirect counts the completion and forwards to the target.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	dest, err := h.service.Complete(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *HTTPHandler) Panel(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListLinks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	totals := domain.SumTotals(links)
	if wantsJSON(r) {
		if links == nil {
			links = []domain.Link{}
		}
		writeJSON(w, http.StatusOK, panelResponse{Links: links, Totals: totals})
		return
	}
	h.render(w, r, http.StatusOK, "panel.html", panelPage{
		pageData: pageData{Title: "Admin Panel"},
		Links:    links,
		Totals:   totals,
	})
}

func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)

	var req CreateLinkRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Target = r.PostForm.Get("target")
	}

	link, err := h.service.CreateLink(r.Context(), req.Target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, link)
		return
	}
	h.render(w, r, http.StatusCreated, "created.html", createdPage{
		pageData: pageData{Title: "Link Created"},
		Link:     link,
	})
}

func (h *HTTPHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := renderHTML(w, status, name, data); err != nil {
		h.log.Error("render page", zap.String("template", name), zap.Error(err), zap.String("request_id", requestID(r)))
	}
}

// writeError maps domain errors onto status codes. Anything unexpected is logged and hidden.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		http.Error(w, "Invalid link", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTarget):
		http.Error(w, "Invalid target URL", http.StatusBadRequest)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
