package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"docqa/internal/app"
	"docqa/internal/extract"
	"docqa/internal/httputil"
	"docqa/internal/session"
)

const (
	sessionCookie = "docqa_session"

	// Room for boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

//go:embed ui/index.html
var indexHTML []byte

type keyRequest struct {
	APIKey string `json:"api_key" validate:"omitempty,max=512"`
}

type askRequest struct {
	Question string `json:"question" validate:"max=4000"`
}

type ctxKey struct{}

// sessionMiddleware attaches the caller's controller, creating a session when
// the cookie is missing, malformed or expired.
func sessionMiddleware(deps app.Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var c *session.Controller
			if cookie, err := r.Cookie(sessionCookie); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					c, _ = deps.Sessions.Get(id)
				}
			}
			if c == nil {
				var id uuid.UUID
				id, c = deps.Sessions.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    id.String(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteStrictMode,
				})
				deps.Log.Debug("session created", "session_id", id)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
		})
	}
}

func controllerFrom(ctx context.Context) *session.Controller {
	c, _ := ctx.Value(ctxKey{}).(*session.Controller)
	return c
}

func pageHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(indexHTML); err != nil {
			deps.Log.Warn("page write failed", "err", err)
		}
	}
}

func sessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, controllerFrom(r.Context()).View())
	}
}

func keyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req keyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		view := controllerFrom(r.Context()).SetAPIKey(req.APIKey)
		deps.Log.Info("api key updated", "key_source", view.KeySource)
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func documentHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize
	maxBody := maxFileSize + multipartOverhead
	tooLarge := fmt.Sprintf("file too large (max %d bytes)", maxFileSize)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBody {
			httputil.Fail(deps.Log, w, tooLarge, nil, http.StatusBadRequest)
			return
		}

		// Chunked bodies carry no length; cap the read and keep the whole form in memory.
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseMultipartForm(maxBody); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httputil.Fail(deps.Log, w, tooLarge, err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, tooLarge, nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}

		view, err := controllerFrom(r.Context()).Upload(r.Context(), extract.Document{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
		if err != nil {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, view)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		c := controllerFrom(r.Context())
		view, err := c.Ask(req.Question)
		if err != nil {
			httputil.WriteJSON(w, http.StatusConflict, view)
			return
		}
		if view.State != session.StateReady {
			// Empty question: nothing to generate.
			httputil.WriteJSON(w, http.StatusOK, view)
			return
		}
		stream(deps, w, r, c.Generate)
	}
}

func regenerateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream(deps, w, r, controllerFrom(r.Context()).Regenerate)
	}
}

// stream runs a generation and relays every re-render as an SSE "render"
// event. The event stream is opened on the first render, so a refused request
// still gets a plain JSON 409.
func stream(deps app.Deps, w http.ResponseWriter, r *http.Request, run func(context.Context, session.EmitFunc) error) {
	ctx, cancel := context.WithTimeout(r.Context(), deps.Config.GenerationTimeout)
	defer cancel()

	c := controllerFrom(r.Context())
	var es *httputil.EventStream
	emit := func(v session.View) error {
		if es == nil {
			var err error
			if es, err = httputil.NewEventStream(w); err != nil {
				return err
			}
		}
		return es.Send("render", v)
	}

	err := run(ctx, emit)
	if es == nil {
		if err == nil {
			err = httputil.ErrStreamingUnsupported
		}
		status := http.StatusConflict
		if errors.Is(err, httputil.ErrStreamingUnsupported) {
			status = http.StatusInternalServerError
		}
		deps.Log.Warn("generation refused", "err", err)
		httputil.WriteJSON(w, status, map[string]any{"error": err.Error(), "view": c.View()})
		return
	}

	switch {
	case err == nil, errors.Is(err, session.ErrSuperseded):
		_ = es.Send("done", c.View())
	default:
		_ = es.Send("error", c.View())
	}
}
