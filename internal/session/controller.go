package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docqa/internal/cache"
	"docqa/internal/extract"
	"docqa/internal/llm"
	"docqa/internal/prompt"
)

var (
	ErrInputDisabled       = errors.New("upload a document and configure an API key before asking a question")
	ErrNotReady            = errors.New("a document, a question and an API key are required")
	ErrNothingToRegenerate = errors.New("regenerate is only available after a response")
	ErrSuperseded          = errors.New("generation superseded by a newer request")
)

// EmitFunc receives every re-render during a generation.
type EmitFunc func(View) error

// Options wires a Controller to its collaborators.
type Options struct {
	// Settings carries provider, model and base URL. Its APIKey is ignored;
	// the key is resolved per generation.
	Settings  llm.Settings
	EnvAPIKey string
	NewClient llm.Factory
	Cache     cache.Cache
	CacheTTL  time.Duration
	Log       *slog.Logger
}

type document struct {
	filename string
	kind     extract.Kind
	text     string
}

// Controller owns one browser session: the key configuration, the uploaded
// document, the question and the response buffer of the current generation.
type Controller struct {
	opts Options

	mu          sync.Mutex
	explicitKey string
	doc         *document
	question    string
	prompt      string
	buffer      strings.Builder
	state       State
	failure     error
	generation  uint64
}

func NewController(opts Options) *Controller {
	if opts.NewClient == nil {
		opts.NewClient = llm.New
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoOpCache()
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Controller{opts: opts}
	c.resetLocked()
	return c
}

// View renders the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetAPIKey stores the key typed by the user. A blank key falls back to the
// environment.
func (c *Controller) SetAPIKey(key string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explicitKey = strings.TrimSpace(key)
	c.resetLocked()
	return c.viewLocked()
}

// Upload replaces the document. Extraction runs once here; a failure drops the
// document and moves the session to the error state.
func (c *Controller) Upload(ctx context.Context, doc extract.Document) (View, error) {
	text, kind, err := c.extract(ctx, doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.doc = nil
		c.failLocked(err)
		c.opts.Log.Warn("extraction failed", "filename", doc.Filename, "err", err)
		return c.viewLocked(), err
	}
	c.doc = &document{filename: doc.Filename, kind: kind, text: text}
	c.resetLocked()
	c.opts.Log.Info("document extracted", "filename", doc.Filename, "kind", kind, "chars", len(text))
	return c.viewLocked(), nil
}

// Ask sets the question. It is refused while there is no document or no key.
func (c *Controller) Ask(question string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key, _ := c.resolveKeyLocked(); c.doc == nil || key == "" {
		return c.viewLocked(), ErrInputDisabled
	}
	c.question = strings.TrimSpace(question)
	c.resetLocked()
	return c.viewLocked(), nil
}

// Generate streams an answer for the current prompt. Only valid when ready.
func (c *Controller) Generate(ctx context.Context, emit EmitFunc) error {
	return c.run(ctx, emit, func(s State) error {
		if s != StateReady {
			return ErrNotReady
		}
		return nil
	})
}

// Regenerate clears the answer and issues the same prompt again. An in-flight
// stream is abandoned, not cancelled.
func (c *Controller) Regenerate(ctx context.Context, emit EmitFunc) error {
	return c.run(ctx, emit, func(s State) error {
		if s != StateComplete && s != StateStreaming {
			return ErrNothingToRegenerate
		}
		return nil
	})
}

func (c *Controller) run(ctx context.Context, emit EmitFunc, allowed func(State) error) error {
	emitting := emit != nil
	notify := func(v View) {
		if emitting && emit(v) != nil {
			emitting = false
		}
	}

	c.mu.Lock()
	if err := allowed(c.state); err != nil {
		c.mu.Unlock()
		return err
	}
	settings := c.opts.Settings
	settings.APIKey, _ = c.resolveKeyLocked()
	p := c.prompt
	c.generation++
	gen := c.generation
	c.buffer.Reset()
	c.failure = nil
	c.state = StateStreaming
	view := c.viewLocked()
	c.mu.Unlock()
	notify(view)

	log := c.opts.Log.With("generation", gen, "provider", settings.Provider)
	log.Info("generation started", "prompt_chars", len(p))

	client, err := c.opts.NewClient(ctx, settings)
	if err != nil {
		return c.abort(gen, err, notify, log)
	}
	chunks, err := client.Stream(ctx, p)
	if err != nil {
		return c.abort(gen, err, notify, log)
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			return c.abort(gen, chunk.Err, notify, log)
		}
		c.mu.Lock()
		if c.generation != gen {
			c.mu.Unlock()
			log.Info("generation abandoned")
			return ErrSuperseded
		}
		c.buffer.WriteString(chunk.Text)
		view := c.viewLocked()
		c.mu.Unlock()
		notify(view)
	}
	if err := ctx.Err(); err != nil {
		return c.abort(gen, err, notify, log)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.state = StateComplete
	view = c.viewLocked()
	chars := c.buffer.Len()
	c.mu.Unlock()
	notify(view)
	log.Info("generation complete", "answer_chars", chars)
	return nil
}

// abort moves the session to the error state unless a newer generation owns it.
func (c *Controller) abort(gen uint64, err error, notify func(View), log *slog.Logger) error {
	if !llm.IsAuthentication(err) && !llm.IsGeneration(err) {
		err = &llm.GenerationError{Err: err}
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.failLocked(err)
	view := c.viewLocked()
	c.mu.Unlock()

	log.Warn("generation failed", "err", err)
	notify(view)
	return err
}

func (c *Controller) failLocked(err error) {
	c.generation++
	c.buffer.Reset()
	c.state = StateError
	c.failure = err
}

// resetLocked applies an input change: any in-flight stream is abandoned, the
// buffer is cleared and the state becomes ready or idle.
func (c *Controller) resetLocked() {
	c.generation++
	c.buffer.Reset()
	c.failure = nil
	key, _ := c.resolveKeyLocked()
	if c.doc == nil || c.question == "" || key == "" {
		c.prompt = ""
		c.state = StateIdle
		return
	}
	c.prompt = prompt.Assemble(c.doc.text, c.question)
	c.state = StateReady
}

func (c *Controller) resolveKeyLocked() (string, llm.KeySource) {
	return llm.ResolveAPIKey(c.explicitKey, c.opts.EnvAPIKey)
}

func (c *Controller) viewLocked() View {
	_, source := c.resolveKeyLocked()
	s := Snapshot{
		State:     c.state,
		KeySource: source,
		Question:  c.question,
		Buffer:    c.buffer.String(),
		Failure:   c.failure,
	}
	if c.doc != nil {
		s.Document = c.doc.filename
		s.DocumentKind = string(c.doc.kind)
	}
	return Render(s)
}

// extract runs the extractor, consulting the cache by content hash first.
func (c *Controller) extract(ctx context.Context, doc extract.Document) (string, extract.Kind, error) {
	kind, err := extract.DetectKind(doc)
	if err != nil {
		return "", "", &extract.Error{Filename: doc.Filename, Err: err}
	}
	key := string(kind) + ":" + cache.ContentKey(doc.Content)

	cached, err := c.opts.Cache.GetExtraction(ctx, key)
	if err != nil {
		c.opts.Log.Warn("extraction cache read failed", "err", err)
	} else if cached != nil {
		c.opts.Log.Debug("extraction cache hit", "filename", doc.Filename)
		return cached.Text, kind, nil
	}

	text, err := extract.Extract(doc)
	if err != nil {
		return "", kind, err
	}
	if err := c.opts.Cache.SetExtraction(ctx, key, &cache.Extraction{Kind: string(kind), Text: text}, c.opts.CacheTTL); err != nil {
		c.opts.Log.Warn("extraction cache write failed", "err", err)
	}
	return text, kind, nil
}
