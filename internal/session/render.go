package session

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docqa/internal/llm"
)

// Cursor marks an answer that is still streaming.
const Cursor = "▌"

const (
	keyWarning = "Please provide an API key to use this application. Leave the field blank to use the API_KEY environment variable."
	retryHint  = "Please check your API key and try again."
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// State is the controller's position in the interaction.
type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateStreaming State = "streaming"
	StateComplete  State = "complete"
	StateError     State = "error"
)

// Snapshot is the controller state Render needs.
type Snapshot struct {
	State        State
	KeySource    llm.KeySource
	Document     string
	DocumentKind string
	Question     string
	Buffer       string
	Failure      error
}

// View is what the page shows.
type View struct {
	State           State  `json:"state"`
	KeySource       string `json:"key_source,omitempty"`
	Warning         string `json:"warning,omitempty"`
	Document        string `json:"document,omitempty"`
	DocumentKind    string `json:"document_kind,omitempty"`
	Question        string `json:"question,omitempty"`
	QuestionEnabled bool   `json:"question_enabled"`
	Answer          string `json:"answer"`
	AnswerHTML      string `json:"answer_html"`
	Error           string `json:"error,omitempty"`
	Hint            string `json:"hint,omitempty"`
	CanRegenerate   bool   `json:"can_regenerate"`
}

// Render is a pure function of the snapshot. The partial buffer is shown with
// the cursor while streaming and dropped entirely on error.
func Render(s Snapshot) View {
	v := View{
		State:           s.State,
		KeySource:       string(s.KeySource),
		Document:        s.Document,
		DocumentKind:    s.DocumentKind,
		Question:        s.Question,
		QuestionEnabled: s.Document != "" && s.KeySource != llm.KeySourceNone,
	}
	if s.KeySource == llm.KeySourceNone {
		v.Warning = keyWarning
	}

	switch s.State {
	case StateStreaming:
		v.Answer = s.Buffer + Cursor
	case StateComplete:
		v.Answer = s.Buffer
		v.CanRegenerate = true
	case StateError:
		if s.Failure != nil {
			v.Error = s.Failure.Error()
		}
		v.Hint = retryHint
	}
	if v.Answer != "" {
		v.AnswerHTML = markdownToHTML(v.Answer)
	}
	return v
}

func markdownToHTML(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "<pre>" + html.EscapeString(src) + "</pre>"
	}
	return buf.String()
}
