// Package render turns movie records into the HTML fragments and page shells
// served to the browser. It performs no I/O besides writing to the given
// writer; every interaction is an htmx request back to the server.
package render

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"movie-discovery-likes/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Toggle views.
const (
	ViewButton = "button"
	ViewCard   = "card"
)

// CardOptions controls the parts of a card that depend on the page.
type CardOptions struct {
	Toggle     bool
	Liked      bool
	View       string
	ShowRating bool
}

// CardView is a movie record resolved into display strings.
type CardView struct {
	ID         models.MovieID
	Title      string
	Poster     string
	Release    string
	Rating     string
	ShowRating bool
	Score      string
	Toggle     bool
	Liked      bool
	View       string
	Vals       string
}

// NewCard resolves m into a CardView.
func NewCard(m models.Movie, opts CardOptions) CardView {
	view := opts.View
	if view == "" {
		view = ViewButton
	}
	c := CardView{
		ID:         m.ID,
		Title:      m.Title,
		Poster:     PosterURL(m.PosterPath),
		Release:    orNA(m.ReleaseDate),
		Rating:     FormatRating(m.Rating),
		ShowRating: opts.ShowRating,
		Toggle:     opts.Toggle,
		Liked:      opts.Liked,
		View:       view,
	}
	if m.Score != nil {
		c.Score = strconv.FormatFloat(*m.Score, 'f', 2, 64)
	}
	if opts.Toggle {
		c.Vals = toggleVals(m, opts.Liked, view)
	}
	return c
}

// PosterURL resolves a poster path. Absolute URLs pass through, relative
// paths get the w200 image base, and a missing poster uses the placeholder.
func PosterURL(path string) string {
	switch {
	case path == "":
		return models.PlaceholderPoster
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	default:
		return models.TMDBImageBaseW200 + path
	}
}

// FormatRating renders a rating with one decimal. Missing and zero ratings
// read N/A.
func FormatRating(r *float64) string {
	if r == nil || *r == 0 {
		return models.NotAvailable
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}

// toggleVals is the form a toggle posts: the action that clicking performs
// plus the record to store with a like.
func toggleVals(m models.Movie, liked bool, view string) string {
	action := "like"
	if liked {
		action = "unlike"
	}
	b, err := json.Marshal(map[string]string{
		"action":       action,
		"view":         view,
		"title":        m.Title,
		"poster_path":  m.PosterPath,
		"release_date": m.ReleaseDate,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Message is a fixed status line shown in a container.
type Message struct {
	Text  string
	Error bool
}

// Info and Failure build messages.
func Info(text string) Message    { return Message{Text: text} }
func Failure(text string) Message { return Message{Text: text, Error: true} }

// Shell describes a page: its heading, the container that receives the
// fragment, and either the fragment URL to load or a prompt shown instead.
type Shell struct {
	Title     string
	Heading   string
	PageID    string
	SignedIn  bool
	Search    bool
	Container string
	Fragment  string
	Loading   string
	Prompt    *Message
}

type shellView struct {
	Shell
	Headers string
}

type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates. It panics if they are malformed.
func New() *Renderer {
	return &Renderer{tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

func (r *Renderer) Page(w io.Writer, s Shell) error {
	headers, err := json.Marshal(map[string]string{"X-Page-Session": s.PageID})
	if err != nil {
		return err
	}
	return r.tmpl.ExecuteTemplate(w, "page", shellView{Shell: s, Headers: string(headers)})
}

func (r *Renderer) Cards(w io.Writer, cards []CardView) error {
	return r.tmpl.ExecuteTemplate(w, "cards", cards)
}

func (r *Renderer) Card(w io.Writer, card CardView) error {
	return r.tmpl.ExecuteTemplate(w, "card", card)
}

// Toggle renders just the like/unlike control of card.
func (r *Renderer) Toggle(w io.Writer, card CardView) error {
	return r.tmpl.ExecuteTemplate(w, "toggle", card)
}

func (r *Renderer) Message(w io.Writer, m Message) error {
	return r.tmpl.ExecuteTemplate(w, "message", m)
}
