package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/zigzag-timetable/backend/internal/models"
)

// Renderer draws an ordered primitive list onto an output stream.
// Primitives are drawn in list order; later ones paint over earlier ones.
type Renderer interface {
	// Name returns the format name used to select this renderer.
	Name() string

	// ContentType returns the MIME type of the rendered output.
	ContentType() string

	// Extension returns the file extension, including the dot.
	Extension() string

	// Render writes prims to w.
	Render(w io.Writer, prims []models.Primitive) error
}

// UnknownFormatError is returned for a format no renderer handles.
type UnknownFormatError struct {
	Format    string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (available: %s)", e.Format, strings.Join(e.Available, ", "))
}

// Registry holds renderers keyed by format name.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates a registry with the built-in renderers bound to sheet.
// A nil sheet selects DefaultStylesheet.
func NewRegistry(sheet *Stylesheet) *Registry {
	if sheet == nil {
		sheet = DefaultStylesheet()
	}
	r := &Registry{renderers: make(map[string]Renderer)}
	r.Register(NewSVGRenderer(sheet))
	r.Register(NewPNGRenderer(sheet))
	r.Register(NewJSONRenderer())
	r.Register(NewMsgpackRenderer())
	return r
}

// Register adds or replaces a renderer.
func (r *Registry) Register(rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[strings.ToLower(rd.Name())] = rd
}

// Get returns the renderer for format. An empty format selects SVG.
func (r *Registry) Get(format string) (Renderer, error) {
	if format == "" {
		format = FormatSVG
	}
	r.mu.RLock()
	rd, ok := r.renderers[strings.ToLower(format)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownFormatError{Format: format, Available: r.Names()}
	}
	return rd, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
