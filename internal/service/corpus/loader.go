package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	resumeSection  = "RESUME"
	projectSection = "PROJECT"

	readConcurrency = 4
)

// Source is the read-only view request handlers get of the corpus.
type Source interface {
	Text() string
	Ready() bool
}

// Loader assembles the background text injected into every model request:
// the resume plus any project documents. The text is published once, after
// loading finishes, and never changes afterwards.
type Loader struct {
	resumePath  string
	projectsDir string
	logger      *zap.Logger

	once  sync.Once
	text  atomic.Pointer[string]
	ready chan struct{}
}

var _ Source = (*Loader)(nil)

// NewLoader creates a Loader. Either path may be empty.
func NewLoader(resumePath, projectsDir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		resumePath:  resumePath,
		projectsDir: projectsDir,
		logger:      logger,
		ready:       make(chan struct{}),
	}
}

// Load reads every source and publishes the corpus. Failures are logged and
// skipped. Only the first call does any work; later calls return the
// published text.
func (l *Loader) Load(ctx context.Context) string {
	l.once.Do(func() {
		text := l.build(ctx)
		l.text.Store(&text)
		close(l.ready)
		l.logger.Info("context corpus loaded", zap.Int("bytes", len(text)))
	})
	return l.Text()
}

// Text returns the published corpus, or "" while loading is still running.
func (l *Loader) Text() string {
	if p := l.text.Load(); p != nil {
		return *p
	}
	return ""
}

// Ready reports whether the corpus has been published.
func (l *Loader) Ready() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the corpus is published or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loader) build(ctx context.Context) string {
	var builder strings.Builder

	if resume := l.loadResume(); resume != "" {
		writeSection(&builder, resumeSection, resume)
	}

	for _, doc := range l.loadProjects(ctx) {
		writeSection(&builder, fmt.Sprintf("%s: %s", projectSection, doc.name), doc.text)
	}

	return strings.TrimSpace(builder.String())
}

func (l *Loader) loadResume() string {
	if l.resumePath == "" {
		l.logger.Warn("resume path not configured")
		return ""
	}

	if _, err := os.Stat(l.resumePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("resume file not found", zap.String("path", l.resumePath))
		} else {
			l.logger.Error("failed to stat resume", zap.String("path", l.resumePath), zap.Error(err))
		}
		return ""
	}

	text, err := ExtractText(l.resumePath)
	if err != nil {
		l.logger.Error("failed to extract resume text", zap.String("path", l.resumePath), zap.Error(err))
		return ""
	}

	l.logger.Info("resume loaded", zap.String("path", l.resumePath))
	return text
}

type document struct {
	name string
	text string
}

func (l *Loader) loadProjects(ctx context.Context) []document {
	if l.projectsDir == "" {
		return nil
	}

	entries, err := os.ReadDir(l.projectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("projects directory not found", zap.String("path", l.projectsDir))
		} else {
			l.logger.Error("failed to read projects directory", zap.String("path", l.projectsDir), zap.Error(err))
		}
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsDocument(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]document, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, name := range names {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			path := filepath.Join(l.projectsDir, name)
			text, err := ExtractText(path)
			if err != nil {
				l.logger.Error("failed to read project document", zap.String("path", path), zap.Error(err))
				return nil
			}
			docs[i] = document{name: name, text: text}
			return nil
		})
	}
	_ = g.Wait()

	loaded := docs[:0]
	for _, doc := range docs {
		if doc.text != "" {
			loaded = append(loaded, doc)
		}
	}
	l.logger.Info("project documents loaded", zap.Int("count", len(loaded)), zap.String("dir", l.projectsDir))
	return loaded
}

func writeSection(builder *strings.Builder, title, body string) {
	builder.WriteString("=== ")
	builder.WriteString(title)
	builder.WriteString(" ===\n")
	builder.WriteString(body)
	builder.WriteString("\n\n")
}
