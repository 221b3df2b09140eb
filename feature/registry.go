package feature

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// OnError selects how a failed lookup is reported.
type OnError int

const (
	// Raise returns a NotFoundError.
	Raise OnError = iota
	// Warn logs a warning and returns an absent result.
	Warn
	// Ignore returns an absent result silently.
	Ignore
)

func (o OnError) String() string {
	switch o {
	case Raise:
		return "raise"
	case Warn:
		return "warn"
	case Ignore:
		return "ignore"
	default:
		return fmt.Sprintf("OnError(%d)", int(o))
	}
}

// ParseOnError parses "raise", "warn" or "ignore".
func ParseOnError(s string) (OnError, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raise", "error":
		return Raise, nil
	case "warn", "warning":
		return Warn, nil
	case "ignore":
		return Ignore, nil
	}
	return Raise, fmt.Errorf("unknown error policy %q", s)
}

// Loader builds the default System.
type Loader func(ctx context.Context) (*System, error)

// Registry owns the default System and any number of named custom systems.
// The default System is loaded on first use; concurrent first callers share
// one load. A failed load is not cached.
type Registry struct {
	loader Loader
	logger *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	def    *System
	custom map[string]*System
}

// NewRegistry creates a Registry. A nil loader uses the embedded table and a
// nil logger discards output.
func NewRegistry(loader Loader, logger *slog.Logger) *Registry {
	if loader == nil {
		loader = func(context.Context) (*System, error) { return LoadDefault() }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		loader: loader,
		logger: logger,
		custom: make(map[string]*System),
	}
}

// Default returns the default System, loading it if needed.
func (r *Registry) Default(ctx context.Context) (*System, error) {
	r.mu.RLock()
	def := r.def
	r.mu.RUnlock()
	if def != nil {
		return def, nil
	}

	v, err, _ := r.group.Do(DefaultSystem, func() (any, error) {
		r.mu.RLock()
		def := r.def
		r.mu.RUnlock()
		if def != nil {
			return def, nil
		}

		sys, err := r.loader(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.def = sys
		r.mu.Unlock()

		r.logger.Info("feature table loaded",
			slog.String("system", DefaultSystem),
			slog.Int("phonemes", sys.Len()),
			slog.Int("features", sys.Dim()))
		return sys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*System), nil
}

// System returns the System registered under name. An empty name or
// DefaultSystem selects the default System.
func (r *Registry) System(ctx context.Context, name string) (*System, error) {
	if name == "" || name == DefaultSystem {
		return r.Default(ctx)
	}

	r.mu.RLock()
	sys, ok := r.custom[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSystem, name)
	}
	return sys, nil
}

// Register adds sys under its name, replacing any system of the same name.
// Registering under DefaultSystem replaces the default table.
func (r *Registry) Register(sys *System) {
	r.mu.Lock()
	if sys.Name() == DefaultSystem {
		r.def = sys
	} else {
		r.custom[sys.Name()] = sys
	}
	r.mu.Unlock()

	r.logger.Info("feature system registered",
		slog.String("system", sys.Name()),
		slog.Int("phonemes", sys.Len()),
		slog.Int("features", sys.Dim()))
}

// Names returns DefaultSystem followed by the custom system names in
// lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.custom))
	for n := range r.custom {
		names = append(names, n)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return append([]string{DefaultSystem}, names...)
}

// Lookup returns the vector of a normalized phoneme. If the phoneme is
// absent, policy decides between a NotFoundError (Raise) and a nil vector
// (Warn, Ignore). An unknown system is always an error.
func (r *Registry) Lookup(ctx context.Context, phoneme, system string, policy OnError) (Vector, error) {
	sys, err := r.System(ctx, system)
	if err != nil {
		return nil, err
	}

	if vec, ok := sys.Vector(phoneme); ok {
		return vec, nil
	}
	return nil, r.Missing(phoneme, sys.Name(), policy)
}

// Missing applies policy to a phoneme absent from system. It returns a
// NotFoundError for Raise and nil otherwise.
func (r *Registry) Missing(phoneme, system string, policy OnError) error {
	switch policy {
	case Warn:
		r.logger.Warn("phoneme not found",
			slog.String("phoneme", phoneme),
			slog.String("system", system))
		return nil
	case Ignore:
		return nil
	default:
		return &NotFoundError{Phoneme: phoneme, System: system}
	}
}
