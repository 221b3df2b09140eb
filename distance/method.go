package distance

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/phonodist/feature"
)

var (
	// ErrUnknownMethod is returned when no method is registered under a name.
	ErrUnknownMethod = errors.New("unknown distance method")

	// ErrNeedsModel is returned when a cluster-derived method is computed
	// directly on two vectors instead of through a trained model.
	ErrNeedsModel = errors.New("method requires a cluster model")

	// ErrInvalidResult is returned when a custom method yields a negative
	// or NaN distance.
	ErrInvalidResult = errors.New("invalid distance")
)

// UnknownMethodError reports a method name missing from the registry.
type UnknownMethodError struct {
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown distance method %q", e.Name)
}

func (e *UnknownMethodError) Unwrap() error { return ErrUnknownMethod }

// Kind identifies a builtin method.
type Kind int

const (
	KindCustom Kind = iota
	KindHamming
	KindJaccard
	KindEuclidean
	KindCosine
	KindManhattan
	KindKMeans
)

var kindNames = map[Kind]string{
	KindCustom:    "custom",
	KindHamming:   "hamming",
	KindJaccard:   "jaccard",
	KindEuclidean: "euclidean",
	KindCosine:    "cosine",
	KindManhattan: "manhattan",
	KindKMeans:    "kmeans",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// Builtins lists every builtin kind in registration order.
var Builtins = []Kind{KindHamming, KindJaccard, KindEuclidean, KindCosine, KindManhattan, KindKMeans}

// Func computes a raw distance between two vectors of equal length.
type Func func(u, v feature.Vector) float64

// Method is either a builtin kind or a named custom function.
type Method struct {
	name            string
	kind            Kind
	fn              Func
	selfNormalizing bool
	generation      uint64
}

// Builtin returns the method for a builtin kind.
func Builtin(kind Kind) Method {
	m := Method{name: kind.String(), kind: kind}
	switch kind {
	case KindHamming:
		m.fn = Hamming
	case KindJaccard:
		m.fn, m.selfNormalizing = Jaccard, true
	case KindEuclidean:
		m.fn = Euclidean
	case KindCosine:
		m.fn, m.selfNormalizing = Cosine, true
	case KindManhattan:
		m.fn = Manhattan
	case KindKMeans:
		m.selfNormalizing = true
	}
	return m
}

// CustomOption configures a custom method.
type CustomOption func(*Method)

// WithSelfNormalizing marks a custom method whose results are already in
// [0, 1], so normalization leaves them unchanged.
func WithSelfNormalizing() CustomOption {
	return func(m *Method) { m.selfNormalizing = true }
}

// Custom wraps a user function as a method.
func Custom(name string, fn Func, optFns ...CustomOption) Method {
	m := Method{name: name, kind: KindCustom, fn: fn}
	for _, o := range optFns {
		o(&m)
	}
	return m
}

// Name returns the registered name.
func (m Method) Name() string { return m.name }

// Generation identifies the registration that produced m. It changes every
// time a name is registered, so results of a replaced method can be told
// apart from results of its replacement.
func (m Method) Generation() uint64 { return m.generation }

// Kind returns the builtin kind, or KindCustom.
func (m Method) Kind() Kind { return m.kind }

// IsBuiltin reports whether m is a builtin method.
func (m Method) IsBuiltin() bool { return m.kind != KindCustom }

// SelfNormalizing reports whether results are already in [0, 1].
func (m Method) SelfNormalizing() bool { return m.selfNormalizing }

// Compute returns the distance between u and v. With normalize, builtin
// results are scaled into [0, 1] and custom results are divided by the
// vector length unless the method is self-normalizing.
//
// Ternary values map to {-1, 0, 1}, so one position can differ by 2.
// Normalized Euclidean divides by 2*sqrt(N) and normalized Manhattan by 2*N,
// half of what dividing by sqrt(N) and N would give.
func (m Method) Compute(u, v feature.Vector, normalize bool) (float64, error) {
	if m.kind == KindKMeans {
		return 0, ErrNeedsModel
	}
	if m.fn == nil {
		return 0, &UnknownMethodError{Name: m.name}
	}
	if len(u) != len(v) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(u), len(v))
	}

	d := m.fn(u, v)
	if math.IsNaN(d) || d < 0 {
		return 0, fmt.Errorf("%w: method %q returned %v", ErrInvalidResult, m.name, d)
	}
	if !normalize {
		return d, nil
	}
	return m.scale(d, len(u)), nil
}

func (m Method) scale(d float64, n int) float64 {
	if n == 0 {
		return 0
	}
	switch m.kind {
	case KindHamming:
		return d / float64(n)
	case KindEuclidean:
		return d / (2 * math.Sqrt(float64(n)))
	case KindManhattan:
		return d / (2 * float64(n))
	case KindCosine:
		return math.Min(d, 1)
	}
	if m.selfNormalizing {
		return d
	}
	return d / float64(n)
}
