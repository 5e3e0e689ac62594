package container

// Lifetime controls how long a resolved instance lives.
type Lifetime int

const (
	// Transient builds a new instance on every resolution.
	Transient Lifetime = iota
	// Singleton builds one instance lazily and shares it until the registry is closed.
	Singleton
)

// String returns the lifetime name used in logs and diagnostics.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}
