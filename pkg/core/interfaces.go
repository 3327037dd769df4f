package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards all messages
type NopLogger struct{}

// Printf implements Logger
func (NopLogger) Printf(format string, args ...interface{}) {}

// Camera maps normalized image-plane coordinates to world-space rays.
// (0, 0) is the lower-left corner and (1, 1) the upper-right.
type Camera interface {
	GetRay(s, t float64, sampler Sampler) Ray
}
