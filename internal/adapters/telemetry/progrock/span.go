package progrock

import "github.com/vito/progrock"

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
}

// Write captures the unit's output on the vertex stdout stream.
func (s *Span) Write(p []byte) (n int, err error) {
	return s.vertex.Stdout().Write(p)
}

// End marks the vertex as finished, failed when err is non-nil.
func (s *Span) End(err error) {
	s.vertex.Done(err)
}
