package drain

// LineSink receives decoded lines as they are read from a stream.
// Implementations must be safe for use from the single goroutine that
// drains the stream; two streams never share one sink invocation.
type LineSink interface {
	HandleLine(line string)
}

// DiscardSink drops every line. Used by read-and-discard strategies where
// the bytes must still flow through this process.
type DiscardSink struct{}

// HandleLine does nothing.
func (DiscardSink) HandleLine(string) {}

// sinks fans a line out to multiple sinks.
type sinks []LineSink

func (s sinks) HandleLine(line string) {
	for _, sink := range s {
		sink.HandleLine(line)
	}
}

// captureSink records every line for the execution result.
type captureSink struct {
	lines []string
}

func (c *captureSink) HandleLine(line string) {
	c.lines = append(c.lines, line)
}
