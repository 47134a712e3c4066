package status

// Sink receives counter increments; terminal.Metrics has the same shape
type Sink interface {
	Inc(name string)
}

// Fanout forwards every increment to each sink in order
type Fanout []Sink

// Inc implements Sink
func (f Fanout) Inc(name string) {
	for _, s := range f {
		s.Inc(name)
	}
}
