package searcher

// emitter forwards events to a Sink and remembers the last line it reported
// so it can mark gaps between context groups.
type emitter struct {
	sink        Sink
	withContext bool
	last        int
}

func newEmitter(sink Sink, cfg Config) *emitter {
	return &emitter{
		sink:        sink,
		withContext: cfg.Before > 0 || cfg.After > 0,
	}
}

// gap sends a Break when the next reported line does not follow the last one.
func (e *emitter) gap(next int) (bool, error) {
	if !e.withContext || e.last == 0 || next <= e.last+1 {
		return true, nil
	}
	return e.sink.Context(Break, 0, nil)
}

func (e *emitter) context(kind ContextKind, num int, data []byte) (bool, error) {
	e.last = num
	return e.sink.Context(kind, num, data)
}

func (e *emitter) matched(num int, data []byte) (bool, error) {
	e.last = num
	return e.sink.Matched(num, data)
}

