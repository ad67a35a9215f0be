package session

// Handler receives one chunk read from stdout or stderr. Chunks are not
// line delimited.
type Handler func(data []byte)

// Listener receives every event of a session.
type Listener interface {
	OnOutput(data []byte)
	OnError(data []byte)
	OnEnd()
}

// NopListener ignores all events.
type NopListener struct{}

func (NopListener) OnOutput([]byte) {}
func (NopListener) OnError([]byte)  {}
func (NopListener) OnEnd()          {}

// HandlerFuncs adapts plain functions to Listener. Nil fields are ignored.
type HandlerFuncs struct {
	Output Handler
	Error  Handler
	End    func()
}

func (h HandlerFuncs) OnOutput(data []byte) {
	if h.Output != nil {
		h.Output(data)
	}
}

func (h HandlerFuncs) OnError(data []byte) {
	if h.Error != nil {
		h.Error(data)
	}
}

func (h HandlerFuncs) OnEnd() {
	if h.End != nil {
		h.End()
	}
}

func noop([]byte) {}

func noopEnd() {}

func orNoop(h Handler) Handler {
	if h == nil {
		return noop
	}
	return h
}

func orNoopEnd(h func()) func() {
	if h == nil {
		return noopEnd
	}
	return h
}
