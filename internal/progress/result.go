package progress

type Status int

const (
	StatusFailed Status = iota
	// StatusSynced: the remote store confirmed the write or served the read.
	StatusSynced
	// StatusLocal: the session is a guest, so the local store is the only
	// store.
	StatusLocal
	// StatusLocalFallback: the remote store was tried and could not be used.
	StatusLocalFallback
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusLocal:
		return "local"
	case StatusLocalFallback:
		return "local_fallback"
	default:
		return "failed"
	}
}

// Result is what every Store operation returns. Err is the failure for
// StatusFailed and the fallback reason for StatusLocalFallback; a fallback
// caused by the remote having no data carries a nil Err.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func synced[T any](data T) Result[T] {
	return Result[T]{Status: StatusSynced, Data: data}
}

func local[T any](data T) Result[T] {
	return Result[T]{Status: StatusLocal, Data: data}
}

func fallback[T any](data T, reason error) Result[T] {
	return Result[T]{Status: StatusLocalFallback, Data: data, Err: reason}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

func (r Result[T]) Success() bool {
	return r.Status != StatusFailed
}

func (r Result[T]) IsLocalOnly() bool {
	return r.Status == StatusLocal || r.Status == StatusLocalFallback
}

// Descriptor is the JSON shape handed to the UI layer.
type Descriptor struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data,omitempty"`
	IsLocalOnly bool        `json:"isLocalOnly,omitempty"`
	Error       string      `json:"error,omitempty"`
}

func (r Result[T]) Descriptor() Descriptor {
	d := Descriptor{
		Success:     r.Success(),
		IsLocalOnly: r.IsLocalOnly(),
	}
	if r.Success() {
		d.Data = r.Data
	}
	if r.Err != nil {
		d.Error = r.Err.Error()
	}
	return d
}
