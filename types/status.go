package types

type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusNotOK
)

func (s StatusCode) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "NOT_OK"
}

// Status is the reply attached to every request/response message.
type Status struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

func OK() Status {
	return Status{Code: StatusOK}
}

func NotOK(msg string) Status {
	return Status{Code: StatusNotOK, Message: msg}
}

func (s Status) IsOK() bool {
	return s.Code == StatusOK
}
