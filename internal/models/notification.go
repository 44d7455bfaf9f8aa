package models

// Notice is a user-facing message raised by a flow, e.g. after a successful registration.
type Notice struct {
	Kind    string `json:"kind"` // "registered"
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Code    string `json:"code,omitempty"`
}

const NoticeRegistered = "registered"
