package models

// Problem is an RFC 7807 problem detail as returned by the API.
type Problem struct {
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Message     string       `json:"message,omitempty"`
	EntityName  string       `json:"entityName,omitempty"`
	ErrorKey    string       `json:"errorKey,omitempty"`
	Params      string       `json:"params,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}
