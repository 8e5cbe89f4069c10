package domain

// ConnectionStatus is the diagnostic record returned by a connectivity probe.
// On failure only Connected, URI, Database and Error are set.
type ConnectionStatus struct {
	Connected   bool     `json:"connected"`
	URI         string   `json:"uri"`
	Database    string   `json:"database"`
	AuthEnabled *bool    `json:"auth_enabled,omitempty"`
	Components  []Record `json:"components,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ConnectionInfo combines static connection settings with a live probe.
type ConnectionInfo struct {
	BoltURI     string           `json:"bolt_uri"`
	HTTPURI     string           `json:"http_uri"`
	Database    string           `json:"database"`
	AuthEnabled bool             `json:"auth_enabled"`
	Encrypted   bool             `json:"encrypted"`
	Status      ConnectionStatus `json:"status"`
}
