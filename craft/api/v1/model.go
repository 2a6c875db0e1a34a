package v1

// ConfigRequest is the body of a configuration POST:
// {"config": [ {<key>: <string|object>} ]}
type ConfigRequest struct {
	Config []map[string]any `json:"config"`
}

type PasswordChange struct {
	Admin   string `json:"admin"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

type ConfigResponse struct {
	Error       int    `json:"error"`
	ErrorString string `json:"errorstring"`
}

func SetRequest(key, value string) ConfigRequest {
	return ConfigRequest{Config: []map[string]any{{key: value}}}
}

func PasswordRequest(key string, pw PasswordChange) ConfigRequest {
	return ConfigRequest{Config: []map[string]any{{key: pw}}}
}
