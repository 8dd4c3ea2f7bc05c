package httpapi

import "github.com/deferscky/stringeditor/internal/server/textops"

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type stringsRequest struct {
	Strings []string `json:"strings"`
}

type sortRequest struct {
	Strings   []string `json:"strings"`
	Ascending *bool    `json:"ascending"`
}

type searchRequest struct {
	Strings       []string `json:"strings"`
	SearchText    string   `json:"searchText"`
	CaseSensitive bool     `json:"caseSensitive"`
}

type replaceRequest struct {
	Strings       []string `json:"strings"`
	OldValue      string   `json:"oldValue"`
	NewValue      string   `json:"newValue"`
	CaseSensitive bool     `json:"caseSensitive"`
}

type deleteRequest struct {
	Strings         []string `json:"strings"`
	IndicesToDelete []int    `json:"indicesToDelete"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type saveResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type getAllResponse struct {
	Strings []string `json:"strings"`
}

type sortResponse struct {
	SortedStrings   []string `json:"sorted_strings"`
	ExecutionTimeMs int64    `json:"executionTimeMs"`
}

type searchResponse struct {
	FoundCount      int             `json:"found_count"`
	Results         []textops.Match `json:"results"`
	ExecutionTimeMs int64           `json:"executionTimeMs"`
}

type noMatchesResponse struct {
	Message         string `json:"message"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
}

type replaceResponse struct {
	ModifiedStrings []string `json:"modified_strings"`
	ExecutionTimeMs int64    `json:"executionTimeMs"`
}

type deleteResponse struct {
	RemainingStrings []string `json:"remaining_strings"`
	DeletedCount     int      `json:"deleted_count"`
	ExecutionTimeMs  int64    `json:"executionTimeMs"`
}

type operationResponse struct {
	ID              int64  `json:"id"`
	OperationType   string `json:"operation_type"`
	Parameters      string `json:"parameters"`
	Result          string `json:"result"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	OperationTime   string `json:"operation_time"`
}

type indexResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type systemInfoResponse struct {
	GoVersion      string  `json:"go_version"`
	Goroutines     int     `json:"goroutines"`
	NumCPU         int     `json:"num_cpu"`
	OS             string  `json:"os"`
	Arch           string  `json:"arch"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ActiveSessions int     `json:"active_sessions"`
}
