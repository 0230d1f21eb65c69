package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name     string       `json:"name"`
	Source   APIKeySource `json:"source"`
	IsSet    bool         `json:"is_set"`
	Required bool         `json:"required"`
	Masked   string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckAPIKeys returns the status of every vendor key finmetrics can use.
// A key is required only when the configured provider depends on it.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	fmp := checkKey("FMP API Key", cfg.FMP.APIKey, "FINMETRICS_FMP_API_KEY")
	fmp.Required = cfg.Fundamentals.Provider == ProviderFMP
	return []KeyStatus{fmp}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = KeySourceEnv
		} else {
			status.Source = KeySourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
