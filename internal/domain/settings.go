package domain

// SettingKey names a row in the settings store.
type SettingKey string

const (
	SettingDefaultRules          SettingKey = "default_rules"
	SettingSignificanceThreshold SettingKey = "significance_threshold"
	SettingCheapModel            SettingKey = "cheap_model"
	SettingStrongModel           SettingKey = "strong_model"
	SettingUserTimezone          SettingKey = "user_timezone"
)

// GlobalKeys are the settings a user may change through the global surface.
var GlobalKeys = []SettingKey{SettingCheapModel, SettingSignificanceThreshold, SettingStrongModel}

const (
	DefaultSignificanceThreshold = 6
	DefaultModel                 = "openai-gpt-oss-120b"
	DefaultTimezone              = "UTC"
)

// GlobalSettings drive model routing and alert gating.
type GlobalSettings struct {
	SignificanceThreshold int    `json:"significance_threshold"`
	CheapModel            string `json:"cheap_model"`
	StrongModel           string `json:"strong_model"`
}

// DefaultGlobalSettings returns the values seeded on first migration.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		SignificanceThreshold: DefaultSignificanceThreshold,
		CheapModel:            DefaultModel,
		StrongModel:           DefaultModel,
	}
}
