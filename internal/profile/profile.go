package profile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hrygo/appointment-assistant/server/service/calendar"
)

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string `mapstructure:"mode"`
	// Addr is the binding address for the HTTP server
	Addr string `mapstructure:"addr"`
	// Port is the binding port for the HTTP server
	Port int `mapstructure:"port"`
	// Version is the current version of the assistant
	Version string `mapstructure:"-"`

	// AI configuration. The assistant runs fully rule-based when disabled or
	// when no API key is configured.
	AIEnabled       bool          `mapstructure:"ai_enabled"`
	AIOpenAIAPIKey  string        `mapstructure:"ai_openai_api_key"`
	AIOpenAIBaseURL string        `mapstructure:"ai_openai_base_url"`
	AILLMModel      string        `mapstructure:"ai_llm_model"`
	AITimeout       time.Duration `mapstructure:"ai_timeout"`

	// Business-hours policy. Times are 24-hour "H:MM" strings.
	OpenTime        string        `mapstructure:"open_time"`
	CloseTime       string        `mapstructure:"close_time"`
	LastStartTime   string        `mapstructure:"last_start_time"`
	LunchStartTime  string        `mapstructure:"lunch_start_time"`
	LunchEndTime    string        `mapstructure:"lunch_end_time"`
	SlotGranularity time.Duration `mapstructure:"slot_granularity"`

	// Session housekeeping.
	SessionMaxIdle         time.Duration `mapstructure:"session_max_idle"`
	SessionCleanupInterval time.Duration `mapstructure:"session_cleanup_interval"`
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI extraction is enabled and an API key is set.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIOpenAIAPIKey != ""
}

// FromEnv loads configuration from ASSISTANT_* environment variables with
// defaults for everything not set.
func FromEnv(version string) (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("assistant")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)

	v.SetDefault("ai_enabled", false)
	v.SetDefault("ai_openai_api_key", "")
	v.SetDefault("ai_openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai_llm_model", "gpt-4o-mini")
	v.SetDefault("ai_timeout", 10*time.Second)

	v.SetDefault("open_time", "8:00")
	v.SetDefault("close_time", "17:00")
	v.SetDefault("last_start_time", "16:30")
	v.SetDefault("lunch_start_time", "13:00")
	v.SetDefault("lunch_end_time", "14:00")
	v.SetDefault("slot_granularity", 30*time.Minute)

	v.SetDefault("session_max_idle", 30*time.Minute)
	v.SetDefault("session_cleanup_interval", 5*time.Minute)

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal profile")
	}
	p.Version = version

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate normalizes the mode and checks the configured policy is coherent.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	rules, err := p.Rules()
	if err != nil {
		return err
	}
	return rules.Validate()
}

// Rules builds the business-hours policy from the profile, starting from the
// stock policy so only the configured fields change.
func (p *Profile) Rules() (*calendar.BusinessRules, error) {
	rules := calendar.DefaultRules()

	for _, f := range []struct {
		value  string
		target *calendar.ClockTime
	}{
		{p.OpenTime, &rules.Open},
		{p.CloseTime, &rules.Close},
		{p.LastStartTime, &rules.LastStart},
		{p.LunchStartTime, &rules.LunchStart},
		{p.LunchEndTime, &rules.LunchEnd},
	} {
		if f.value == "" {
			continue
		}
		c, err := calendar.ParseClock(f.value)
		if err != nil {
			return nil, err
		}
		*f.target = c
	}

	if p.SlotGranularity > 0 {
		rules.Granularity = p.SlotGranularity
	}
	return rules, nil
}
