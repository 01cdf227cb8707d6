package model

import "time"

// Config holds the complete questclaim configuration
type Config struct {
	Platform PlatformConfig `yaml:"platform" mapstructure:"platform"`
	Twitter  TwitterConfig  `yaml:"twitter" mapstructure:"twitter"`
	Pacing   PacingConfig   `yaml:"pacing" mapstructure:"pacing"`
	Claim    ClaimConfig    `yaml:"claim" mapstructure:"claim"`
	Phrases  PhrasesConfig  `yaml:"phrases" mapstructure:"phrases"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PlatformConfig configures the quest platform HTTP client
type PlatformConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	AppHost           string        `yaml:"app_host" mapstructure:"app_host"` // Community boards live at https://<subdomain>.<app_host>
	Cookie            string        `yaml:"cookie,omitempty" mapstructure:"cookie"`
	CaptchaToken      string        `yaml:"captcha_token,omitempty" mapstructure:"captcha_token"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	CommunityCacheTTL time.Duration `yaml:"community_cache_ttl" mapstructure:"community_cache_ttl"`
}

// TwitterConfig configures the social-network action provider
type TwitterConfig struct {
	APIBaseURL        string `yaml:"api_base_url" mapstructure:"api_base_url"`
	ConsumerKey       string `yaml:"consumer_key,omitempty" mapstructure:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret,omitempty" mapstructure:"consumer_secret"`
	AccessToken       string `yaml:"access_token,omitempty" mapstructure:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret,omitempty" mapstructure:"access_token_secret"`
	Handle            string `yaml:"handle,omitempty" mapstructure:"handle"` // Falls back to the platform profile's twitter username
}

// Enabled reports whether all OAuth1 credentials are present
func (t TwitterConfig) Enabled() bool {
	return t.ConsumerKey != "" && t.ConsumerSecret != "" && t.AccessToken != "" && t.AccessTokenSecret != ""
}

// PacingConfig controls jittered delays between platform calls
type PacingConfig struct {
	Base        time.Duration `yaml:"base" mapstructure:"base"`                 // Delays are drawn from [base, 2*base)
	MaxRechecks int           `yaml:"max_rechecks" mapstructure:"max_rechecks"` // Re-poll rounds per community after the queue drains
}

// ClaimConfig selects what to claim
type ClaimConfig struct {
	Types       []string `yaml:"types" mapstructure:"types"`
	AnswersFile string   `yaml:"answers_file,omitempty" mapstructure:"answers_file"`
}

// PhrasesConfig selects the source of cosmetic tweet/reply text
type PhrasesConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "", "fixed" or "openai"
	Model    string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ScheduleConfig configures repeated runs
type ScheduleConfig struct {
	Cron        string        `yaml:"cron" mapstructure:"cron"`
	Timezone    string        `yaml:"timezone" mapstructure:"timezone"`
	RunTimeout  time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
}

// OutputConfig controls report output
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	JSON    string `yaml:"json,omitempty" mapstructure:"json"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			BaseURL:           "https://api.crew3.xyz/",
			AppHost:           "crew3.xyz",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 1,
			BurstSize:         2,
			CommunityCacheTTL: 30 * time.Minute,
		},
		Twitter: TwitterConfig{
			APIBaseURL: "https://api.twitter.com/1.1/",
		},
		Pacing: PacingConfig{
			Base:        2 * time.Second,
			MaxRechecks: 3,
		},
		Claim: ClaimConfig{
			Types: []string{string(SubmissionNone)},
		},
		Phrases: PhrasesConfig{
			Provider: "fixed",
			Model:    "gpt-4o-mini",
		},
		Schedule: ScheduleConfig{
			Cron:       "0 */6 * * *",
			Timezone:   "UTC",
			RunTimeout: 2 * time.Hour,
		},
	}
}
