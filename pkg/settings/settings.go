// Package settings resolves the deployment settings of a pixel process.
//
// Settings are read once at startup (defaults, then an optional config file,
// then environment variables, with a .env file loaded first) into an explicit
// Settings value that is passed to every component. Nothing below cmd/ reads
// the environment directly.
package settings

import (
	"os"
	"strings"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment is the deployment target that selects the remote bucket.
type Environment string

const (
	Beta Environment = "beta"
	Prod Environment = "prod"
)

// ParseEnvironment maps a deployment flag to an Environment. Unset and
// unrecognized values resolve to Beta.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Prod
	default:
		return Beta
	}
}

// String returns the underlying string value of the environment.
func (e Environment) String() string { return string(e) }

// Model providers.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
)

// Defaults.
const (
	DefaultRegion    = "us-east-1"
	DefaultModelID   = "anthropic.claude-3-sonnet-20240229-v1:0"
	DefaultMaxTokens = 2000
	DefaultTimeout   = 5 * time.Minute
	DefaultNaming    = "fixed"
)

// Settings is the resolved deployment configuration.
type Settings struct {
	Environment Environment       `mapstructure:"environment"`
	Job         string            `mapstructure:"job"`    // Default job id when none is given on the command line.
	Region      string            `mapstructure:"region"` // AWS region for Bedrock, S3 and SQS.
	Root        string            `mapstructure:"root"`   // Workspace root holding prompts/, prompt_templates/, outputs/.
	Naming      string            `mapstructure:"naming"` // Deployment naming policy: fixed or timestamped.
	Buckets     BucketSettings    `mapstructure:"buckets"`
	Model       ModelSettings     `mapstructure:"model"`
	Anthropic   AnthropicSettings `mapstructure:"anthropic"`
	Template    TemplateSettings  `mapstructure:"template"`
	Notify      NotifySettings    `mapstructure:"notify"`
	Log         LogSettings       `mapstructure:"log"`
}

// BucketSettings names the bucket of each environment.
type BucketSettings struct {
	Beta string `mapstructure:"beta"`
	Prod string `mapstructure:"prod"`
}

// ModelSettings configures the inference endpoint.
type ModelSettings struct {
	Provider  string        `mapstructure:"provider"`   // bedrock or anthropic.
	ID        string        `mapstructure:"id"`         // Model identifier.
	MaxTokens int           `mapstructure:"max_tokens"` // Default generation-length bound.
	Timeout   time.Duration `mapstructure:"timeout"`    // Client-side bound on the inference call.
}

// AnthropicSettings configures the direct Anthropic API provider.
type AnthropicSettings struct {
	APIKey  string `mapstructure:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	BaseURL string `mapstructure:"base_url"`
}

// TemplateSettings configures prompt rendering.
type TemplateSettings struct {
	Strict bool `mapstructure:"strict"` // Fail on placeholders without a variable.
}

// NotifySettings configures the optional publish notification.
type NotifySettings struct {
	QueueURL string `mapstructure:"queue_url"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	ConfigFile string // YAML or TOML settings file; empty means environment and defaults only.
	EnvFile    string // .env file; ignored when missing.
}

// Load reads a .env file (if present), then resolves settings from defaults,
// the optional config file and the environment.
func Load(opts LoadOptions) (Settings, error) {
	if err := LoadDotEnv(opts.EnvFile); err != nil {
		return Settings{}, errors.WrapKind(err, errors.ErrConfigInvalid, "settings: load %s", opts.EnvFile)
	}

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return Settings{}, errors.WrapKind(err, errors.ErrConfigNotFound, "settings: config file %s", opts.ConfigFile)
		}

		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, errors.WrapKind(err, errors.ErrConfigInvalid, "settings: read %s", opts.ConfigFile)
		}
	}

	return FromViper(v)
}

// LoadDotEnv loads environment variables from path. A missing file or an
// empty path is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// FromViper unmarshals and normalizes settings from a prepared viper instance.
func FromViper(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.WrapKind(err, errors.ErrConfigInvalid, "settings: unmarshal")
	}

	s.Environment = ParseEnvironment(string(s.Environment))
	s.Naming = strings.ToLower(strings.TrimSpace(s.Naming))
	s.Model.Provider = strings.ToLower(strings.TrimSpace(s.Model.Provider))

	return s, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", string(Beta))
	v.SetDefault("job", "")
	v.SetDefault("region", DefaultRegion)
	v.SetDefault("root", ".")
	v.SetDefault("naming", DefaultNaming)
	v.SetDefault("buckets.beta", "")
	v.SetDefault("buckets.prod", "")
	v.SetDefault("model.provider", ProviderBedrock)
	v.SetDefault("model.id", DefaultModelID)
	v.SetDefault("model.max_tokens", DefaultMaxTokens)
	v.SetDefault("model.timeout", DefaultTimeout)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("template.strict", true)
	v.SetDefault("notify.queue_url", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// BindEnv binds the PIXEL_* variables and the deployment variables the job
// runners already export (DEPLOY_ENV, S3_BUCKET_BETA, ...). The first name
// listed for a key wins when several are set.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PIXEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("environment", "PIXEL_ENVIRONMENT", "DEPLOY_ENV")
	_ = v.BindEnv("job", "PIXEL_JOB", "FILENAME")
	_ = v.BindEnv("region", "PIXEL_REGION", "AWS_REGION")
	_ = v.BindEnv("buckets.beta", "PIXEL_BUCKETS_BETA", "S3_BUCKET_BETA")
	_ = v.BindEnv("buckets.prod", "PIXEL_BUCKETS_PROD", "S3_BUCKET_PROD")
	_ = v.BindEnv("anthropic.api_key", "PIXEL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

// Bucket returns the bucket of the selected environment.
func (s Settings) Bucket() string {
	return s.BucketFor(s.Environment)
}

// BucketFor returns the bucket of env; unrecognized values use the beta bucket.
func (s Settings) BucketFor(env Environment) string {
	if ParseEnvironment(string(env)) == Prod {
		return s.Buckets.Prod
	}
	return s.Buckets.Beta
}

// Validate checks that the settings are internally consistent. With forRun
// set it also requires everything a publishing run needs.
func (s Settings) Validate(forRun bool) error {
	switch s.Naming {
	case "fixed", "timestamped":
	default:
		return errors.NewKind(errors.ErrConfigInvalid, "settings: naming %q must be fixed or timestamped", s.Naming)
	}

	if s.Model.MaxTokens <= 0 {
		return errors.NewKind(errors.ErrConfigInvalid, "settings: model.max_tokens must be positive, got %d", s.Model.MaxTokens)
	}

	if !forRun {
		return nil
	}

	if s.Buckets.Beta == "" || s.Buckets.Prod == "" {
		return errors.WithHint(
			errors.NewKind(errors.ErrConfigInvalid, "settings: both buckets.beta and buckets.prod must be set"),
			"export S3_BUCKET_BETA and S3_BUCKET_PROD",
		)
	}

	if s.Model.Timeout <= 0 {
		return errors.NewKind(errors.ErrConfigInvalid, "settings: model.timeout must be positive, got %s", s.Model.Timeout)
	}

	switch s.Model.Provider {
	case ProviderBedrock:
		if s.Model.ID == "" {
			return errors.NewKind(errors.ErrConfigInvalid, "settings: model.id is required")
		}
	case ProviderAnthropic:
		if s.Anthropic.APIKey == "" {
			return errors.WithHint(
				errors.NewKind(errors.ErrConfigInvalid, "settings: anthropic.api_key is required for the anthropic provider"),
				"export ANTHROPIC_API_KEY",
			)
		}
	default:
		return errors.NewKind(errors.ErrConfigInvalid, "settings: unknown model.provider %q", s.Model.Provider)
	}

	return nil
}
