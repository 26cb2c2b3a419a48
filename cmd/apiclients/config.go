package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/lkretschmer/apiclients/github"
	"github.com/lkretschmer/apiclients/googleadmin"
	"github.com/lkretschmer/apiclients/stripe"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file. Empty values are filled from the
// environment.
type Config struct {
	DeepL    DeepLConfig    `yaml:"deepl"`
	Google   GoogleConfig   `yaml:"google"`
	Stripe   StripeConfig   `yaml:"stripe"`
	DocuSign DocuSignConfig `yaml:"docusign"`
	GitHub   GitHubConfig   `yaml:"github"`
}

type DeepLConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type GoogleConfig struct {
	KeyFile string `yaml:"key_file"`
	Subject string `yaml:"subject"`
	// Customer defaults to my_customer.
	Customer string `yaml:"customer"`
	BaseURL  string `yaml:"base_url"`
}

type StripeConfig struct {
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`
	BaseURL    string `yaml:"base_url"`
}

type DocuSignConfig struct {
	IntegrationKey string `yaml:"integration_key"`
	UserID         string `yaml:"user_id"`
	PrivateKeyFile string `yaml:"private_key_file"`
	AccountID      string `yaml:"account_id"`
	AuthServer     string `yaml:"auth_server"`
	BaseURL        string `yaml:"base_url"`
}

type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// Environment variables consulted for empty configuration values.
const (
	envConfig                 = "APICLIENTS_CONFIG"
	envDeepLAPIKey            = "DEEPL_API_KEY"
	envGoogleKeyFile          = "GOOGLE_APPLICATION_CREDENTIALS"
	envDocuSignIntegrationKey = "DOCUSIGN_INTEGRATION_KEY"
	envDocuSignUserID         = "DOCUSIGN_USER_ID"
	envDocuSignPrivateKeyFile = "DOCUSIGN_PRIVATE_KEY_FILE"
	envDocuSignAccountID      = "DOCUSIGN_ACCOUNT_ID"
	envDocuSignAuthServer     = "DOCUSIGN_AUTH_SERVER"
	envDocuSignBaseURL        = "DOCUSIGN_BASE_URL"
)

// defaultConfigPath is used when neither --config nor APICLIENTS_CONFIG is
// set. A missing default file is not an error.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "apiclients", "config.yaml")
}

// LoadConfig reads path, or the default location when path is empty, and
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(envConfig)
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	fromEnv(&cfg.DeepL.APIKey, envDeepLAPIKey)
	fromEnv(&cfg.Google.KeyFile, envGoogleKeyFile)
	fromEnv(&cfg.Google.Subject, googleadmin.EnvSubject)
	fromEnv(&cfg.Stripe.APIKey, stripe.EnvAPIKey)
	fromEnv(&cfg.DocuSign.IntegrationKey, envDocuSignIntegrationKey)
	fromEnv(&cfg.DocuSign.UserID, envDocuSignUserID)
	fromEnv(&cfg.DocuSign.PrivateKeyFile, envDocuSignPrivateKeyFile)
	fromEnv(&cfg.DocuSign.AccountID, envDocuSignAccountID)
	fromEnv(&cfg.DocuSign.AuthServer, envDocuSignAuthServer)
	fromEnv(&cfg.DocuSign.BaseURL, envDocuSignBaseURL)
	fromEnv(&cfg.GitHub.Token, github.EnvToken)
}

func fromEnv(field *string, key string) {
	if strings.TrimSpace(*field) != "" {
		return
	}
	*field = strings.TrimSpace(os.Getenv(key))
}

// requireSettings reports every empty setting of one section at once.
func requireSettings(section string, pairs ...string) error {
	var result *multierror.Error
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			result = multierror.Append(result, fmt.Errorf("%s.%s is not configured", section, pairs[i]))
		}
	}
	return result.ErrorOrNil()
}
