package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avillar/storecheck/internal/authn"
	"github.com/avillar/storecheck/internal/contract"
)

// Duration wraps time.Duration so config files can say "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config locates the backend under test and the credentials for each
// authenticated identity.
type Config struct {
	// BaseURL is the root of the API under test.
	BaseURL string `yaml:"base_url"`

	// Auth configures the password-grant token endpoint. TokenURL defaults
	// to BaseURL + "/oauth2/token".
	Auth authn.Config `yaml:"auth"`

	// Identities maps identity names (client, admin) to credentials. The
	// invalid_token identity needs no entry: it corrupts the client token.
	Identities map[string]authn.Credentials `yaml:"identities"`

	// Timeout bounds every HTTP call, token requests included.
	Timeout Duration `yaml:"timeout"`
}

// Fixed client pair the storefront's authorization server is provisioned
// with. Overridable per deployment via the auth section.
const (
	defaultClientID     = "myclientid"
	defaultClientSecret = "myclientsecret"
)

// LoadConfig reads and validates a YAML config file. Unknown keys are
// rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes raw config bytes, applies defaults and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenURL == "" && c.BaseURL != "" {
		c.Auth.TokenURL = c.BaseURL + "/oauth2/token"
	}
	if c.Auth.ClientID == "" {
		c.Auth.ClientID = defaultClientID
	}
	if c.Auth.ClientSecret == "" {
		c.Auth.ClientSecret = defaultClientSecret
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(10 * time.Second)
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	for name := range c.Identities {
		if _, err := contract.ParseIdentity(name); err != nil {
			return fmt.Errorf("config: identities: %w", err)
		}
	}
	return nil
}

// Credentials resolves the credentials backing an identity. The
// invalid_token identity borrows the client credentials; its token is
// corrupted after issuance.
func (c *Config) Credentials(id contract.Identity) (authn.Credentials, error) {
	lookup := id
	if id == contract.InvalidToken {
		lookup = contract.Client
	}
	creds, ok := c.Identities[string(lookup)]
	if !ok {
		return authn.Credentials{}, fmt.Errorf("no credentials configured for identity %q", lookup)
	}
	return creds, nil
}
