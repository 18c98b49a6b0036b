package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/deepstream/pkg/dotdir"
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	envSuffix = "_API_KEY"
)

var (
	// ErrUnsupportedProvider is returned when storing a key for a provider
	// deepstream cannot talk to.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrEmptyKey is returned when storing an empty API key.
	ErrEmptyKey = errors.New("API key cannot be empty")
)

// Source says where a resolved key came from.
type Source string

const (
	SourceNone Source = "none"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Key is an API key resolved for one provider.
type Key struct {
	Provider string
	Value    string
	Source   Source

	// EnvVar is the provider's environment variable, whether or not it was set.
	EnvVar string
}

// Manager reads and writes credentials.toml in the .deepstream/ directory.
type Manager struct {
	targetPath string
}

// NewManager creates a credentials Manager. If override is non-empty it is
// used as the .deepstream/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string) (*Manager, error) {
	target, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}

	return &Manager{targetPath: filepath.Join(target, credentialsFile)}, nil
}

// Load reads credentials.toml. A missing file yields empty Credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.targetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
	}

	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}
	return creds, nil
}

// Save writes credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// SetKey stores an API key for a supported provider.
func (m *Manager) SetKey(name, key string) error {
	if !IsSupportedProvider(name) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedProvider, name, strings.Join(SupportedProviders(), ", "))
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	return m.update(func(c *Credentials) {
		c.Providers[name] = ProviderCredential{APIKey: key}
	})
}

// GetKey returns the stored API key for a provider, or "" if none is stored.
func (m *Manager) GetKey(name string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[name].APIKey, nil
}

// RemoveKey deletes the stored credential for a provider.
func (m *Manager) RemoveKey(name string) error {
	return m.update(func(c *Credentials) {
		delete(c.Providers, name)
	})
}

// ListProviders returns the providers with stored credentials, sorted.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(creds.Providers)), nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// ResolveKey finds the API key for a provider. Its environment variable wins
// over credentials.toml. A Key with SourceNone and an empty Value is returned
// when neither holds one.
func (m *Manager) ResolveKey(name string) (Key, error) {
	key := Key{Provider: name, Source: SourceNone, EnvVar: EnvVarForProvider(name)}

	if key.EnvVar != "" {
		if v := os.Getenv(key.EnvVar); v != "" {
			key.Value, key.Source = v, SourceEnv
			return key, nil
		}
	}

	stored, err := m.GetKey(name)
	if err != nil {
		return key, err
	}
	if stored != "" {
		key.Value, key.Source = stored, SourceFile
	}
	return key, nil
}

// EnvVarForProvider returns the environment variable holding a provider's
// key, e.g. DEEPSEEK_API_KEY. Returns "" for unsupported providers.
func EnvVarForProvider(name string) string {
	if !IsSupportedProvider(name) {
		return ""
	}
	return strings.ToUpper(name) + envSuffix
}

// SupportedProviders returns the providers keys can be stored for: every
// provider deepstream can stream from.
func SupportedProviders() []string {
	return provider.SupportedProviders()
}

// IsSupportedProvider reports whether keys can be stored for name.
func IsSupportedProvider(name string) bool {
	return slices.Contains(SupportedProviders(), name)
}
