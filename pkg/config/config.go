package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Environment variable names for gateway configuration. Key variables hold
// either inline PEM/JWK material or a path to a key file.
const (
	EnvIPCPrivateKey       = "IPC_PRIVATE_KEY"
	EnvIPCAPIPublicKey     = "IPC_API_PUBLIC_KEY"
	EnvIPCEncryptPublicKey = "IPC_ENCRYPT_PUBLIC_KEY"
	EnvIPCKeyIndex         = "IPC_KEY_INDEX"
	EnvIPCSID              = "IPC_SID"
	EnvIPCWallet           = "IPC_WALLET"
	EnvIPCLang             = "IPC_LANG"
	EnvIPCVersion          = "IPC_VERSION"
	EnvIPCDeveloperKey     = "IPC_DEVELOPER_KEY"
	EnvIPCSource           = "IPC_SOURCE"
	EnvIPCProduction       = "IPC_PRODUCTION"
	EnvIPCURL              = "IPC_URL"
	EnvIPCTimeout          = "IPC_TIMEOUT"
	EnvIPCKMSKeyID         = "IPC_KMS_KEY_ID"
	EnvIPCKMSRegion        = "IPC_KMS_REGION"
	EnvIPCURLOk            = "IPC_URL_OK"
	EnvIPCURLCancel        = "IPC_URL_CANCEL"
	EnvIPCURLNotify        = "IPC_URL_NOTIFY"
)

type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

func (m Mode) String() string {
	return string(m)
}

var ModeToEndpoint = map[Mode]string{
	ModeTest:       "https://www.mypos.eu/vmp/checkout-test",
	ModeProduction: "https://www.mypos.eu/vmp/checkout",
}

// Defaults for the gateway test environment
const (
	DefaultKeyIndex = 1
	DefaultSID      = "000000000000010"
	DefaultWallet   = "61938166610"
	DefaultLang     = "en"
	DefaultVersion  = "1.4"
	DefaultSource   = "SDK_GO_1.4"
	DefaultTimeout  = 30 * time.Second
)

// RemoteSignerConfig selects a signing key held in AWS KMS instead of a local private key
type RemoteSignerConfig struct {
	KMSKeyID string `json:"kmsKeyId" yaml:"kmsKeyId"`
	Region   string `json:"region" yaml:"region"`
}

func (rsc *RemoteSignerConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	if rsc.KMSKeyID == "" {
		allErrors = append(allErrors, field.Required(path.Child("kmsKeyId"), "kmsKeyId is required"))
	}
	return allErrors
}

// IPCConfig is the raw, caller-editable gateway configuration
type IPCConfig struct {
	// Key material: inline PEM/JWK or a file path
	PrivateKey       string `json:"privateKey" yaml:"privateKey"`
	APIPublicKey     string `json:"apiPublicKey" yaml:"apiPublicKey"`
	EncryptPublicKey string `json:"encryptPublicKey" yaml:"encryptPublicKey"`

	// Previous gateway keys by key index, kept for rotation
	PreviousAPIPublicKeys map[int]string `json:"previousApiPublicKeys,omitempty" yaml:"previousApiPublicKeys,omitempty"`

	KeyIndex     int    `json:"keyIndex" yaml:"keyIndex"`
	SID          string `json:"sid" yaml:"sid"`
	WalletNumber string `json:"wallet" yaml:"wallet"`
	Lang         string `json:"lang" yaml:"lang"`
	Version      string `json:"version" yaml:"version"`
	DeveloperKey string `json:"developerKey,omitempty" yaml:"developerKey,omitempty"`
	Source       string `json:"source" yaml:"source"`

	Production bool          `json:"production" yaml:"production"`
	IPCURL     string        `json:"ipcUrl,omitempty" yaml:"ipcUrl,omitempty"` // overrides the mode endpoint
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`

	RemoteSigner *RemoteSignerConfig `json:"remoteSigner,omitempty" yaml:"remoteSigner,omitempty"`
}

// PortalURLs are the merchant pages the gateway redirects or posts to
type PortalURLs struct {
	OK     string `json:"ok" yaml:"ok"`
	Cancel string `json:"cancel" yaml:"cancel"`
	Notify string `json:"notify" yaml:"notify"`
}

// DefaultIPCConfig returns the test-environment defaults without key material
func DefaultIPCConfig() *IPCConfig {
	return &IPCConfig{
		KeyIndex:     DefaultKeyIndex,
		SID:          DefaultSID,
		WalletNumber: DefaultWallet,
		Lang:         DefaultLang,
		Version:      DefaultVersion,
		Source:       DefaultSource,
		Timeout:      DefaultTimeout,
	}
}

// Mode returns the environment selected by the Production flag
func (c *IPCConfig) Mode() Mode {
	if c.Production {
		return ModeProduction
	}
	return ModeTest
}

// Endpoint returns the gateway URL for the configured mode or the explicit override
func (c *IPCConfig) Endpoint() string {
	if c.IPCURL != "" {
		return c.IPCURL
	}
	return ModeToEndpoint[c.Mode()]
}

// Validate checks the configuration for presence and syntax. Key material is
// checked by NewGatewayConfig, which parses it.
func (c *IPCConfig) Validate() error {
	return toConfigurationError(c.validate())
}

func (c *IPCConfig) validate() field.ErrorList {
	var allErrors field.ErrorList

	if c.RemoteSigner != nil {
		allErrors = append(allErrors, c.RemoteSigner.validate(field.NewPath("remoteSigner"))...)
	} else if strings.TrimSpace(c.PrivateKey) == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "privateKey is required"))
	}
	if strings.TrimSpace(c.APIPublicKey) == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("apiPublicKey"), "apiPublicKey is required"))
	}
	if strings.TrimSpace(c.EncryptPublicKey) == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("encryptPublicKey"), "encryptPublicKey is required"))
	}
	if c.KeyIndex < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("keyIndex"), c.KeyIndex, "keyIndex must be a positive integer"))
	}
	for idx := range c.PreviousAPIPublicKeys {
		if idx < 1 || idx == c.KeyIndex {
			allErrors = append(allErrors, field.Invalid(field.NewPath("previousApiPublicKeys").Key(strconv.Itoa(idx)), idx, "previous key index must be positive and differ from keyIndex"))
		}
	}
	allErrors = append(allErrors, validateDigits(field.NewPath("sid"), c.SID)...)
	allErrors = append(allErrors, validateDigits(field.NewPath("wallet"), c.WalletNumber)...)
	if len(c.Lang) != 2 || !isLetters(c.Lang) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("lang"), c.Lang, "lang must be a two letter language code"))
	}
	if c.Version == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("version"), "version is required"))
	}
	if c.Source == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("source"), "source is required"))
	}
	if c.Timeout <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), c.Timeout.String(), "timeout must be positive"))
	}
	if c.IPCURL != "" {
		if err := validateURL(c.IPCURL); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("ipcUrl"), c.IPCURL, err.Error()))
		}
	}

	return allErrors
}

// Validate checks that every supplied portal URL is an absolute http(s) URL.
// Empty URLs are allowed; operations needing them check presence.
func (u *PortalURLs) Validate() error {
	return toConfigurationError(u.validate())
}

func (u *PortalURLs) validate() field.ErrorList {
	var allErrors field.ErrorList
	path := field.NewPath("urls")
	for _, entry := range []struct{ name, value string }{
		{"ok", u.OK},
		{"cancel", u.Cancel},
		{"notify", u.Notify},
	} {
		if entry.value == "" {
			continue
		}
		if err := validateURL(entry.value); err != nil {
			allErrors = append(allErrors, field.Invalid(path.Child(entry.name), entry.value, err.Error()))
		}
	}
	return allErrors
}

// LoadFromEnv overlays IPC_* environment variables on the defaults
func LoadFromEnv() (*IPCConfig, *PortalURLs, error) {
	cfg := DefaultIPCConfig()

	cfg.PrivateKey = getenv(EnvIPCPrivateKey, cfg.PrivateKey)
	cfg.APIPublicKey = getenv(EnvIPCAPIPublicKey, cfg.APIPublicKey)
	cfg.EncryptPublicKey = getenv(EnvIPCEncryptPublicKey, cfg.EncryptPublicKey)
	cfg.SID = getenv(EnvIPCSID, cfg.SID)
	cfg.WalletNumber = getenv(EnvIPCWallet, cfg.WalletNumber)
	cfg.Lang = getenv(EnvIPCLang, cfg.Lang)
	cfg.Version = getenv(EnvIPCVersion, cfg.Version)
	cfg.DeveloperKey = getenv(EnvIPCDeveloperKey, cfg.DeveloperKey)
	cfg.Source = getenv(EnvIPCSource, cfg.Source)
	cfg.IPCURL = getenv(EnvIPCURL, cfg.IPCURL)

	if v := os.Getenv(EnvIPCKeyIndex); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, &types.ConfigurationError{Field: "keyIndex", Cause: fmt.Errorf("%s must be an integer: %w", EnvIPCKeyIndex, err)}
		}
		cfg.KeyIndex = idx
	}
	if v := os.Getenv(EnvIPCProduction); v != "" {
		prod, err := strconv.ParseBool(v)
		if err != nil {
			return nil, nil, &types.ConfigurationError{Field: "production", Cause: fmt.Errorf("%s must be a boolean: %w", EnvIPCProduction, err)}
		}
		cfg.Production = prod
	}
	if v := os.Getenv(EnvIPCTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, nil, &types.ConfigurationError{Field: "timeout", Cause: fmt.Errorf("%s must be a duration: %w", EnvIPCTimeout, err)}
		}
		cfg.Timeout = d
	}
	if keyID := os.Getenv(EnvIPCKMSKeyID); keyID != "" {
		cfg.RemoteSigner = &RemoteSignerConfig{
			KMSKeyID: keyID,
			Region:   os.Getenv(EnvIPCKMSRegion),
		}
	}

	urls := &PortalURLs{
		OK:     os.Getenv(EnvIPCURLOk),
		Cancel: os.Getenv(EnvIPCURLCancel),
		Notify: os.Getenv(EnvIPCURLNotify),
	}

	return cfg, urls, nil
}

func toConfigurationError(allErrors field.ErrorList) error {
	if len(allErrors) == 0 {
		return nil
	}
	return &types.ConfigurationError{
		Field: allErrors[0].Field,
		Cause: allErrors.ToAggregate(),
	}
}

func validateDigits(path *field.Path, value string) field.ErrorList {
	if value == "" {
		return field.ErrorList{field.Required(path, path.String()+" is required")}
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return field.ErrorList{field.Invalid(path, value, path.String()+" must contain digits only")}
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
