package presets

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"mercator-hq/europa/pkg/config"
)

// AuthProvider supplies git transport authentication for preset repos.
type AuthProvider interface {
	// GetAuth returns the git transport authentication method.
	GetAuth() (transport.AuthMethod, error)

	// Method returns the auth method name for logging purposes.
	Method() string
}

// BasicAuth implements username/password HTTPS authentication.
type BasicAuth struct {
	username string
	password string
}

// NewBasicAuth creates a username/password authentication provider.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{username: username, password: password}
}

// GetAuth returns HTTP basic auth with the configured credentials.
func (a *BasicAuth) GetAuth() (transport.AuthMethod, error) {
	if a.username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	return &http.BasicAuth{
		Username: a.username,
		Password: a.password,
	}, nil
}

// Method returns the authentication method name.
func (a *BasicAuth) Method() string {
	return "basic"
}

// TokenAuth implements token-based HTTPS authentication. Works with
// GitHub personal access tokens, GitLab tokens, and Bitbucket tokens.
type TokenAuth struct {
	token string
}

// NewTokenAuth creates a token-based authentication provider. The token
// needs repository read permission.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// GetAuth returns HTTP basic auth with the token as password. The
// username can be anything for token authentication.
func (a *TokenAuth) GetAuth() (transport.AuthMethod, error) {
	if a.token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	return &http.BasicAuth{
		Username: "git",
		Password: a.token,
	}, nil
}

// Method returns the authentication method name.
func (a *TokenAuth) Method() string {
	return "token"
}

// SSHAuth implements SSH public key authentication.
type SSHAuth struct {
	keyPath string
}

// NewSSHAuth creates an SSH key-based authentication provider. The
// keyPath must point at a readable private key file.
func NewSSHAuth(keyPath string) *SSHAuth {
	return &SSHAuth{keyPath: keyPath}
}

// GetAuth loads the SSH key and returns public key authentication. The
// key file must exist and not be group- or world-readable.
func (a *SSHAuth) GetAuth() (transport.AuthMethod, error) {
	if a.keyPath == "" {
		return nil, fmt.Errorf("ssh key path cannot be empty")
	}

	info, err := os.Stat(a.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access SSH key file: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
	}

	auth, err := ssh.NewPublicKeysFromFile("git", a.keyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return auth, nil
}

// Method returns the authentication method name.
func (a *SSHAuth) Method() string {
	return "ssh"
}

// NoAuth is the provider for public repositories. It returns nil
// authentication.
type NoAuth struct{}

// NewNoAuth creates a no-authentication provider.
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

// GetAuth returns nil authentication for public repositories.
func (a *NoAuth) GetAuth() (transport.AuthMethod, error) {
	return nil, nil
}

// Method returns the authentication method name.
func (a *NoAuth) Method() string {
	return "none"
}

// NewAuthProvider creates an auth provider from configuration.
// Supported methods: "none", "basic", "token", "ssh".
func NewAuthProvider(cfg *config.GitAuthConfig) (AuthProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config cannot be nil")
	}

	switch cfg.Method {
	case "basic":
		if cfg.Username == "" {
			return nil, fmt.Errorf("basic auth requires username")
		}
		return NewBasicAuth(cfg.Username, cfg.Password), nil

	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires non-empty token")
		}
		return NewTokenAuth(cfg.Token), nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		return NewSSHAuth(cfg.SSHKeyPath), nil

	case "none", "":
		return NewNoAuth(), nil

	default:
		return nil, fmt.Errorf("unknown auth method: %s", cfg.Method)
	}
}
