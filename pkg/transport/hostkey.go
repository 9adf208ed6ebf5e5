package transport

import (
	"errors"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

func defaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

func isHostKeyErr(err error) bool {
	var e *clierrors.Error
	return errors.As(err, &e) && (e.Kind == clierrors.KindHostKeyUnknown || e.Kind == clierrors.KindHostKeyChanged || e.Kind == clierrors.KindKnownHostsIO)
}

// hostKeyCallback builds the ssh.HostKeyCallback implementing one of the
// three policies. Changed-key rejection includes the known-hosts line
// number, taken from knownhosts' own *knownhosts.KeyError.
func hostKeyCallback(policy HostKeyPolicy, path string) (ssh.HostKeyCallback, error) {
	switch policy {
	case DisabledHostKey:
		return ssh.InsecureIgnoreHostKey(), nil

	case StrictHostKey, AcceptNewHostKey:
		if path == "" {
			path = defaultKnownHostsPath()
		}
		if path == "" {
			return nil, clierrors.KnownHostsIO(errors.New("could not determine default known_hosts path"))
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
					return nil, clierrors.KnownHostsIO(err)
				}
				if f, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600); ferr == nil {
					f.Close()
				}
			} else {
				return nil, clierrors.KnownHostsIO(err)
			}
		}

		base, err := knownhosts.New(path)
		if err != nil {
			return nil, clierrors.KnownHostsIO(err)
		}

		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return verifyHostKey(base, path, policy, hostname, remote, key)
		}, nil
	}
	return nil, clierrors.InvalidConfig("unknown host key policy")
}

// verifyHostKey delegates to the knownhosts callback and, on an unknown-key
// error, appends the key when policy is AcceptNewHostKey.
func verifyHostKey(base ssh.HostKeyCallback, path string, policy HostKeyPolicy, hostname string, remote net.Addr, key ssh.PublicKey) error {
	err := base(hostname, remote, key)
	if err == nil {
		return nil
	}

	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		if len(keyErr.Want) == 0 {
			// Unknown host.
			if policy == StrictHostKey {
				return clierrors.HostKeyUnknown(hostname)
			}
			// AcceptNewHostKey: learn it.
			if appendErr := appendKnownHost(path, hostname, key); appendErr != nil {
				return clierrors.KnownHostsIO(appendErr)
			}
			return nil
		}
		// Changed key: always rejected, regardless of policy.
		line := keyErr.Want[0].Line
		return clierrors.HostKeyChanged(hostname, line)
	}

	return clierrors.Protocol(err)
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	line := knownhosts.Line([]string{hostname}, key) + "\n"
	_, err = f.WriteString(line)
	return err
}
