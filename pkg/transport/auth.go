package transport

import (
	"golang.org/x/crypto/ssh"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

// authMethods builds the ssh.AuthMethod list for the given credentials.
// Both password and private key (optionally passphrase-protected) are
// supported, per the external-interface requirement.
func authMethods(auth Auth) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if len(auth.KeyPEM) > 0 {
		var signer ssh.Signer
		var err error
		if auth.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(auth.KeyPEM, []byte(auth.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(auth.KeyPEM)
		}
		if err != nil {
			return nil, clierrors.KeyLoad(err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if auth.Password != "" {
		methods = append(methods, ssh.Password(auth.Password))
	}

	if len(methods) == 0 {
		return nil, clierrors.InvalidConfig("no authentication method provided: set Password or KeyPEM")
	}

	return methods, nil
}
