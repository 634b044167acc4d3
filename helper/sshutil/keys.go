// Copyright 2019 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sshutil

import (
	"io/ioutil"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// loadPrivateKey returns the key content and a description of where it comes from.
//
// pathOrContent is a file path when such a file exists ("~" is expanded), the PEM content otherwise.
func loadPrivateKey(pathOrContent string) ([]byte, string, error) {
	path, err := homedir.Expand(pathOrContent)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to expand private key path")
	}
	if _, err = os.Stat(path); err != nil {
		return []byte(pathOrContent), "<private key content redacted>", nil
	}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to read private key file %q", path)
	}
	return content, path, nil
}

// PrivateKeyAuth returns an authentication method relying on a private key given
// either as a file path or as its content.
//
// The key is decrypted with passphrase when it is not empty.
func PrivateKeyAuth(pathOrContent, passphrase string) (ssh.AuthMethod, error) {
	content, source, err := loadPrivateKey(pathOrContent)
	if err != nil {
		return nil, err
	}
	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(content, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(content)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse private key %q", source)
	}
	return ssh.PublicKeys(signer), nil
}
