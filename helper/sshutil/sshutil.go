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
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/log"
)

// Client is interface allowing running command
type Client interface {
	RunCommand(ctx context.Context, cmd string) (string, error)
}

// SSHClient is a client SSH
//
// A single connection is dialed on first use and shared by every command,
// each command running in its own session.
type SSHClient struct {
	Config *ssh.ClientConfig
	Host   string
	Port   int

	mu   sync.Mutex
	conn *ssh.Client
}

// NewSSHClient builds an SSHClient from the cluster configuration keys
// url, port, user_name, password, private_key, private_key_passphrase and ssh_timeout.
//
// At least one of password or private_key is required.
func NewSSHClient(cluster config.DynamicMap) (*SSHClient, error) {
	host := cluster.GetString("url")
	if host == "" {
		return nil, errors.New("missing url of the Slurm login node in cluster configuration")
	}
	user := cluster.GetString("user_name")
	if user == "" {
		return nil, errors.New("missing user_name in cluster configuration")
	}

	var authMethods []ssh.AuthMethod
	if pk := cluster.GetString("private_key"); pk != "" {
		keyAuth, err := PrivateKeyAuth(pk, cluster.GetString("private_key_passphrase"))
		if err != nil {
			return nil, err
		}
		authMethods = append(authMethods, keyAuth)
	}
	if password := cluster.GetString("password"); password != "" {
		authMethods = append(authMethods, ssh.Password(password))
	}
	if len(authMethods) == 0 {
		return nil, errors.New("no authentication method defined for the Slurm login node, set private_key or password in cluster configuration")
	}

	return &SSHClient{
		Config: &ssh.ClientConfig{
			User:            user,
			Auth:            authMethods,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         cluster.GetDurationOrDefault("ssh_timeout", config.DefaultSSHTimeout),
		},
		Host: host,
		Port: cluster.GetIntOrDefault("port", config.DefaultSSHPort),
	}, nil
}

func (client *SSHClient) address() string {
	return net.JoinHostPort(client.Host, strconv.Itoa(client.Port))
}

func (client *SSHClient) connection() (*ssh.Client, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.conn != nil {
		return client.conn, nil
	}
	conn, err := ssh.Dial("tcp", client.address(), client.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open SSH connection to %q", client.address())
	}
	client.conn = conn
	return conn, nil
}

func (client *SSHClient) newSession() (*ssh.Session, error) {
	conn, err := client.connection()
	if err != nil {
		return nil, err
	}
	session, err := conn.NewSession()
	if err != nil {
		// The shared connection may be broken, force a new dial next time
		client.Close()
		return nil, errors.Wrap(err, "Failed to create session")
	}
	return session, nil
}

// RunCommand allows to run a specified command
//
// Stdout and stderr are combined in the returned output.
// If the context is cancelled while the command runs a SIGKILL is sent to the remote process.
func (client *SSHClient) RunCommand(ctx context.Context, cmd string) (string, error) {
	session, err := client.newSession()
	if err != nil {
		return "", err
	}
	defer session.Close()
	var b bytes.Buffer
	session.Stderr = &b
	session.Stdout = &b

	chClosed := make(chan struct{})
	defer close(chClosed)
	go func() {
		select {
		case <-ctx.Done():
			log.Debug("[SSHSession] Cancellation has been sent: a sigkill signal is sent to remote process")
			session.Signal(ssh.SIGKILL)
			session.Close()
		case <-chClosed:
		}
	}()

	log.Debugf("[SSHSession] %q", cmd)
	start := time.Now()
	err = session.Run(cmd)
	log.Debugf("[SSHSession] command ran in %s", time.Since(start))
	if ctx.Err() != nil {
		return b.String(), errors.Wrap(ctx.Err(), "command cancelled")
	}
	return b.String(), err
}

// Close closes the underlying SSH connection if any
func (client *SSHClient) Close() error {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.conn == nil {
		return nil
	}
	err := client.conn.Close()
	client.conn = nil
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to close SSH connection to %q", client.address()))
	}
	return nil
}
