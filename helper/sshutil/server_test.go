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
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/log"
)

// execHandler returns the output and exit status of a command.
// signals receives the signals sent by the client while the command runs.
type execHandler func(command string, signals <-chan string) (string, uint32)

func echoHandler(command string, signals <-chan string) (string, uint32) {
	return command, 0
}

// testServer is an in-process SSH server running exec requests with its handler
type testServer struct {
	addr    net.Addr
	handler execHandler

	mu       sync.Mutex
	conns    []*ssh.ServerConn
	accepted int
	signals  []string
}

func newTestServer(t *testing.T, handler execHandler) *testServer {
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "testuser" && string(pass) == "tiger" {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	_, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(private)
	require.NoError(t, err)
	cfg.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	if handler == nil {
		handler = echoHandler
	}
	s := &testServer{addr: listener.Addr(), handler: handler}
	t.Cleanup(func() {
		listener.Close()
		s.dropConnections()
	})

	go func() {
		for {
			nConn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Print("failed to accept incoming connection: ", err)
				continue
			}
			conn, chans, reqs, err := ssh.NewServerConn(nConn, cfg)
			if err != nil {
				log.Print("failed to handshake: ", err)
				continue
			}
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.accepted++
			s.mu.Unlock()

			go ssh.DiscardRequests(reqs)
			go func() {
				for newChannel := range chans {
					go s.serveChannel(newChannel)
				}
			}()
		}
	}()
	return s
}

func (s *testServer) serveChannel(newChannel ssh.NewChannel) {
	if newChannel.ChannelType() != "session" {
		newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
		return
	}
	channel, requests, err := newChannel.Accept()
	if err != nil {
		return
	}
	signals := make(chan string, 1)
	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			ssh.Unmarshal(req.Payload, &payload)
			req.Reply(true, nil)
			go func(command string) {
				out, status := s.handler(command, signals)
				channel.Write([]byte(out))
				b := make([]byte, 4)
				binary.BigEndian.PutUint32(b, status)
				channel.SendRequest("exit-status", false, b)
				channel.CloseWrite()
				channel.Close()
			}(payload.Command)
		case "signal":
			var payload struct{ Signal string }
			ssh.Unmarshal(req.Payload, &payload)
			s.mu.Lock()
			s.signals = append(s.signals, payload.Signal)
			s.mu.Unlock()
			select {
			case signals <- payload.Signal:
			default:
			}
			req.Reply(true, nil)
		default:
			req.Reply(false, nil)
		}
	}
}

// dropConnections closes every accepted connection, as a login node restart would
func (s *testServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

func (s *testServer) acceptedConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *testServer) receivedSignals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signals...)
}

// newClient returns an SSHClient authenticated against the server
func (s *testServer) newClient(t *testing.T) *SSHClient {
	host, port, err := net.SplitHostPort(s.addr.String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	client, err := NewSSHClient(config.DynamicMap{"url": host, "port": p, "user_name": "testuser", "password": "tiger"})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}
