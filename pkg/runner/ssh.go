package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

// SSH runs commands on a remote host. Each command gets its own session.
type SSH struct {
	host   string
	client *ssh.Client
}

// NewSSH dials SSH on host (port 22 unless host carries one).
func NewSSH(host, user, pass string) (*SSH, error) {
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
		},
		// Routers in a lab rarely have stable host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", host, err)
	}
	return &SSH{host: host, client: client}, nil
}

// Close closes the SSH connection.
func (s *SSH) Close() error {
	return s.client.Close()
}

// Run executes cmd on the remote host. The environment is exported inline
// because most sshd configurations refuse SetEnv. Canceling ctx closes the
// session.
func (s *SSH) Run(ctx context.Context, cmd Command) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session on %s: %w", s.host, err)
	}
	defer session.Close()

	if cmd.Stdin != "" {
		session.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-done:
		}
	}()

	line := cmd.String()
	if err := session.Run(line); err != nil {
		if ctx.Err() != nil {
			return stdout.String(), ctx.Err()
		}
		return stdout.String(), fmt.Errorf("SSH exec '%s' on %s: %w: %s", line, s.host, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Tunnel forwards a local TCP port to an address reachable from the SSH
// host, e.g. a Redis instance bound to the router's loopback.
type Tunnel struct {
	localAddr  string
	remoteAddr string
	client     *ssh.Client
	listener   net.Listener
	done       chan struct{}
	wg         sync.WaitGroup
}

// Forward opens a local listener on a random port whose connections are
// forwarded to remoteAddr through the SSH connection.
func (s *SSH) Forward(remoteAddr string) (*Tunnel, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &Tunnel{
		localAddr:  listener.Addr().String(),
		remoteAddr: remoteAddr,
		client:     s.client,
		listener:   listener,
		done:       make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address (e.g. "127.0.0.1:54321") that
// forwards to the remote address.
func (t *Tunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener and waits for all forwarding goroutines to finish.
// The SSH connection stays open.
func (t *Tunnel) Close() error {
	close(t.done)
	err := t.listener.Close()
	t.wg.Wait()
	return err
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.client.Dial("tcp", t.remoteAddr)
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
