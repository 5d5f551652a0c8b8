// Package device handles switch access over SSH: configuration fetch for
// backups and set-command delivery for pushes.
package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// DialTimeout bounds the TCP+SSH handshake.
const DialTimeout = 15 * time.Second

// Conn is an SSH connection to a device. Sessions are created per command,
// so a Conn can be reused across pipeline steps.
type Conn struct {
	device string
	client *ssh.Client
}

// Dial opens an SSH connection using the profile's credentials.
// Authentication failures are reported as util.ErrAuthFailed so callers can
// distinguish them from reachability problems.
func Dial(profile *spec.ResolvedProfile) (*Conn, error) {
	if profile.SSHUser == "" || profile.SSHPass == "" {
		return nil, util.NewPreconditionError("connect", profile.DeviceName,
			"SSH credentials required",
			"set ssh_user/ssh_pass in the inventory or "+spec.EnvSSHUser+"/"+spec.EnvSSHPass)
	}

	config := &ssh.ClientConfig{
		User: profile.SSHUser,
		Auth: []ssh.AuthMethod{
			ssh.Password(profile.SSHPass),
		},
		// Lab/test environment; production would verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DialTimeout,
	}

	addr := net.JoinHostPort(profile.MgmtIP, strconv.Itoa(profile.SSHPort))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("SSH dial %s: %w", addr, util.ErrAuthFailed)
		}
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	return &Conn{device: profile.DeviceName, client: client}, nil
}

// Device returns the device name this connection belongs to.
func (c *Conn) Device() string {
	return c.device
}

// Close closes the SSH connection.
func (c *Conn) Close() error {
	if c.client == nil {
		return util.ErrNotConnected
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Run executes a single command in a fresh session and returns the combined
// output. The session is torn down if ctx is cancelled.
func (c *Conn) Run(ctx context.Context, cmd string) (string, error) {
	if c.client == nil {
		return "", util.ErrNotConnected
	}

	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, err := session.CombinedOutput(cmd)
		done <- result{output, err}
	}()

	select {
	case <-ctx.Done():
		session.Close()
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return string(res.output), fmt.Errorf("SSH exec '%s': %w", cmd, res.err)
		}
		return string(res.output), nil
	}
}

// RunShell feeds lines to an interactive shell session and returns the
// combined output once the shell exits. Used for Junos configuration mode,
// which spans multiple commands in one session.
func (c *Conn) RunShell(ctx context.Context, lines []string) (string, error) {
	if c.client == nil {
		return "", util.ErrNotConnected
	}

	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO: 0,
	}
	if err := session.RequestPty("vt100", 80, 200, modes); err != nil {
		return "", fmt.Errorf("request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stdin pipe: %w", err)
	}

	var out strings.Builder
	session.Stdout = &out
	session.Stderr = &out

	if err := session.Shell(); err != nil {
		return "", fmt.Errorf("start shell: %w", err)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(stdin, line); err != nil {
			return out.String(), fmt.Errorf("write command: %w", err)
		}
	}
	stdin.Close()

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		session.Close()
		return out.String(), ctx.Err()
	case err := <-done:
		// A non-zero exit is expected from some CLIs after "exit"; the
		// caller inspects the transcript for errors.
		var exitErr *ssh.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return out.String(), fmt.Errorf("shell session: %w", err)
		}
		return out.String(), nil
	}
}
