package actuation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/nerrad567/gray-logic-roi/internal/device"
)

const defaultSSHPort = 22

// maxOutput caps the stdout/stderr kept from a restart command.
const maxOutput = 4096

// restartSSH runs the restart command in a single session on target. The
// deadline covers dial, handshake and command.
func (d *Dispatcher) restartSSH(ctx context.Context, target *device.SSHDetails) error {
	if d.ssh.RestartCommand == "" {
		return ErrNoRestartCommand
	}

	clientCfg, err := d.clientConfig(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrActuationFailed, err)
	}

	port := target.Port
	if port == 0 {
		port = d.ssh.Port
	}
	if port == 0 {
		port = defaultSSHPort
	}
	addr := net.JoinHostPort(target.Host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrActuationFailed, addr, err)
	}
	defer conn.Close()

	// The handshake and session have no context of their own.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // fresh TCP conn
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		return fmt.Errorf("%w: ssh handshake with %s: %w", ErrActuationFailed, addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("%w: opening session: %w", ErrActuationFailed, err)
	}
	defer session.Close()

	var stdout, stderr limitedBuffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(d.ssh.RestartCommand); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %q exited %d: %s",
				ErrActuationFailed, d.ssh.RestartCommand, exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("%w: running %q: %w", ErrActuationFailed, d.ssh.RestartCommand, err)
	}

	d.logger.Debug("restart command completed", "addr", addr, "stdout", strings.TrimSpace(stdout.String()))
	return nil
}

// clientConfig builds auth and host key verification for one target.
// Per-device user overrides the configured default.
func (d *Dispatcher) clientConfig(target *device.SSHDetails) (*ssh.ClientConfig, error) {
	user := target.User
	if user == "" {
		user = d.ssh.User
	}

	var auth []ssh.AuthMethod
	if d.ssh.KeyFile != "" {
		key, err := os.ReadFile(d.ssh.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing key file: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if d.ssh.Password != "" {
		auth = append(auth, ssh.Password(d.ssh.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh credentials configured")
	}

	hostKey := ssh.InsecureIgnoreHostKey() //nolint:gosec // only without a known_hosts file
	if d.ssh.KnownHostsFile != "" {
		cb, err := knownhosts.New(d.ssh.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         d.timeout,
	}, nil
}

// limitedBuffer keeps the first maxOutput bytes and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := maxOutput - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
