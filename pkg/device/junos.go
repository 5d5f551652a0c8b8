package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// CheckPlatform verifies the device platform is one this package can drive.
func CheckPlatform(profile *spec.ResolvedProfile) error {
	if profile.Platform != spec.PlatformJuniperJunos {
		return fmt.Errorf("platform '%s' on %s: %w",
			profile.Platform, profile.DeviceName, util.ErrUnsupportedPlatform)
	}
	return nil
}

// FetchConfig retrieves the running configuration in set format, suitable
// for writing to a backup file.
func (c *Conn) FetchConfig(ctx context.Context) (string, error) {
	output, err := c.Run(ctx, "show configuration | display set")
	if err != nil {
		return "", err
	}
	return normalizeConfig(output), nil
}

// PushConfigSet applies set commands inside an exclusive configuration
// session and commits. The transcript is returned for the audit log. The
// exclusive lock means a concurrent editor causes the push to fail rather
// than silently merge.
func (c *Conn) PushConfigSet(ctx context.Context, commands []string) (string, error) {
	if len(commands) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(commands)+3)
	lines = append(lines, "configure exclusive")
	lines = append(lines, commands...)
	lines = append(lines, "commit and-quit", "exit")

	transcript, err := c.RunShell(ctx, lines)
	if err != nil {
		return transcript, err
	}
	if err := checkCommit(transcript); err != nil {
		return transcript, err
	}

	util.Debugf("pushed %d set commands to %s", len(commands), c.device)
	return transcript, nil
}

// checkCommit scans a configuration-session transcript for a successful
// commit. Junos prints "commit complete" on success and "error:" lines on
// syntax or commit-check failures.
func checkCommit(transcript string) error {
	committed := false
	for _, line := range strings.Split(transcript, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "error:") {
			return fmt.Errorf("commit failed: %s", trimmed)
		}
		if strings.Contains(trimmed, "commit complete") {
			committed = true
		}
	}
	if !committed {
		return fmt.Errorf("commit not confirmed in session output")
	}
	return nil
}

// normalizeConfig strips terminal echo artifacts from captured output and
// keeps only configuration lines.
func normalizeConfig(output string) string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}
