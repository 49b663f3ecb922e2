// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package repo resolves repository references into local directories.
//
// A reference is either a remote git URL (cloned shallowly into a temporary
// directory) or an existing local path (used in place). Ownership of
// temporary state is explicit: every Acquire that clones returns a Checkout
// with Temporary set, and the caller is responsible for deferring Cleanup so
// partial failures never leak disk space.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"log/slog"
)

var (
	// validGitURLPattern matches valid git URLs (https, ssh, file).
	// Allows: https://github.com/user/repo.git, git@github.com:user/repo.git, file:///path/to/repo
	validGitURLPattern = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%~+]+$`)

	// dangerousCharsPattern matches characters that could be used for command injection.
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// Checkout is a usable local copy of a repository.
type Checkout struct {
	// Path is the absolute path to the repository root.
	Path string

	// Temporary reports whether Path was created by a clone and is owned by
	// the receiver of this Checkout. Cleanup removes it; for non-temporary
	// checkouts Cleanup is a no-op.
	Temporary bool
}

// Cleanup removes the checkout's temporary directory, recursively.
//
// Cleanup failures are logged and never escalated: they do not affect the
// correctness of results already returned. Safe to call more than once.
func (c *Checkout) Cleanup(logger *slog.Logger) {
	if c == nil || !c.Temporary || c.Path == "" {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.RemoveAll(c.Path); err != nil {
		logger.Warn("repo.cleanup.error", "dir", c.Path, "err", err)
		return
	}
	logger.Debug("repo.cleanup.done", "dir", c.Path)
	c.Path = ""
}

// IsRemote reports whether reference looks like a remote repository URL
// rather than a local path: protocol-prefixed (http, https, ssh, git, file)
// or SSH-scp style (git@host:path).
func IsRemote(reference string) bool {
	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "file://"} {
		if strings.HasPrefix(reference, prefix) {
			return true
		}
	}
	return strings.HasPrefix(reference, "git@")
}

// Acquire resolves a repository reference into a local directory.
//
// Remote references are cloned with --depth 1 into a uniquely-named temporary
// directory and the returned Checkout is marked Temporary. Local references
// must name an existing directory. On clone failure the error carries git's
// own message and no temporary directory is left behind.
func Acquire(ctx context.Context, reference string, logger *slog.Logger) (*Checkout, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if reference == "" {
		return nil, fmt.Errorf("repository reference is empty")
	}

	if IsRemote(reference) {
		path, err := cloneRepo(ctx, reference, logger)
		if err != nil {
			return nil, err
		}
		return &Checkout{Path: path, Temporary: true}, nil
	}

	abs, err := filepath.Abs(reference)
	if err != nil {
		return nil, fmt.Errorf("resolve local path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path is not a directory: %s", abs)
	}
	return &Checkout{Path: abs, Temporary: false}, nil
}

// validateGitURL validates a git URL to prevent command injection.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}

	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	// For HTTPS URLs, validate using net/url package
	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		// Check for username:password@ in URL (credential leak risk)
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}

	// For SSH URLs (git@host:path or ssh://), validate format
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") || strings.HasPrefix(gitURL, "git://") {
		if !validGitURLPattern.MatchString(gitURL) && !strings.HasPrefix(gitURL, "git://") {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}

	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

// cloneRepo clones a git repository into a fresh temporary directory.
//
// The clone is shallow (depth 1): only the latest commit is fetched. The URL
// is validated first to prevent command injection. The temporary directory
// name carries a timestamp so concurrent ingestions cannot collide.
func cloneRepo(ctx context.Context, gitURL string, logger *slog.Logger) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", fmt.Sprintf("cra-ingest-%d-*", time.Now().UnixNano()))
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	// #nosec G204 - gitURL is validated above to prevent command injection
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", gitURL, tmpDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Info("repo.clone.start", "url", sanitizeURL(gitURL), "temp_dir", tmpDir)

	if err := cmd.Run(); err != nil {
		// Remove the half-created directory; clone already failed.
		_ = os.RemoveAll(tmpDir)
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git clone failed: %w", err)
		}
		return "", fmt.Errorf("git clone failed: %s: %w", msg, err)
	}

	logger.Info("repo.clone.success", "url", sanitizeURL(gitURL), "temp_dir", tmpDir)
	return tmpDir, nil
}

// sanitizeURL strips query parameters and usernames from a URL before it is
// logged, so tokens embedded in clone URLs never reach the logs.
func sanitizeURL(gitURL string) string {
	parsed, err := url.Parse(gitURL)
	if err != nil {
		return gitURL
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}
