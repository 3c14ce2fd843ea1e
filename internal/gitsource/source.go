package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/panorama/internal/config"
	ferrors "git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/logfields"
	"git.home.luguber.info/inful/panorama/internal/metrics"
	"git.home.luguber.info/inful/panorama/internal/retry"
	"git.home.luguber.info/inful/panorama/internal/workspace"
)

// Result describes the checkout after a sync.
type Result struct {
	Dir        string // repository root
	ContentDir string // Dir joined with the configured content path
	Branch     string
	Commit     string
	Cloned     bool
	Changed    bool // HEAD moved
}

// Source keeps one repository in sync.
type Source struct {
	cfg      config.GitSourceConfig
	ws       *workspace.Manager
	policy   retry.Policy
	recorder metrics.Recorder
	logger   *slog.Logger
	created  bool
}

type Option func(*Source)

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Source) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(cfg config.GitSourceConfig, opts ...Option) *Source {
	s := &Source{
		cfg:      cfg,
		ws:       workspace.New(cfg.Workspace),
		policy:   retry.FromConfig(cfg.Retry),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "gitsource", logfields.URL(cfg.URL))
	return s
}

// Sync clones the repository on first use and fetches it afterwards.
func (s *Source) Sync(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := s.sync(ctx)
	s.recorder.ObserveGitSyncDuration(time.Since(start), err == nil)
	if err != nil {
		return Result{}, ferrors.GitError("failed to sync content repository").
			WithCause(err).
			WithContext("url", s.cfg.URL).
			WithContext("branch", s.cfg.Branch).
			Build()
	}
	s.logger.Info("Content repository synced",
		slog.String("branch", res.Branch),
		slog.String("commit", short(res.Commit)),
		slog.Bool("cloned", res.Cloned),
		slog.Bool("changed", res.Changed),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return res, nil
}

// Close removes an ephemeral checkout.
func (s *Source) Close() error {
	return s.ws.Cleanup()
}

func (s *Source) sync(ctx context.Context) (Result, error) {
	if !s.created {
		if err := s.ws.Create(); err != nil {
			return Result{}, err
		}
		s.created = true
	}
	auth, err := authMethod(s.cfg.Auth)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = retry.Do(ctx, s.policy, "git sync", isPermanent,
		func(int, error) { s.recorder.IncRetry("git_sync") },
		func(ctx context.Context) error {
			var opErr error
			if _, statErr := os.Stat(filepath.Join(s.ws.Path(), ".git")); statErr == nil {
				res, opErr = s.update(ctx, auth)
			} else {
				res, opErr = s.clone(ctx, auth)
			}
			return opErr
		})
	if err != nil {
		return Result{}, err
	}
	res.Dir = s.ws.Path()
	res.ContentDir = filepath.Join(res.Dir, filepath.FromSlash(s.cfg.Path))
	return res, nil
}

func (s *Source) clone(ctx context.Context, auth transport.AuthMethod) (Result, error) {
	dir := s.ws.Path()
	// A failed earlier attempt may have left a partial checkout behind.
	if err := clearDir(dir); err != nil {
		return Result{}, err
	}
	opts := &git.CloneOptions{URL: s.cfg.URL, Auth: auth, Depth: s.cfg.Depth, Tags: git.NoTags}
	if s.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.cfg.Branch)
		opts.SingleBranch = true
	}
	s.logger.Debug("Cloning content repository", logfields.Path(dir))
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return Result{}, fmt.Errorf("clone: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return Result{}, fmt.Errorf("head: %w", err)
	}
	return Result{Branch: head.Name().Short(), Commit: head.Hash().String(), Cloned: true, Changed: true}, nil
}

func (s *Source) update(ctx context.Context, auth transport.AuthMethod) (Result, error) {
	repo, err := git.PlainOpen(s.ws.Path())
	if err != nil {
		return Result{}, fmt.Errorf("open repo: %w", err)
	}
	before, _ := repo.Head()

	fetch := &git.FetchOptions{
		RemoteName: "origin",
		Auth:       auth,
		Depth:      s.cfg.Depth,
		Tags:       git.NoTags,
		Force:      true,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if err := repo.FetchContext(ctx, fetch); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}

	branch := targetBranch(repo, s.cfg.Branch)
	remote, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return Result{}, fmt.Errorf("remote ref %s: %w", branch, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Result{}, fmt.Errorf("worktree: %w", err)
	}

	local := plumbing.NewBranchReferenceName(branch)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(local, remote.Hash())); err != nil {
		return Result{}, fmt.Errorf("set branch ref: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
		return Result{}, fmt.Errorf("checkout %s: %w", branch, err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset}); err != nil {
		return Result{}, fmt.Errorf("reset: %w", err)
	}

	changed := before == nil || before.Hash() != remote.Hash()
	return Result{Branch: branch, Commit: remote.Hash().String(), Changed: changed}, nil
}

// targetBranch picks the configured branch, then the checked out branch, then "main".
func targetBranch(repo *git.Repository, configured string) string {
	if configured != "" {
		return configured
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	return "main"
}

func isPermanent(err error) bool {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"authentication", "permission", "denied", "not found", "does not exist", "unsupported protocol", "requires a token", "requires username", "unsupported auth"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o750)
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
