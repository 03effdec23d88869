package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultOwner = "noooah2000"
	defaultRepo  = "solve-next"

	defaultAPIBaseURL = "https://api.github.com"
)

// Checker queries GitHub releases for newer versions and applies them.
// Download URLs are taken from the release's asset list rather than
// constructed by convention, so a release missing the platform asset
// fails with a clear error instead of a 404.
type Checker struct {
	owner      string
	repo       string
	apiBaseURL string
	client     *http.Client
	execPath   func() (string, error)
}

// Option customizes a Checker.
type Option func(*Checker)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.client.Timeout = d
	}
}

// WithAPIBaseURL overrides the GitHub API host, for tests.
func WithAPIBaseURL(api string) Option {
	return func(c *Checker) {
		c.apiBaseURL = api
	}
}

// WithExecPath overrides executable path resolution, for tests.
func WithExecPath(fn func() (string, error)) Option {
	return func(c *Checker) {
		c.execPath = fn
	}
}

// NewChecker builds a Checker against the project's release repository.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		owner:      defaultOwner,
		repo:       defaultRepo,
		apiBaseURL: defaultAPIBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		execPath:   os.Executable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckInput carries the running version.
type CheckInput struct {
	Version string
}

// CheckResult reports whether a newer release exists.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
}

// Check fetches the latest release tag and compares it against the
// running version using semver ordering.
func (c *Checker) Check(ctx context.Context, input *CheckInput) (*CheckResult, error) {
	rel, err := c.latestRelease(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		CurrentVersion:  input.Version,
		LatestVersion:   rel.TagName,
		UpdateAvailable: isNewer(rel.TagName, input.Version),
	}, nil
}

// release is the subset of the GitHub release payload the updater needs.
type release struct {
	TagName string         `json:"tag_name"`
	Assets  []releaseAsset `json:"assets"`
}

type releaseAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// assetURL returns the download URL for the named asset, or "" when the
// release does not carry it.
func (r *release) assetURL(name string) string {
	for _, a := range r.Assets {
		if a.Name == name {
			return a.DownloadURL
		}
	}
	return ""
}

func (c *Checker) latestRelease(ctx context.Context) (*release, error) {
	return c.fetchRelease(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimRight(c.apiBaseURL, "/"), c.owner, c.repo))
}

func (c *Checker) releaseByTag(ctx context.Context, tag string) (*release, error) {
	return c.fetchRelease(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		strings.TrimRight(c.apiBaseURL, "/"), c.owner, c.repo, tag))
}

func (c *Checker) fetchRelease(ctx context.Context, url string) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching release from %s", resp.StatusCode, url)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}
	if !semver.IsValid(canonicalVersion(rel.TagName)) {
		return nil, fmt.Errorf("release tag %q is not a valid version", rel.TagName)
	}
	return &rel, nil
}

// isNewer reports whether tag is a strictly newer version than current.
// An unparseable current version (dev builds, dirty tags) counts as
// outdated so the update is offered.
func isNewer(tag, current string) bool {
	cur := canonicalVersion(current)
	if !semver.IsValid(cur) {
		return true
	}
	return semver.Compare(canonicalVersion(tag), cur) > 0
}

func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
