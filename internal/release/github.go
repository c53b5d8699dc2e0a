// Package release reads tagged releases and their binaries from GitHub.
package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

var (
	// ErrNotFound is returned when the repository has no release for a tag.
	ErrNotFound = errors.New("release not found")
	// ErrNoNotes is returned for a release published without a body.
	ErrNoNotes = errors.New("release has no notes")
)

const releaseByTagPath = "/repos/{owner}/{repo}/releases/tags/{tag}"

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Body    string        `json:"body"`
	HTMLURL string        `json:"html_url"`
	Assets  []githubAsset `json:"assets"`
}

// GitHub fetches releases of a single repository.
type GitHub struct {
	http  *resty.Client
	owner string
	repo  string
}

// NewGitHub creates a client for owner/repo on the API at baseURL.
// token may be empty for public repositories.
func NewGitHub(baseURL, owner, repo, token string, timeout time.Duration) *GitHub {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &GitHub{http: c, owner: owner, repo: repo}
}

// Fetch returns the release published for tag.
func (g *GitHub) Fetch(ctx context.Context, tag string) (models.ReleaseInfo, error) {
	var rel githubRelease
	resp, err := g.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": g.owner, "repo": g.repo, "tag": tag}).
		SetResult(&rel).
		Get(releaseByTagPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.ReleaseInfo{}, err
		}
		return models.ReleaseInfo{}, failure.Transient(fmt.Errorf("failed to get release %s: %w", tag, err))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.ReleaseInfo{}, failure.Fatal(fmt.Errorf("%w: %s/%s has no release %s", ErrNotFound, g.owner, g.repo, tag))
	}
	if resp.IsError() {
		return models.ReleaseInfo{}, failure.FromHTTPStatus(resp.StatusCode(),
			fmt.Errorf("failed to get release %s: status %d: %s", tag, resp.StatusCode(), resp.String()))
	}
	if strings.TrimSpace(rel.Body) == "" {
		return models.ReleaseInfo{}, failure.Fatal(fmt.Errorf("%w: %s", ErrNoNotes, tag))
	}

	info := models.ReleaseInfo{Tag: rel.TagName, RawNotes: rel.Body, URL: rel.HTMLURL}
	for _, a := range rel.Assets {
		info.Assets = append(info.Assets, models.ReleaseAsset{Name: a.Name, DownloadURL: a.BrowserDownloadURL})
	}
	return info, nil
}

// Download returns the content of a release asset.
func (g *GitHub) Download(ctx context.Context, asset models.ReleaseAsset) (string, error) {
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		Get(asset.DownloadURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", failure.Transient(fmt.Errorf("failed to download %s: %w", asset.Name, err))
	}
	if resp.IsError() {
		return "", failure.FromHTTPStatus(resp.StatusCode(),
			fmt.Errorf("failed to download %s: status %d", asset.Name, resp.StatusCode()))
	}
	return resp.String(), nil
}
