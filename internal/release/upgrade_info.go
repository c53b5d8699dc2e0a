package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/manifest-network/upgrade-helper/internal/models"
)

// ErrNoChecksums is returned when a release ships no checksums file.
var ErrNoChecksums = errors.New("release has no checksums file")

const checksumsAsset = "checksums.txt"

var platformPattern = regexp.MustCompile(`(Linux|Darwin)_(amd64|arm64)`)

// Downloader fetches the content of a release asset.
type Downloader interface {
	Download(ctx context.Context, asset models.ReleaseAsset) (string, error)
}

// UpgradeInfo is the plan info attached to a software-upgrade proposal,
// telling cosmovisor where to get the new binaries.
type UpgradeInfo struct {
	Binaries map[string]string `json:"binaries"`
}

// ResolveUpgradeInfo downloads the release checksums and returns the
// upgrade info as compact JSON.
func ResolveUpgradeInfo(ctx context.Context, d Downloader, info models.ReleaseInfo) (string, error) {
	var checksumFile *models.ReleaseAsset
	for i := range info.Assets {
		if info.Assets[i].Name == checksumsAsset {
			checksumFile = &info.Assets[i]
			break
		}
	}
	if checksumFile == nil {
		return "", fmt.Errorf("%w: %s", ErrNoChecksums, info.Tag)
	}

	content, err := d.Download(ctx, *checksumFile)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(BuildUpgradeInfo(info.Assets, ParseChecksums(content)))
	if err != nil {
		return "", fmt.Errorf("failed to encode upgrade info: %w", err)
	}
	return string(raw), nil
}

// ParseChecksums reads a "<sha256>  <file>" list, skipping Windows builds.
func ParseChecksums(content string) map[string]string {
	checksums := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			slog.Warn("Invalid checksum line", "line", line)
			continue
		}
		if strings.Contains(parts[1], "Windows") {
			continue
		}
		checksums[parts[1]] = parts[0]
	}
	return checksums
}

// BuildUpgradeInfo maps every Linux and Darwin archive with a known checksum
// to its os/arch key.
func BuildUpgradeInfo(assets []models.ReleaseAsset, checksums map[string]string) UpgradeInfo {
	info := UpgradeInfo{Binaries: make(map[string]string)}
	for _, a := range assets {
		key, ok := PlatformKey(a.Name)
		if !ok {
			continue
		}
		sum, ok := checksums[a.Name]
		if !ok {
			continue
		}
		info.Binaries[key] = a.DownloadURL + "?checksum=" + sum
	}
	return info
}

// PlatformKey returns the "os/arch" key of a release archive name.
func PlatformKey(name string) (string, bool) {
	m := platformPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]) + "/" + m[2], true
}
