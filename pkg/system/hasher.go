package system

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/veld-sh/veld/pkg/eval"
)

// FileHasher hashes configuration sources for plan comparison. Local
// sources resolve relative to BaseDir (the configuration file's
// directory); sources from a repository resolve inside the repository's
// checkout under CacheDir.
type FileHasher struct {
	BaseDir  string
	CacheDir string
}

// HashSource implements reconcile.SourceHasher.
func (h FileHasher) HashSource(source string, repo *eval.RepoRef) (string, error) {
	path := source
	switch {
	case repo != nil:
		path = filepath.Join(RepoCheckoutDir(h.CacheDir, repo), source)
	case !filepath.IsAbs(path):
		path = filepath.Join(h.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return HashBytes(data), nil
}

// HashBytes returns the hex sha256 of content, the hash form tracked
// files are stored under.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RepoCheckoutDir is where a repository's local checkout lives under the
// state cache.
func RepoCheckoutDir(cacheDir string, repo *eval.RepoRef) string {
	switch repo.RepoKind {
	case eval.RepoLocal:
		return repo.Path
	case eval.RepoGitHub:
		return filepath.Join(cacheDir, "repos", repo.Owner+"-"+repo.Name)
	default:
		return filepath.Join(cacheDir, "repos", repo.Name)
	}
}
