// Package content resolves a raw `content` argument into a single document
// blob, trying progressively cheaper interpretations before falling back to
// treating the string as literal text.
package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Fetcher is the minimal capability needed to pull a remote document. It is
// reduced to this single method because outbound fetching is not itself
// part of the memory subsystem's scope.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// GitHubFetcher resolves a github.com/owner/repo[/blob/ref/path] reference
// to its raw body.
type GitHubFetcher interface {
	FetchFile(ctx context.Context, ownerRepo, ref, path string) (string, error)
}

// Resolver implements the spec's content resolution order: URL, GitHub
// reference, filesystem path, glob, literal text.
type Resolver struct {
	HTTP   Fetcher
	GitHub GitHubFetcher
}

// NewResolver builds a Resolver from its two fetch capabilities.
func NewResolver(http Fetcher, github GitHubFetcher) *Resolver {
	return &Resolver{HTTP: http, GitHub: github}
}

// Result is one resolved document blob plus the ingest accounting a
// memorize session reports back through its progress.
type Result struct {
	Body           string
	FilesLoaded    int
	TotalSizeBytes int64
}

// Resolve classifies content and returns one concatenated document blob.
func (r *Resolver) Resolve(ctx context.Context, content string) (Result, error) {
	trimmed := strings.TrimSpace(content)

	switch {
	case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
		return r.resolveHTTP(ctx, trimmed)

	case strings.Contains(trimmed, "github.com/"):
		return r.resolveGitHub(ctx, trimmed)

	default:
		if info, err := os.Stat(trimmed); err == nil {
			if info.IsDir() {
				return r.resolveDir(trimmed)
			}
			body, err := os.ReadFile(trimmed)
			if err != nil {
				return Result{}, fmt.Errorf("reading file %q: %w", trimmed, err)
			}
			return Result{Body: string(body), FilesLoaded: 1, TotalSizeBytes: int64(len(body))}, nil
		}

		if strings.ContainsAny(trimmed, "*?") {
			res, matched, err := r.resolveGlob(trimmed)
			if err != nil {
				return Result{}, err
			}
			if matched {
				return res, nil
			}
		}

		return Result{Body: content, FilesLoaded: 0, TotalSizeBytes: int64(len(content))}, nil
	}
}

func (r *Resolver) resolveHTTP(ctx context.Context, url string) (Result, error) {
	if r.HTTP == nil {
		return Result{}, fmt.Errorf("no HTTP fetcher configured")
	}
	body, err := r.HTTP.Fetch(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %q: %w", url, err)
	}
	return Result{Body: body, FilesLoaded: 1, TotalSizeBytes: int64(len(body))}, nil
}

func (r *Resolver) resolveGitHub(ctx context.Context, ref string) (Result, error) {
	if r.GitHub == nil {
		return Result{}, fmt.Errorf("no GitHub fetcher configured")
	}

	trimmed := ref
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")

	parts := strings.SplitN(trimmed, "/", 5)
	if len(parts) < 2 {
		return Result{}, fmt.Errorf("malformed github reference %q", ref)
	}

	ownerRepo := parts[0] + "/" + parts[1]
	path := "README.md"
	branchRef := "HEAD"

	if len(parts) >= 5 && parts[2] == "blob" {
		branchRef = parts[3]
		path = parts[4]
	}

	body, err := r.GitHub.FetchFile(ctx, ownerRepo, branchRef, path)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %q: %w", ref, err)
	}
	return Result{Body: body, FilesLoaded: 1, TotalSizeBytes: int64(len(body))}, nil
}

func (r *Resolver) resolveDir(dir string) (Result, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walking directory %q: %w", dir, err)
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("no files found")
	}
	sort.Strings(paths)
	return concatFiles(paths)
}

func (r *Resolver) resolveGlob(pattern string) (Result, bool, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return Result{}, false, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return Result{}, false, nil
	}
	sort.Strings(matches)
	res, err := concatFiles(matches)
	if err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

func concatFiles(paths []string) (Result, error) {
	var sb strings.Builder
	var totalSize int64
	for i, p := range paths {
		body, err := os.ReadFile(p)
		if err != nil {
			return Result{}, fmt.Errorf("reading %q: %w", p, err)
		}
		totalSize += int64(len(body))
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("=== %s ===\n%s", p, body))
	}
	return Result{Body: sb.String(), FilesLoaded: len(paths), TotalSizeBytes: totalSize}, nil
}
