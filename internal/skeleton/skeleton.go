// Package skeleton fetches the generated project skeleton archive
// from an external skeleton-generation service and extracts it onto
// disk, ready for the Commit Sequencer to turn into the baseline
// commit.
package skeleton

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/config"
)

// Request describes the parameters fetch_skeleton sends upstream,
// drawn from the frozen project configuration (§4.1).
type Request struct {
	BaseURL string
	Project *config.Project
	Client  *http.Client
	Retries uint64 // max retries beyond the first attempt, 0 uses a sane default
}

const defaultMaxRetries = 3

// Fetch requests the skeleton archive for req and extracts it into a
// freshly created temporary directory, returning that directory's
// path. Network, client (4xx), and server (5xx) failures are
// distinguished via Network on the returned error, per §7.
func Fetch(ctx context.Context, req Request) (string, error) {
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := req.Retries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	body, err := fetchWithRetry(ctx, client, req, maxRetries)
	if err != nil {
		return "", err
	}
	defer body.Close()

	archivePath := filepath.Join(os.TempDir(), "skeleton-"+uuid.NewString()+".zip")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "stage downloaded archive")
	}
	_, copyErr := io.Copy(out, body)
	out.Close()
	defer os.Remove(archivePath)
	if copyErr != nil {
		return "", bootstraperr.Wrap(bootstraperr.KindSkeletonService, copyErr, "stage downloaded archive")
	}

	destDir, err := os.MkdirTemp("", "skeleton-extracted-")
	if err != nil {
		return "", bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "create extraction directory")
	}
	if err := extractZip(archivePath, destDir); err != nil {
		os.RemoveAll(destDir)
		return "", err
	}
	return destDir, nil
}

func fetchWithRetry(ctx context.Context, client *http.Client, req Request, maxRetries uint64) (io.ReadCloser, error) {
	u, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	var result io.ReadCloser
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(classifyError(err))
		}
		resp, err := client.Do(httpReq)
		if err != nil {
			// Transport-level failure: dial/timeout/DNS. Retryable.
			return wrapNetwork(err)
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return wrapServer(resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return backoff.Permanent(wrapClient(resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return backoff.Permanent(bootstraperr.New(bootstraperr.KindSkeletonService, "unexpected redirect status %d", resp.StatusCode))
		}
		result = resp.Body
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, unwrapPermanent(err)
	}
	return result, nil
}

func buildURL(req Request) (string, error) {
	base, err := url.Parse(req.BaseURL)
	if err != nil {
		return "", bootstraperr.New(bootstraperr.KindConfiguration, "invalid skeleton service URL %q", req.BaseURL)
	}
	q := base.Query()
	if req.Project != nil {
		q.Set("groupId", req.Project.GroupID)
		q.Set("artifactId", req.Project.ArtifactID)
		q.Set("name", req.Project.ProjectName)
		q.Set("version", req.Project.Version)
		if req.Project.FrameworkVersion != "" {
			q.Set("bootVersion", req.Project.FrameworkVersion)
		}
		if req.Project.RuntimeVersion != "" {
			q.Set("javaVersion", req.Project.RuntimeVersion)
		}
		for _, tag := range req.Project.CapabilityList() {
			q.Add("dependencies", tag)
		}
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func classifyError(err error) error {
	return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "build skeleton request").
		WithSuggestion(bootstraperr.Suggest(bootstraperr.KindSkeletonService))
}

func wrapNetwork(err error) error {
	return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "contacting skeleton service").
		WithNetwork(bootstraperr.NetworkSubkindNet)
}

func wrapServer(status int) error {
	return bootstraperr.New(bootstraperr.KindSkeletonService, "skeleton service returned %d", status).
		WithNetwork(bootstraperr.NetworkSubkindServer)
}

func wrapClient(status int) error {
	return bootstraperr.New(bootstraperr.KindSkeletonService, "skeleton service rejected request: %d", status).
		WithNetwork(bootstraperr.NetworkSubkindClient)
}

func unwrapPermanent(err error) error {
	if pe, ok := err.(*backoff.PermanentError); ok {
		return pe.Err
	}
	return err
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "open downloaded archive")
	}
	defer r.Close()

	rootPrefix := commonTopLevelDir(r.File)

	for _, f := range r.File {
		name := f.Name
		if rootPrefix != "" {
			name = strings.TrimPrefix(name, rootPrefix+"/")
		}
		if name == "" {
			continue
		}
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
			return bootstraperr.New(bootstraperr.KindSkeletonService, "archive entry escapes extraction directory: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0775); err != nil {
				return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "create directory %s", name)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0775); err != nil {
			return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "create directory for %s", name)
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "read archive entry %s", f.Name)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "create %s", target)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return bootstraperr.Wrap(bootstraperr.KindSkeletonService, err, "write %s", target)
	}
	return nil
}

// commonTopLevelDir reports the single top-level directory name every
// entry is nested under, or "" if the archive is flat or has more
// than one top-level entry.
func commonTopLevelDir(files []*zip.File) string {
	var common string
	for i, f := range files {
		parts := strings.SplitN(f.Name, "/", 2)
		if len(parts) != 2 {
			return ""
		}
		if i == 0 {
			common = parts[0]
		} else if parts[0] != common {
			return ""
		}
	}
	return common
}
