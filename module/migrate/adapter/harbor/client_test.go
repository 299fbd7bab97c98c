package harbor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harness/harbor-migrator/module/migrate/types"
)

// fakeHarbor serves the two listing endpoints for project "p".
type fakeHarbor struct {
	mu        sync.Mutex
	repos     []string
	artifacts map[string]string // repository -> raw JSON body
	repoCalls int
	auth      []string
}

func (f *fakeHarbor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	const prefix = "/api/v2.0/projects/p/repositories"
	path := r.URL.EscapedPath()
	switch {
	case path == prefix:
		f.mu.Lock()
		f.repoCalls++
		f.mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		start := (page - 1) * size
		if start >= len(f.repos) {
			_, _ = w.Write([]byte("[]"))
			return
		}
		end := min(start+size, len(f.repos))
		var out []types.HarborRepository
		for _, n := range f.repos[start:end] {
			out = append(out, types.HarborRepository{Name: "p/" + n})
		}
		_ = json.NewEncoder(w).Encode(out)
	case strings.HasPrefix(path, prefix+"/") && strings.HasSuffix(path, "/artifacts"):
		repo := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"/"), "/artifacts")
		body, ok := f.artifacts[repo]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeHarbor) *client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return newClient(&types.RegistryConfig{Endpoint: srv.URL + "/api/v2.0/"}, "dXNlcjpwYXNz")
}

func repoNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("repo-%03d", i)
	}
	return names
}

func TestListRepositories_Paging(t *testing.T) {
	tests := []struct {
		name      string
		repos     int
		pageSize  int
		wantCalls int
	}{
		{name: "empty project", repos: 0, pageSize: 10, wantCalls: 1},
		{name: "short single page", repos: 3, pageSize: 10, wantCalls: 1},
		{name: "exact multiple", repos: 20, pageSize: 10, wantCalls: 3},
		{name: "partial last page", repos: 25, pageSize: 10, wantCalls: 3},
		{name: "page size one", repos: 4, pageSize: 1, wantCalls: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeHarbor{repos: repoNames(tt.repos)}
			c := newTestClient(t, f)

			got, err := c.listRepositories(context.Background(), "p", tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, f.repoCalls)
			for _, h := range f.auth {
				assert.Equal(t, "Basic dXNlcjpwYXNz", h)
			}
			if tt.repos == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, f.repos, got)
			}
		})
	}
}

func TestListRepositories_NullAndErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "null body",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("null")) },
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {},
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c := newClient(&types.RegistryConfig{Endpoint: srv.URL}, "")

			got, err := c.listRepositories(context.Background(), "p", 10)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestListArtifacts(t *testing.T) {
	f := &fakeHarbor{artifacts: map[string]string{
		"r": `[{
			"digest": "sha256:abc",
			"push_time": "2024-05-01T10:00:00.000Z",
			"size": 1024,
			"type": "IMAGE",
			"manifest_media_type": "application/vnd.oci.image.index.v1+json",
			"tags": [{"name": "v1"}, {"name": "v2"}],
			"references": [
				{"child_digest": "sha256:1", "platform": {"os": "linux", "architecture": "arm64"}},
				{"child_digest": "sha256:2", "platform": {"os": "linux", "architecture": "amd64"}},
				{"child_digest": "sha256:3", "platform": {"os": "linux", "architecture": "amd64"}},
				{"child_digest": "sha256:4"}
			]
		}, {"digest": "", "tags": []}]`,
		"nothing": "null",
	}}
	c := newTestClient(t, f)

	got, err := c.listArtifacts(context.Background(), "p", "r", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ArtifactRecord{
		Project:           "p",
		Repository:        "r",
		Digest:            "sha256:abc",
		PushTime:          "2024-05-01T10:00:00.000Z",
		ManifestMediaType: "application/vnd.oci.image.index.v1+json",
		Tags:              []string{"v1", "v2"},
		Platforms:         []string{"linux/amd64", "linux/arm64"},
		Size:              1024,
		Type:              "IMAGE",
	}, got[0])

	got, err = c.listArtifacts(context.Background(), "p", "nothing", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.listArtifacts(context.Background(), "p", "missing", 5)
	require.Error(t, err)
}

func TestListArtifacts_RequestShape(t *testing.T) {
	var query string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		query = r.URL.RawQuery
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Basic dXNlcjpwYXNz", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := newClient(&types.RegistryConfig{Endpoint: srv.URL + "/api/v2.0"}, "dXNlcjpwYXNz")
	_, err := c.listArtifacts(context.Background(), "p", "team/api", 7)
	require.NoError(t, err)

	assert.Equal(t, "/api/v2.0/projects/p/repositories/team%252Fapi/artifacts", path)
	assert.Equal(t, "with_tag=true&sort=-push_time&page=1&page_size=7", query)
}

func TestResolve(t *testing.T) {
	c := newClient(&types.RegistryConfig{Endpoint: "https://harbor.example.com/api/v2.0/"}, "")

	tests := []struct {
		in   string
		want string
	}{
		{in: "projects", want: "https://harbor.example.com/api/v2.0/projects"},
		{in: "/projects", want: "https://harbor.example.com/api/v2.0/projects"},
		{in: "https://other.example.com/x", want: "https://other.example.com/x"},
		{in: "http://other.example.com/x", want: "http://other.example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.resolve(tt.in))
		})
	}
}

func TestListRepositories_Cancelled(t *testing.T) {
	f := &fakeHarbor{repos: repoNames(5)}
	c := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.listRepositories(ctx, "p", 2)
	assert.ErrorIs(t, err, context.Canceled)
}
