package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harness/harbor-migrator/module/migrate/report"
	"github.com/harness/harbor-migrator/module/migrate/types"
)

func artifactJSON(digest string, tags ...string) string {
	a := types.HarborArtifact{Digest: digest, PushTime: "2024-05-01T10:00:00.000Z",
		ManifestMediaType: "application/vnd.docker.distribution.manifest.v2+json", Size: 10}
	for _, tag := range tags {
		a.Tags = append(a.Tags, types.HarborTag{Name: tag})
	}
	b, _ := json.Marshal(a)
	return string(b)
}

// harborServer fakes project "p" with repositories a, b, c and d: b answers null and c
// fails.
func harborServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2.0/projects/p/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte(`[{"name":"p/a"},{"name":"p/b"},{"name":"p/c"},{"name":"p/d"}]`))
	})
	mux.HandleFunc("/api/v2.0/projects/p/repositories/a/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "[%s,%s]", artifactJSON("sha256:a1", "v2"), artifactJSON("sha256:a0", "v1"))
	})
	mux.HandleFunc("/api/v2.0/projects/p/repositories/b/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	})
	mux.HandleFunc("/api/v2.0/projects/p/repositories/c/artifacts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/v2.0/projects/p/repositories/d/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "[%s]", artifactJSON("sha256:d0"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func discoveryConfig(endpoint string) *types.Config {
	cfg := types.DefaultConfig()
	cfg.Harbor.Endpoint = endpoint + "/api/v2.0"
	cfg.Harbor.Credentials.Token = "dTpw"
	cfg.Discovery.Project = "p"
	cfg.Discovery.OutDir = "reports"
	return cfg
}

func TestDiscovery_Run(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			srv := harborServer(t)
			cfg := discoveryConfig(srv.URL)
			cfg.Discovery.Concurrency = concurrency
			fs := afero.NewMemMapFs()

			svc, err := NewDiscoveryService(context.Background(), cfg, fs)
			require.NoError(t, err)

			res, err := svc.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 3, res.Records)
			assert.Equal(t, "reports/harbor_artifacts_p.ndjson", res.NDJSONPath)

			records, err := report.ReadNDJSON(fs, res.NDJSONPath)
			require.NoError(t, err)
			var refs []string
			for _, r := range records {
				refs = append(refs, r.Reference())
			}
			assert.Equal(t, []string{"p/a@sha256:a1", "p/a@sha256:a0", "p/d@sha256:d0"}, refs)

			rows, err := report.ReadCSV(fs, res.CSVPath)
			require.NoError(t, err)
			assert.Len(t, rows, 3)
		})
	}
}

func TestDiscovery_Filters(t *testing.T) {
	srv := harborServer(t)
	cfg := discoveryConfig(srv.URL)
	cfg.Discovery.Exclude = []string{"a"}

	svc, err := NewDiscoveryService(context.Background(), cfg, afero.NewMemMapFs())
	require.NoError(t, err)

	records, err := svc.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d", records[0].Repository)
}

// fakeDiscoverer answers repositories in reverse speed so that later repositories finish
// first.
type fakeDiscoverer struct {
	repos    []string
	inFlight int32
	maxSeen  int32
}

func (f *fakeDiscoverer) GetConfig() types.RegistryConfig                     { return types.RegistryConfig{} }
func (f *fakeDiscoverer) GetKeyChain(context.Context) (authn.Keychain, error) { return authn.DefaultKeychain, nil }
func (f *fakeDiscoverer) GetOCIImagePath(project, repository string) string   { return project + "/" + repository }

func (f *fakeDiscoverer) ListRepositories(context.Context, string, int) ([]string, error) {
	return f.repos, nil
}

func (f *fakeDiscoverer) ListArtifacts(_ context.Context, project, repository string, _ int) (
	[]types.ArtifactRecord,
	error,
) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}

	idx := strings.Index(strings.Join(f.repos, ","), repository)
	time.Sleep(time.Duration(len(f.repos)*5-idx) * time.Millisecond)
	return []types.ArtifactRecord{{Project: project, Repository: repository, Digest: "sha256:" + repository,
		Tags: []string{"latest"}, Platforms: []string{}}}, nil
}

func TestDiscovery_DeterministicOrder(t *testing.T) {
	f := &fakeDiscoverer{repos: []string{"r0", "r1", "r2", "r3", "r4", "r5"}}
	cfg := discoveryConfig("https://harbor.example.com")
	cfg.Discovery.Concurrency = 3
	svc := &DiscoveryService{config: cfg, source: f, writer: report.NewWriter(afero.NewMemMapFs(), "out")}

	records, err := svc.Collect(context.Background())
	require.NoError(t, err)

	var got []string
	for _, r := range records {
		got = append(got, r.Repository)
	}
	assert.Equal(t, f.repos, got)
	assert.LessOrEqual(t, atomic.LoadInt32(&f.maxSeen), int32(3))
}

func TestDiscovery_NoRepositories(t *testing.T) {
	f := &fakeDiscoverer{}
	fs := afero.NewMemMapFs()
	svc := &DiscoveryService{config: discoveryConfig("https://harbor.example.com"), source: f,
		writer: report.NewWriter(fs, "out")}

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Records)

	data, err := afero.ReadFile(fs, res.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(report.Header, ",")+"\n", string(data))
}

func TestDiscovery_Cancelled(t *testing.T) {
	f := &fakeDiscoverer{repos: []string{"r0", "r1"}}
	svc := &DiscoveryService{config: discoveryConfig("https://harbor.example.com"), source: f,
		writer: report.NewWriter(afero.NewMemMapFs(), "out")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
