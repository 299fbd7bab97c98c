package harbor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	httputil "github.com/harness/harbor-migrator/module/migrate/http"
	"github.com/harness/harbor-migrator/module/migrate/http/auth/basic"
	"github.com/harness/harbor-migrator/module/migrate/types"
)

// newClient constructs a Harbor API client
func newClient(reg *types.RegistryConfig, token string) *client {
	return &client{
		client: httputil.NewClient(
			httputil.Options{
				Insecure: reg.Insecure,
				Retries:  reg.Retries,
				Timeout:  reg.Timeout,
			},
			basic.NewAuthorizer(token),
		),
		url: strings.TrimSuffix(reg.Endpoint, "/"),
	}
}

type client struct {
	client *httputil.Client
	url    string
}

// resolve joins a relative path to the API base; absolute URLs are used as given.
func (c *client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	return c.url + "/" + strings.TrimPrefix(pathOrURL, "/")
}

// call executes an authenticated GET and returns the raw body.
func (c *client) call(ctx context.Context, pathOrURL string) ([]byte, error) {
	return c.client.GetBytes(ctx, c.resolve(pathOrURL))
}

// isNoData reports whether a body carries no payload: empty or the literal null.
func isNoData(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func repositoriesPath(project string, page, pageSize int) string {
	return fmt.Sprintf("projects/%s/repositories?page=%d&page_size=%d", url.PathEscape(project), page, pageSize)
}

// artifactsPath double escapes the repository name: Harbor expects "a/b" as "a%252Fb".
func artifactsPath(project, repository string, limit int) string {
	return fmt.Sprintf("projects/%s/repositories/%s/artifacts?with_tag=true&sort=-push_time&page=1&page_size=%d",
		url.PathEscape(project), url.PathEscape(url.PathEscape(repository)), limit)
}

// listRepositories pages through the project's repositories until a short, empty or
// failed page. Names are returned in registry order without the project prefix.
func (c *client) listRepositories(ctx context.Context, project string, pageSize int) ([]string, error) {
	logger := log.With().Str("project", project).Int("page_size", pageSize).Logger()
	var names []string

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return names, err
		}

		body, err := c.call(ctx, repositoriesPath(project, page, pageSize))
		if err != nil {
			if ctx.Err() != nil {
				return names, ctx.Err()
			}
			logger.Warn().Err(err).Int("page", page).Msg("Repository listing failed, treating as end of list")
			break
		}
		if isNoData(body) {
			logger.Debug().Int("page", page).Msg("Empty repository page")
			break
		}

		var repos []types.HarborRepository
		if err := json.Unmarshal(body, &repos); err != nil {
			logger.Warn().Err(err).Int("page", page).Msg("Unreadable repository page, treating as end of list")
			break
		}

		for _, repo := range repos {
			names = append(names, strings.TrimPrefix(repo.Name, project+"/"))
		}
		logger.Debug().Int("page", page).Int("count", len(repos)).Msg("Fetched repository page")

		if len(repos) < pageSize {
			break
		}
	}
	return names, nil
}

// listArtifacts fetches the newest limit artifacts of one repository, ordered by push
// time descending on the server side.
func (c *client) listArtifacts(ctx context.Context, project, repository string, limit int) (
	[]types.ArtifactRecord,
	error,
) {
	body, err := c.call(ctx, artifactsPath(project, repository, limit))
	if err != nil {
		return nil, fmt.Errorf("list artifacts of %s/%s: %w", project, repository, err)
	}
	if isNoData(body) {
		return nil, nil
	}

	var artifacts []types.HarborArtifact
	if err := json.Unmarshal(body, &artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts of %s/%s: %w", project, repository, err)
	}

	records := make([]types.ArtifactRecord, 0, len(artifacts))
	for _, a := range artifacts {
		rec, err := types.NewArtifactRecord(project, repository, a)
		if err != nil {
			log.Warn().Err(err).Str("project", project).Str("repository", repository).
				Msg("Skipping malformed artifact")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
