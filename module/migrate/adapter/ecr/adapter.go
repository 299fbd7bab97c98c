package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/rs/zerolog/log"

	adp "github.com/harness/harbor-migrator/module/migrate/adapter"
	"github.com/harness/harbor-migrator/module/migrate/lib"
	"github.com/harness/harbor-migrator/module/migrate/types"
	"github.com/harness/harbor-migrator/module/migrate/util"
	"github.com/harness/harbor-migrator/util/common/errors"
)

// defaultUsername is the user ECR authorization tokens are issued for.
const defaultUsername = "AWS"

func init() {
	if err := adp.RegisterFactory(types.ECR, new(factory)); err != nil {
		return
	}
}

// TokenAPI is the subset of the ECR client used for login.
type TokenAPI interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput,
		optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

type factory struct{}

func (f factory) Create(ctx context.Context, config types.RegistryConfig) (adp.Adapter, error) {
	region, err := RegionFromRegistry(config.Endpoint)
	if err != nil {
		return nil, err
	}

	var api TokenAPI
	if config.Credentials.Password == "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		api = ecr.NewFromConfig(awsCfg)
	}
	return newAdapter(config, region, api), nil
}

type adapter struct {
	reg    types.RegistryConfig
	region string
	host   string
	api    TokenAPI

	mu       sync.Mutex
	username string
	password string
}

func newAdapter(config types.RegistryConfig, region string, api TokenAPI) *adapter {
	return &adapter{
		reg:      config,
		region:   region,
		host:     RegistryHost(config.Endpoint),
		api:      api,
		username: config.Credentials.Username,
		password: config.Credentials.Password,
	}
}

// RegistryHost returns the host part of a registry prefix such as
// 123456789012.dkr.ecr.eu-west-1.amazonaws.com/team.
func RegistryHost(prefix string) string {
	prefix = strings.TrimPrefix(strings.TrimPrefix(prefix, "https://"), "http://")
	host, _, _ := strings.Cut(prefix, "/")
	return host
}

// RegionFromRegistry takes the fourth dot-separated field of the registry host, following
// the <account>.dkr.ecr.<region>.amazonaws.com naming convention.
func RegionFromRegistry(prefix string) (string, error) {
	fields := strings.Split(RegistryHost(prefix), ".")
	if len(fields) < 4 || fields[3] == "" {
		return "", errors.NewValidationError("ecr",
			fmt.Sprintf("%q does not look like <account>.dkr.ecr.<region>.amazonaws.com", prefix))
	}
	return fields[3], nil
}

func (a *adapter) GetConfig() types.RegistryConfig {
	return a.reg
}

// GetKeyChain logs in to ECR once and serves the token for the registry host.
func (a *adapter) GetKeyChain(ctx context.Context) (authn.Keychain, error) {
	user, pass, err := a.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return lib.NewStaticKeychain(user, pass, a.host), nil
}

func (a *adapter) credentials(ctx context.Context) (string, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.password != "" {
		if a.username == "" {
			a.username = defaultUsername
		}
		return a.username, a.password, nil
	}
	if a.api == nil {
		return "", "", fmt.Errorf("no ECR credentials and no AWS client configured")
	}

	log.Info().Str("region", a.region).Str("registry", a.host).Msg("Requesting ECR authorization token")
	out, err := a.api.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", fmt.Errorf("ecr login in %s failed: %w", a.region, err)
	}
	if len(out.AuthorizationData) == 0 {
		return "", "", fmt.Errorf("ecr login in %s returned no authorization data", a.region)
	}

	user, pass, err := decodeToken(aws.ToString(out.AuthorizationData[0].AuthorizationToken))
	if err != nil {
		return "", "", err
	}
	a.username, a.password = user, pass
	return user, pass, nil
}

// decodeToken splits a base64 "user:password" ECR token.
func decodeToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("invalid ECR authorization token: %w", err)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("invalid ECR authorization token format")
	}
	return user, pass, nil
}

// GetOCIImagePath returns <ecr-prefix>/<repository>; the Harbor project is not part of
// the destination name.
func (a *adapter) GetOCIImagePath(_, repository string) string {
	return util.GenOCIImagePath(strings.TrimSuffix(a.reg.Endpoint, "/"), repository)
}
