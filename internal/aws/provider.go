package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

const credentialCheckTimeout = 3 * time.Second

// Cost Explorer and the Pricing API are only served from us-east-1.
const globalRegion = "us-east-1"

var (
	ErrAWSCredentials = errors.New("AWS credentials not found; set AWS_PROFILE, run 'aws sso login', or configure ~/.aws/credentials")
	ErrPriceNotFound  = errors.New("no on-demand price found")
)

// costExplorerAPI is a minimal interface for the Cost Explorer calls we need.
type costExplorerAPI interface {
	GetReservationCoverage(ctx context.Context, params *costexplorer.GetReservationCoverageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetReservationCoverageOutput, error)
	GetReservationUtilization(ctx context.Context, params *costexplorer.GetReservationUtilizationInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetReservationUtilizationOutput, error)
	GetReservationPurchaseRecommendation(ctx context.Context, params *costexplorer.GetReservationPurchaseRecommendationInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetReservationPurchaseRecommendationOutput, error)
}

// pricingAPI is a minimal interface for the Pricing API calls we need.
type pricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Provider talks to Cost Explorer and the Pricing API.
type Provider struct {
	ce      costExplorerAPI
	pricing pricingAPI
	region  string
	cache   *FileCache
}

// NewProvider creates a provider using the default AWS SDK config chain.
// IMDS (EC2 metadata) is disabled to avoid long timeouts when running locally.
func NewProvider(ctx context.Context, region string, cache *FileCache) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(globalRegion),
		awsconfig.WithEC2IMDSClientEnableState(imds.ClientDisabled),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAWSCredentials, err)
	}

	// Verify credentials are available before making any API calls
	credCtx, cancel := context.WithTimeout(ctx, credentialCheckTimeout)
	defer cancel()
	if _, err := cfg.Credentials.Retrieve(credCtx); err != nil {
		return nil, ErrAWSCredentials
	}

	ceClient := costexplorer.NewFromConfig(cfg, func(o *costexplorer.Options) {
		o.BaseEndpoint = aws.String("https://ce.us-east-1.amazonaws.com")
	})

	return &Provider{
		ce:      ceClient,
		pricing: pricing.NewFromConfig(cfg),
		region:  region,
		cache:   cache,
	}, nil
}

// NewProviderWithAPIs creates a provider over custom clients (for testing).
func NewProviderWithAPIs(ce costExplorerAPI, pr pricingAPI, region string, cache *FileCache) *Provider {
	return &Provider{ce: ce, pricing: pr, region: region, cache: cache}
}

// Region returns the default region used for price lookups.
func (p *Provider) Region() string {
	return p.region
}
