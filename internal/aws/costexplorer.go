package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/guimove/ricoverage/internal/ingest"
	"github.com/guimove/ricoverage/internal/model"
)

// Cost Explorer service names per service type.
var ceServiceNames = map[string]string{
	"RDS":         "Amazon Relational Database Service",
	"ElastiCache": "Amazon ElastiCache",
	"OpenSearch":  "Amazon OpenSearch Service",
	"Redshift":    "Amazon Redshift",
}

// FetchOptions selects what the Cost Explorer source retrieves.
type FetchOptions struct {
	Start       string // YYYY-MM-DD, inclusive
	End         string // YYYY-MM-DD, inclusive
	ServiceType string // "RDS"

	// Purchase recommendation parameters
	TermYears     int    // 1 or 3
	PaymentOption string // "no-upfront", "partial-upfront", "all-upfront"
	LookbackDays  int    // 7, 30 or 60
}

// CostExplorerSource loads reports from the Cost Explorer API. It
// implements ingest.Source.
type CostExplorerSource struct {
	provider *Provider
	opts     FetchOptions
}

// NewCostExplorerSource creates a source over provider.
func NewCostExplorerSource(provider *Provider, opts FetchOptions) *CostExplorerSource {
	return &CostExplorerSource{provider: provider, opts: opts}
}

// Ping validates the requested period.
func (s *CostExplorerSource) Ping(ctx context.Context) error {
	_, err := ingest.DaysBetween(s.opts.Start, s.opts.End)
	return err
}

// BackendType returns "costexplorer".
func (s *CostExplorerSource) BackendType() string {
	return "costexplorer"
}

// Load fetches one report kind.
func (s *CostExplorerSource) Load(ctx context.Context, kind model.ReportKind) (*model.Dataset, error) {
	switch kind {
	case model.ReportCoverage:
		return s.provider.Coverage(ctx, s.opts)
	case model.ReportUtilization:
		return s.provider.Utilization(ctx, s.opts)
	case model.ReportRecommendation:
		return s.provider.Recommendations(ctx, s.opts)
	}
	return nil, fmt.Errorf("%w: %q", ingest.ErrUnknownKind, kind)
}

func (o FetchOptions) interval() (*types.DateInterval, error) {
	if _, err := ingest.DaysBetween(o.Start, o.End); err != nil {
		return nil, err
	}
	end, _ := ingest.ParseDate(o.End)
	// Cost Explorer end dates are exclusive
	return &types.DateInterval{
		Start: aws.String(o.Start),
		End:   aws.String(end.AddDate(0, 0, 1).Format(ingest.DateLayout)),
	}, nil
}

func (o FetchOptions) serviceFilter() (*types.Expression, string, error) {
	service, ok := ceServiceNames[o.ServiceType]
	if !ok {
		return nil, "", fmt.Errorf("unsupported service type %q", o.ServiceType)
	}
	return &types.Expression{
		Dimensions: &types.DimensionValues{
			Key:    types.DimensionService,
			Values: []string{service},
		},
	}, service, nil
}

// Coverage fetches RI coverage grouped by region, instance type, engine and
// deployment option, in the running-hours shape.
func (p *Provider) Coverage(ctx context.Context, opts FetchOptions) (*model.Dataset, error) {
	period, err := opts.interval()
	if err != nil {
		return nil, err
	}
	filter, _, err := opts.serviceFilter()
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{
		Kind:   model.ReportCoverage,
		Source: "costexplorer:GetReservationCoverage",
		Columns: []string{
			model.ColRegion, model.ColEngine, model.ColInstanceClass,
			model.ColRunningHours, model.ColAverageCoverage, model.ColDeploymentOption,
		},
	}

	input := &costexplorer.GetReservationCoverageInput{
		TimePeriod: period,
		Filter:     filter,
		GroupBy: []types.GroupDefinition{
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("REGION")},
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("INSTANCE_TYPE")},
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("DATABASE_ENGINE")},
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("DEPLOYMENT_OPTION")},
		},
	}

	line := 1
	for {
		out, err := p.ce.GetReservationCoverage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("getting reservation coverage: %w", err)
		}

		for _, byTime := range out.CoveragesByTime {
			for _, g := range byTime.Groups {
				if g.Coverage == nil || g.Coverage.CoverageHours == nil {
					continue
				}
				line++
				hours := g.Coverage.CoverageHours
				ds.Rows = append(ds.Rows, model.CoverageRow{
					RowIdentity:      identity(line, g.Attributes),
					RunningHours:     aws.ToString(hours.TotalRunningHours),
					AverageCoverage:  percent(aws.ToString(hours.CoverageHoursPercentage)),
					DeploymentOption: attr(g.Attributes, "deploymentOption"),
				})
			}
		}

		if aws.ToString(out.NextPageToken) == "" {
			break
		}
		input.NextPageToken = out.NextPageToken
	}

	return ds, nil
}

// Utilization fetches RI utilization per subscription.
func (p *Provider) Utilization(ctx context.Context, opts FetchOptions) (*model.Dataset, error) {
	period, err := opts.interval()
	if err != nil {
		return nil, err
	}
	filter, _, err := opts.serviceFilter()
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{
		Kind:   model.ReportUtilization,
		Source: "costexplorer:GetReservationUtilization",
		Columns: []string{
			model.ColRegion, model.ColEngine, model.ColInstanceClass,
			model.ColOnDemandEquivalentCost, model.ColRICost, model.ColUtilizationPct,
		},
	}

	input := &costexplorer.GetReservationUtilizationInput{
		TimePeriod: period,
		Filter:     filter,
		GroupBy: []types.GroupDefinition{
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("SUBSCRIPTION_ID")},
		},
	}

	line := 1
	for {
		out, err := p.ce.GetReservationUtilization(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("getting reservation utilization: %w", err)
		}

		for _, byTime := range out.UtilizationsByTime {
			for _, g := range byTime.Groups {
				if g.Utilization == nil {
					continue
				}
				line++
				u := g.Utilization
				ds.Rows = append(ds.Rows, model.UtilizationRow{
					RowIdentity:            identity(line, g.Attributes),
					OnDemandEquivalentCost: aws.ToString(u.OnDemandCostOfRIHoursUsed),
					RICost:                 aws.ToString(u.TotalAmortizedFee),
					UtilizationPct:         aws.ToString(u.UtilizationPercentage),
				})
			}
		}

		if aws.ToString(out.NextPageToken) == "" {
			break
		}
		input.NextPageToken = out.NextPageToken
	}

	return ds, nil
}

// Recommendations fetches RI purchase recommendations.
func (p *Provider) Recommendations(ctx context.Context, opts FetchOptions) (*model.Dataset, error) {
	_, service, err := opts.serviceFilter()
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{
		Kind:   model.ReportRecommendation,
		Source: "costexplorer:GetReservationPurchaseRecommendation",
		Columns: []string{
			model.ColRegion, model.ColEngine, model.ColInstanceClass,
			model.ColRecommendedCount, model.ColEstimatedSavings, model.ColTerm, model.ColPaymentOption,
			model.ColUpfrontCost, model.ColRecurringMonthlyCost,
		},
	}

	input := &costexplorer.GetReservationPurchaseRecommendationInput{
		Service:              aws.String(service),
		TermInYears:          termInYears(opts.TermYears),
		PaymentOption:        paymentOption(opts.PaymentOption),
		LookbackPeriodInDays: lookback(opts.LookbackDays),
	}

	line := 1
	for {
		out, err := p.ce.GetReservationPurchaseRecommendation(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("getting purchase recommendations: %w", err)
		}

		for _, rec := range out.Recommendations {
			for _, d := range rec.RecommendationDetails {
				if d.InstanceDetails == nil || d.InstanceDetails.RDSInstanceDetails == nil {
					continue
				}
				rds := d.InstanceDetails.RDSInstanceDetails
				line++
				ds.Rows = append(ds.Rows, model.RecommendationRow{
					RowIdentity: model.RowIdentity{
						Line:          line,
						Region:        aws.ToString(rds.Region),
						Engine:        aws.ToString(rds.DatabaseEngine),
						InstanceClass: aws.ToString(rds.InstanceType),
					},
					RecommendedCount:     aws.ToString(d.RecommendedNumberOfInstancesToPurchase),
					EstimatedSavings:     aws.ToString(d.EstimatedMonthlySavingsAmount),
					Term:                 string(rec.TermInYears),
					PaymentOption:        string(rec.PaymentOption),
					UpfrontCost:          aws.ToString(d.UpfrontCost),
					RecurringMonthlyCost: aws.ToString(d.RecurringStandardMonthlyCost),
				})
			}
		}

		if aws.ToString(out.NextPageToken) == "" {
			break
		}
		input.NextPageToken = out.NextPageToken
	}

	return ds, nil
}

// attr reads a group attribute regardless of key casing ("instanceType",
// "INSTANCE_TYPE", "instance_type").
func attr(attrs map[string]string, key string) string {
	want := flatten(key)
	for k, v := range attrs {
		if flatten(k) == want {
			return v
		}
	}
	return ""
}

func flatten(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

func identity(line int, attrs map[string]string) model.RowIdentity {
	engine := attr(attrs, "databaseEngine")
	if engine == "" {
		engine = attr(attrs, "platform")
	}
	return model.RowIdentity{
		Line:          line,
		Region:        attr(attrs, "region"),
		Engine:        engine,
		InstanceClass: attr(attrs, "instanceType"),
	}
}

// percent marks a Cost Explorer percentage so it is never read as a fraction.
func percent(s string) string {
	if s == "" {
		return ""
	}
	return s + "%"
}

func termInYears(years int) types.TermInYears {
	if years == 3 {
		return types.TermInYearsThreeYears
	}
	return types.TermInYearsOneYear
}

func paymentOption(option string) types.PaymentOption {
	switch option {
	case "all-upfront":
		return types.PaymentOptionAllUpfront
	case "partial-upfront":
		return types.PaymentOptionPartialUpfront
	default:
		return types.PaymentOptionNoUpfront
	}
}

func lookback(days int) types.LookbackPeriodInDays {
	switch days {
	case 7:
		return types.LookbackPeriodInDaysSevenDays
	case 60:
		return types.LookbackPeriodInDaysSixtyDays
	default:
		return types.LookbackPeriodInDaysThirtyDays
	}
}

// FetchDeadline bounds a single fetch command.
const FetchDeadline = 2 * time.Minute
