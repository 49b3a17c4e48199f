package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/instance"
	"github.com/guimove/ricoverage/internal/model"
	"github.com/guimove/ricoverage/internal/recommend"
)

const rdsServiceCode = "AmazonRDS"

// priceListItem maps the parts of a Pricing API product document we need.
type priceListItem struct {
	Product struct {
		Attributes map[string]string `json:"attributes"`
	} `json:"product"`
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				Unit         string            `json:"unit"`
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

// PriceQuery identifies one RDS on-demand price.
type PriceQuery struct {
	RegionCode    string
	Engine        string
	InstanceClass string
}

func (q PriceQuery) cacheKey() string {
	return fmt.Sprintf("rds-%s-%s-%s", q.RegionCode, q.Engine, q.InstanceClass)
}

// OnDemandHourly returns the Single-AZ on-demand hourly USD price of an RDS
// instance class. It returns ErrPriceNotFound when the API has no match.
func (p *Provider) OnDemandHourly(ctx context.Context, q PriceQuery) (decimal.Decimal, error) {
	if q.RegionCode == "" {
		q.RegionCode = p.region
	}

	var cached string
	if p.cache.Get(q.cacheKey(), &cached) {
		if d, err := decimal.NewFromString(cached); err == nil {
			return d, nil
		}
	}

	filters := []pricingtypes.Filter{
		termMatch("instanceType", q.InstanceClass),
		termMatch("regionCode", q.RegionCode),
		termMatch("databaseEngine", q.Engine),
		termMatch("deploymentOption", "Single-AZ"),
	}

	input := &pricing.GetProductsInput{
		ServiceCode:   aws.String(rdsServiceCode),
		Filters:       filters,
		FormatVersion: aws.String("aws_v1"),
		MaxResults:    aws.Int32(20),
	}

	for {
		out, err := p.pricing.GetProducts(ctx, input)
		if err != nil {
			return decimal.Zero, fmt.Errorf("getting RDS products: %w", err)
		}

		for _, doc := range out.PriceList {
			price, ok := parseOnDemandUSD(doc)
			if !ok {
				continue
			}
			_ = p.cache.Set(q.cacheKey(), price.String())
			return price, nil
		}

		if aws.ToString(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}

	return decimal.Zero, fmt.Errorf("%s %s in %s: %w", q.Engine, q.InstanceClass, q.RegionCode, ErrPriceNotFound)
}

// parseOnDemandUSD returns the first positive hourly USD rate in a product
// document.
func parseOnDemandUSD(doc string) (decimal.Decimal, bool) {
	var item priceListItem
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return decimal.Zero, false
	}
	for _, term := range item.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			if !strings.EqualFold(dim.Unit, "Hrs") {
				continue
			}
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			d, err := decimal.NewFromString(usd)
			if err != nil || !d.IsPositive() {
				continue
			}
			return d, true
		}
	}
	return decimal.Zero, false
}

func termMatch(field, value string) pricingtypes.Filter {
	return pricingtypes.Filter{
		Type:  pricingtypes.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}

// PriceBook looks up the hourly price of one base-size unit for each key and
// returns the prices it found together with the lookups that failed.
func (p *Provider) PriceBook(ctx context.Context, keys []model.GroupKey) (recommend.StaticPrices, []error) {
	prices := make(recommend.StaticPrices)
	var errs []error
	for _, k := range keys {
		if _, done := prices[k]; done {
			continue
		}
		rate, err := p.OnDemandHourly(ctx, PriceQuery{
			RegionCode:    k.RegionCode,
			Engine:        pricingEngine(k.Engine),
			InstanceClass: k.BaseInstanceSize,
		})
		if err != nil {
			if ctx.Err() != nil {
				return prices, append(errs, ctx.Err())
			}
			errs = append(errs, err)
			continue
		}
		prices[k] = rate
	}
	return prices, errs
}

// pricingEngine maps Cost Explorer engine labels to Pricing API values.
func pricingEngine(engine string) string {
	e := strings.ToLower(engine)
	switch {
	case strings.Contains(e, "aurora") && strings.Contains(e, "postgres"):
		return "Aurora PostgreSQL"
	case strings.Contains(e, "aurora"):
		return "Aurora MySQL"
	case strings.Contains(e, "postgres"):
		return "PostgreSQL"
	case strings.Contains(e, "mariadb"):
		return "MariaDB"
	case strings.Contains(e, "mysql"):
		return "MySQL"
	case strings.Contains(e, "oracle"):
		return "Oracle"
	case strings.Contains(e, "sql server"):
		return "SQL Server"
	}
	return engine
}

// SizePrice is the on-demand price of one instance class and its cost per
// normalized unit.
type SizePrice struct {
	InstanceClass string
	Hourly        decimal.Decimal
	PerUnit       decimal.Decimal
	Err           error
}

// PriceClasses looks up several instance classes of one engine, adding the
// price per normalized unit so sizes can be compared.
func (p *Provider) PriceClasses(ctx context.Context, region, engine string, classes []string) []SizePrice {
	out := make([]SizePrice, 0, len(classes))
	for _, c := range classes {
		sp := SizePrice{InstanceClass: c}
		sp.Hourly, sp.Err = p.OnDemandHourly(ctx, PriceQuery{RegionCode: region, Engine: pricingEngine(engine), InstanceClass: c})
		if sp.Err == nil {
			if n, err := instance.Normalize(c); err == nil && instance.Ratio(n) > 0 {
				sp.PerUnit = sp.Hourly.Div(decimal.NewFromFloat(instance.Ratio(n))).Round(4)
			}
		}
		out = append(out, sp)
	}
	return out
}
