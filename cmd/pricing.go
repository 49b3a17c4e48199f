package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	awspkg "github.com/guimove/ricoverage/internal/aws"
	"github.com/guimove/ricoverage/internal/region"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "List RDS on-demand pricing",
	Long: `Query the AWS Pricing API for the on-demand hourly price of RDS instance
classes, with the price per normalized unit so sizes of a family can be
compared.`,
	Args: cobra.NoArgs,
	RunE: runPricing,
}

func init() {
	f := pricingCmd.Flags()
	f.StringSlice("instance-classes", nil, "instance classes to price, e.g. db.r6g.large,db.r6g.2xlarge")
	f.String("engine", "MySQL", "database engine")
	f.String("sort-by", "price", "sort by: price, unit, class")
	_ = pricingCmd.MarkFlagRequired("instance-classes")

	rootCmd.AddCommand(pricingCmd)
}

func runPricing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	regionCode, err := region.Resolve(cfg.AWS.Region)
	if err != nil {
		return err
	}

	provider, err := newProvider(ctx)
	if err != nil {
		return err
	}

	classes, _ := cmd.Flags().GetStringSlice("instance-classes")
	engine, _ := cmd.Flags().GetString("engine")
	prices := provider.PriceClasses(ctx, regionCode, engine, classes)

	// Sort
	sortBy, _ := cmd.Flags().GetString("sort-by")
	sortPrices(prices, sortBy)

	// Display
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-22s %12s %12s\n", "INSTANCE CLASS", "$/HOUR(OD)", "$/UNIT-HOUR")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 48))

	var failed int
	for _, p := range prices {
		if p.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", p.InstanceClass, p.Err)
			fmt.Fprintf(w, "%-22s %12s %12s\n", p.InstanceClass, "N/A", "N/A")
			continue
		}
		unit := "N/A"
		if !p.PerUnit.IsZero() {
			unit = p.PerUnit.StringFixed(4)
		}
		fmt.Fprintf(w, "%-22s %12s %12s\n", p.InstanceClass, p.Hourly.StringFixed(4), unit)
	}

	fmt.Fprintf(w, "\n%d instance classes of %s in %s\n", len(prices), engine, regionCode)
	if failed == len(prices) && failed > 0 {
		return awspkg.ErrPriceNotFound
	}
	return nil
}

func sortPrices(prices []awspkg.SizePrice, by string) {
	switch by {
	case "class":
		sort.Slice(prices, func(i, j int) bool {
			return prices[i].InstanceClass < prices[j].InstanceClass
		})
	case "unit":
		sort.SliceStable(prices, func(i, j int) bool {
			return prices[i].PerUnit.LessThan(prices[j].PerUnit)
		})
	default: // price
		sort.SliceStable(prices, func(i, j int) bool {
			return prices[i].Hourly.LessThan(prices[j].Hourly)
		})
	}
}
