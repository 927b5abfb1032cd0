package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/edvin/billing/internal/billing"
	"github.com/edvin/billing/internal/catalog"
	"github.com/edvin/billing/internal/config"
	"github.com/edvin/billing/internal/core"
	"github.com/edvin/billing/internal/db"
	"github.com/edvin/billing/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}
	if err := cfg.Validate("billingctl"); err != nil {
		fail("invalid config: %v", err)
	}
	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	switch os.Args[1] {
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: billingctl migrate up|down|status|version")
			os.Exit(1)
		}
		err = migrate(ctx, cfg, os.Args[2])

	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		file := fs.String("f", "", "Path to catalog YAML file (required)")
		fs.Parse(os.Args[2:])
		if *file == "" {
			fmt.Fprintln(os.Stderr, "Error: -f flag is required")
			fs.Usage()
			os.Exit(1)
		}
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			return seed(ctx, pool, *file)
		})

	case "catalog":
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			return printCatalog(ctx, pool)
		})

	case "customer":
		fs := flag.NewFlagSet("customer", flag.ExitOnError)
		customer := fs.String("id", "", "Stripe customer ID (required)")
		fs.Parse(os.Args[2:])
		if *customer == "" {
			fmt.Fprintln(os.Stderr, "Error: -id flag is required")
			fs.Usage()
			os.Exit(1)
		}
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			return printCustomer(ctx, pool, *customer)
		})

	case "link-customer":
		fs := flag.NewFlagSet("link-customer", flag.ExitOnError)
		org := fs.String("org", "", "Organization name (required)")
		customer := fs.String("customer", "", "Stripe customer ID (required)")
		fs.Parse(os.Args[2:])
		if *org == "" || *customer == "" {
			fmt.Fprintln(os.Stderr, "Error: -org and -customer flags are required")
			fs.Usage()
			os.Exit(1)
		}
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			return linkCustomer(ctx, pool, *org, *customer)
		})

	case "replay":
		fs := flag.NewFlagSet("replay", flag.ExitOnError)
		file := fs.String("f", "", "Path to a Stripe event JSON file (required)")
		fs.Parse(os.Args[2:])
		if *file == "" {
			fmt.Fprintln(os.Stderr, "Error: -f flag is required")
			fs.Usage()
			os.Exit(1)
		}
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			return replay(ctx, pool, cfg.DefaultPriceID, *file)
		})

	case "flag":
		fs := flag.NewFlagSet("flag", flag.ExitOnError)
		name := fs.String("name", "", "Admin flag ID (required)")
		enabled := fs.Bool("enabled", true, "Enable or disable the flag")
		fs.Parse(os.Args[2:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "Error: -name flag is required")
			fs.Usage()
			os.Exit(1)
		}
		err = withPool(ctx, cfg, func(pool *pgxpool.Pool) error {
			if err := core.NewAdminFlagService(pool).SetEnabled(ctx, *name, *enabled); err != nil {
				return err
			}
			fmt.Printf("Flag %q enabled=%t\n", *name, *enabled)
			return nil
		})

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fail("%v", err)
	}
}

func migrate(ctx context.Context, cfg *config.Config, action string) error {
	m, err := db.OpenMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	switch action {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "status":
		return m.Status(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", v)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

func withPool(ctx context.Context, cfg *config.Config, fn func(*pgxpool.Pool) error) error {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(pool)
}

func seed(ctx context.Context, pool *pgxpool.Pool, path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	var res catalog.Result
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		res, err = catalog.Apply(ctx, core.NewProductService(tx), core.NewPriceService(tx), c)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("Catalog applied: %s\n", res)
	return nil
}

func printCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	products, err := core.NewProductService(pool).List(ctx)
	if err != nil {
		return err
	}
	prices := core.NewPriceService(pool)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tPRICE\tAMOUNT\tINTERVAL\tACTIVE")
	for _, p := range products {
		list, err := prices.ListByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, pr := range list {
			fmt.Fprintf(w, "%s\t%s\t%d %s\t%s\t%t\n",
				p.ProductName, deref(pr.PriceID), pr.UnitAmount, pr.Currency, pr.Recurring, p.IsActive && pr.IsActive)
		}
		if len(list) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%t\n", p.ProductName, p.IsActive)
		}
	}
	return w.Flush()
}

func printCustomer(ctx context.Context, pool *pgxpool.Pool, customerID string) error {
	org, err := core.NewOrganizationService(pool).GetByCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("customer %s: %w", customerID, err)
	}
	subs, err := core.NewSubscriptionService(pool, "").ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	fmt.Printf("Customer %s belongs to %s (%s, %s, active=%t)\n", customerID, org.Name, org.ID, org.OrgType, org.IsActive)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSCRIPTION\tSTATUS\tLOCAL ID")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.SubscriptionID, s.Status, s.ID)
	}
	return w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func linkCustomer(ctx context.Context, pool *pgxpool.Pool, orgName, customerID string) error {
	orgs := core.NewOrganizationService(pool)
	org, err := orgs.GetByName(ctx, orgName)
	if err != nil {
		return fmt.Errorf("organization %q: %w", orgName, err)
	}
	if err := orgs.AddStripeCustomer(ctx, org.ID, customerID); err != nil {
		return err
	}
	fmt.Printf("Linked customer %s to organization %s (%s)\n", customerID, org.Name, org.ID)
	return nil
}

// replay applies an event body without checking its signature. Only feed it
// events exported from the Stripe dashboard or the webhook logs.
func replay(ctx context.Context, pool *pgxpool.Pool, defaultPriceID, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}
	ev, err := billing.ParseEvent(payload)
	if err != nil {
		return err
	}
	if !ev.Handled() {
		zerolog.Ctx(ctx).Warn().Str("event_type", ev.Type).Msg("event type is not handled, nothing to do")
		return nil
	}
	if err := billing.NewProcessor(pool, defaultPriceID).Process(ctx, ev); err != nil {
		return fmt.Errorf("replay %s: %w", ev.ID, err)
	}
	fmt.Printf("Replayed %s (%s)\n", ev.ID, ev.Type)
	return nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  billingctl migrate up|down|status|version
  billingctl seed -f <catalog.yaml>
  billingctl catalog
  billingctl customer -id <cus_id>
  billingctl link-customer -org <name> -customer <cus_id>
  billingctl replay -f <event.json>
  billingctl flag -name <flag-id> [-enabled=false]

Commands:
  migrate         Apply, roll back or inspect the schema migrations
  seed            Create or update subscription products and prices from YAML
  catalog         List subscription products and prices
  customer        Show the organization and subscriptions of a Stripe customer
  link-customer   Attach a Stripe customer to an organization
  replay          Apply a saved Stripe event without signature verification
  flag            Enable or disable an admin flag

Environment:
  DATABASE_URL          Postgres connection string (required)
  BILLING_DEFAULT_PRICE_ID  Price attached to subscriptions created by replay
  LOG_LEVEL             zerolog level (default: info)`)
}
