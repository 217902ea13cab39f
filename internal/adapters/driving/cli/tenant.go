package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calder-labs/mirador/internal/adapters/driven/storage/sqlite"
)

var (
	tenantEmail  string
	tenantSource string
	tenantConfig map[string]string
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision a new tenant",
	Long: `Provisions a tenant: derives its namespace from the email,
creates the vector namespace and stores the source configuration.`,
	RunE: runTenantAdd,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE:  runTenantList,
}

func init() {
	tenantAddCmd.Flags().StringVar(&tenantEmail, "email", "", "tenant email (required)")
	tenantAddCmd.Flags().StringVar(&tenantSource, "source", "",
		"source type: googledrive, github or filesystem (required)")
	tenantAddCmd.Flags().StringToStringVar(&tenantConfig, "set", nil,
		"source setting as key=value (repeatable)")
	_ = tenantAddCmd.MarkFlagRequired("email")
	_ = tenantAddCmd.MarkFlagRequired("source")

	tenantCmd.AddCommand(tenantAddCmd)
	tenantCmd.AddCommand(tenantListCmd)
	rootCmd.AddCommand(tenantCmd)
}

func runTenantAdd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	tenant, err := app.registry.Provision(ctx, tenantEmail, tenantSource, tenantConfig)
	if err != nil {
		return fmt.Errorf("provisioning tenant: %w", err)
	}

	cmd.Printf("Tenant created.\n")
	cmd.Printf("  ID:        %s\n", tenant.ID)
	cmd.Printf("  Email:     %s\n", tenant.Email)
	cmd.Printf("  Namespace: %s\n", tenant.Namespace)
	cmd.Printf("  Source:    %s\n", tenant.ListerType)
	return nil
}

// runTenantList only needs the metadata store, so it skips the vector
// and embedding wiring and works without a DSN or API key.
func runTenantList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	tenants, err := store.TenantStore().List(ctx)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}
	if len(tenants) == 0 {
		cmd.Println("No tenants configured.")
		return nil
	}

	for i := range tenants {
		t := &tenants[i]
		cmd.Printf("%s  %-30s %-12s %s\n", t.ID, t.Email, t.ListerType, t.Namespace)
	}
	return nil
}
