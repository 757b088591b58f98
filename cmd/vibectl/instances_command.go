package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vibe-transcode-service/pkg/registry"
)

func newInstancesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List service instances registered in etcd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if len(cfg.ServiceRegistry.Endpoints) == 0 {
				return fmt.Errorf("service_registry.endpoints is not configured")
			}
			discovery, err := registry.NewServiceDiscovery(cfg.ServiceRegistry)
			if err != nil {
				return err
			}
			defer discovery.Close()

			lookupCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			instances, err := discovery.ListInstances(lookupCtx, cfg.ServiceRegistry.ServiceName)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, instances)
			}
			rows := make([][]string, 0, len(instances))
			for _, inst := range instances {
				rows = append(rows, []string{inst.ID, inst.HTTPAddr, orDash(inst.GRPCAddr), inst.RegisteredAt.Local().Format(time.DateTime)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "HTTP", "gRPC", "Registered"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}
