package main

import (
	"fmt"

	"github.com/lwm2m-go/sdm/pkg/config"
	"github.com/spf13/cobra"
)

// loadCmd mirrors the teacher's "apply" verb: read a YAML document
// (here a Fixture, not a WarrenResource) and materialize the state it
// describes, reporting what was built instead of leaving it running.
// Every other subcommand loads the same --fixture flag itself and
// discards the registry when it exits; load exists to validate a
// fixture file on its own, the way `warren apply --dry-run` would.
var loadCmd = &cobra.Command{
	Use:   "load <fixture.yaml>",
	Short: "Validate a Fixture document and print the Objects/Instances it builds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg := config.DefaultEngineConfig()
		if cfgPath != "" {
			loaded, err := config.LoadEngineConfig(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}

		fx, err := config.LoadFixture(args[0])
		if err != nil {
			return err
		}
		reg, err := config.BuildRegistry(fx, cfg)
		if err != nil {
			return err
		}

		for _, obj := range reg.Objects() {
			fmt.Printf("object %d (version %s): %d instance(s)\n", obj.OID, obj.Version, len(obj.Instances))
			for _, inst := range obj.Instances {
				fmt.Printf("  instance %d: %d resource(s)\n", inst.IID, len(inst.Resources))
			}
		}
		return nil
	},
}
