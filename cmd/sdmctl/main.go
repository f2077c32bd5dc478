package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lwm2m-go/sdm/pkg/config"
	"github.com/lwm2m-go/sdm/pkg/dispatch"
	"github.com/lwm2m-go/sdm/pkg/log"
	"github.com/lwm2m-go/sdm/pkg/sdm"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sdmctl",
	Short: "sdmctl drives an LwM2M server data model engine by hand",
	Long: `sdmctl builds a Registry from a YAML fixture and runs Read,
Write, Create, Delete, Execute, Discover, and Register operations
against it from the command line, without a real CoAP transport.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("sdmctl version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("fixture", "", "Path to a Fixture YAML document describing the registry to load")
	rootCmd.PersistentFlags().String("config", "", "Path to an EngineConfig YAML document (defaults applied if omitted)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(notifyTickCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// session bundles everything a subcommand needs to act against a
// freshly loaded registry: the registry itself, its observation
// table, and a Bridge wired to this CLI's jsonEntry codec.
type session struct {
	cfg      config.EngineConfig
	registry *sdm.Registry
	table    *sdm.ObservationTable
	bridge   *dispatch.Bridge
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	fixturePath, _ := cmd.Flags().GetString("fixture")

	cfg := config.DefaultEngineConfig()
	if cfgPath != "" {
		loaded, err := config.LoadEngineConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var fx config.Fixture
	if fixturePath != "" {
		loaded, err := config.LoadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		fx = loaded
	}

	reg, err := config.BuildRegistry(fx, cfg)
	if err != nil {
		return nil, err
	}

	table := sdm.NewObservationTable(cfg.ObservationCapacity)
	bridge := dispatch.NewBridge(reg, table, dispatch.CodecFactory{
		NewOutput: newJSONOutputCodec,
		NewInput:  newJSONInputCodec,
	})
	bridge.BlockSize = cfg.DefaultBlockSize

	return &session{cfg: cfg, registry: reg, table: table, bridge: bridge}, nil
}

func printResponse(resp dispatch.ResponseEnvelope) error {
	fmt.Fprintf(os.Stdout, "%d.%02d\n", resp.Code.Class(), resp.Code.Detail())
	if len(resp.Payload) > 0 {
		os.Stdout.Write(resp.Payload)
		if resp.Payload[len(resp.Payload)-1] != '\n' {
			fmt.Fprintln(os.Stdout)
		}
	}
	if resp.Code.Class() != 2 {
		return fmt.Errorf("operation failed with code %d.%02d", resp.Code.Class(), resp.Code.Detail())
	}
	return nil
}

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read a Root/Object/Instance/Resource path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		isBootstrap, _ := cmd.Flags().GetBool("bootstrap")
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{Op: sdm.OpRead, Path: path, IsBootstrap: isBootstrap})
		return printResponse(resp)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover <path>",
	Short: "Discover attachable links under a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		bootstrap, _ := cmd.Flags().GetBool("bootstrap")
		op := sdm.OpDiscover
		if bootstrap {
			op = sdm.OpBootstrapDiscover
		}
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{Op: op, Path: path})
		return printResponse(resp)
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <path> <json-entries-file>",
	Short: "Write a JSON array of {path,type,value} entries under path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		body, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		update, _ := cmd.Flags().GetBool("update")
		isBootstrap, _ := cmd.Flags().GetBool("bootstrap")
		op := sdm.OpWriteReplace
		if update {
			op = sdm.OpWriteUpdate
		}
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{
			Op: op, Path: path, Body: body, IsBootstrap: isBootstrap,
			Block1: &dispatch.BlockOption{More: false},
		})
		return printResponse(resp)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <oid-path> <json-entries-file>",
	Short: "Create a new Instance under an Object path from a JSON entries file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		body, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{
			Op: sdm.OpCreate, Path: path, Body: body,
			Block1: &dispatch.BlockOption{More: false},
		})
		return printResponse(resp)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete an Instance (or, under --bootstrap, wider scopes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		isBootstrap, _ := cmd.Flags().GetBool("bootstrap")
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{Op: sdm.OpDelete, Path: path, IsBootstrap: isBootstrap})
		return printResponse(resp)
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <path> [arg]",
	Short: "Execute an Executable resource",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		var arg []byte
		if len(args) == 2 {
			arg = []byte(args[1])
		}
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{Op: sdm.OpExecute, Path: path, ExecuteArg: arg})
		return printResponse(resp)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Enumerate the Object/Version list a REGISTER message would carry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		regID := uuid.NewString()
		fmt.Fprintf(os.Stderr, "registration-id: %s\n", regID)
		resp := s.bridge.Dispatch(dispatch.RequestEnvelope{Op: sdm.OpRegister, Path: sdm.RootPath()})
		return printResponse(resp)
	},
}

var observeCmd = &cobra.Command{
	Use:   "observe <path>",
	Short: "Register an observation on a single-instance Resource and print its token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		pmin, _ := cmd.Flags().GetDuration("pmin")
		pmax, _ := cmd.Flags().GetDuration("pmax")

		token := []byte(uuid.NewString())
		if _, err := sdm.Observe(s.registry, s.table, path, token, time.Now()); err != nil {
			return err
		}
		var attrs sdm.Attributes
		if pmin > 0 {
			attrs.PMin = &pmin
		}
		if pmax > 0 {
			attrs.PMax = &pmax
		}
		if attrs.PMin != nil || attrs.PMax != nil {
			if err := sdm.WriteAttributes(s.registry, s.table, path, attrs); err != nil {
				return err
			}
		}
		fmt.Printf("token: %x\n", token)
		return nil
	},
}

var notifyTickCmd = &cobra.Command{
	Use:   "notify-tick",
	Short: "Advance the notification clock once and print any notifications emitted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := sdm.NotificationTick(s.registry, s.table, now); err != nil {
			return err
		}
		for {
			n, ok, err := sdm.NotificationEmit(s.registry, s.table, now)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			fmt.Printf("%s seq=%d token=%x value=%v\n", n.Path.String(), n.Seq, n.Token, renderValue(n.Value))
		}
	},
}

func init() {
	readCmd.Flags().Bool("bootstrap", false, "Use bootstrap read semantics")
	discoverCmd.Flags().Bool("bootstrap", false, "Use Bootstrap-Discover semantics")
	writeCmd.Flags().Bool("update", false, "Use Write-Update instead of Write-Replace semantics")
	writeCmd.Flags().Bool("bootstrap", false, "Use bootstrap write semantics")
	deleteCmd.Flags().Bool("bootstrap", false, "Use Bootstrap-Delete semantics")
	observeCmd.Flags().Duration("pmin", 0, "Minimum notification period")
	observeCmd.Flags().Duration("pmax", 0, "Maximum notification period")
}
