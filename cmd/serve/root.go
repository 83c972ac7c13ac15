package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	cmdUtil "github.com/finchkv/finch/cmd/util"
	"github.com/finchkv/finch/lib/db"
	"github.com/finchkv/finch/lib/db/engines/cedar"
	"github.com/finchkv/finch/lib/logging"
	"github.com/finchkv/finch/lib/store"
	"github.com/finchkv/finch/lib/store/dstore"
	"github.com/finchkv/finch/lib/store/lstore"
	"github.com/finchkv/finch/server"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &server.Config{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the finch server",
		Long:    `Start the finch server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is FINCH_<flag> (e.g. FINCH_ENDPOINT=tcp://0.0.0.0:6380)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "tcp://0.0.0.0:6380", cmdUtil.WrapString("The address on which the server will listen (e.g. tcp://0.0.0.0:6380, unix:///tmp/finch.sock)"))

	key = "store"
	ServeCmd.PersistentFlags().String(key, "local", cmdUtil.WrapString("Store to serve: 'local' for a single-node in-memory store, 'raft' for a RAFT-replicated store"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("Per-connection read/write timeout in seconds (0 disables it)"))

	key = "max-conns"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of simultaneous client connections (0 means unlimited)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for an HTTP endpoint serving Prometheus metrics (e.g. localhost:9100)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "rtt-millisecond"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("(RAFT Mode) RTTMillisecond defines the average Round Trip Time (RTT) in milliseconds between two NodeHost instances. Other raft configuration parameters (ElectionRTT, HeartbeatRTT) are derived from this value"))

	key = "snapshot-entries"
	ServeCmd.PersistentFlags().Int(key, 10000, cmdUtil.WrapString("(RAFT Mode) SnapshotEntries defines how often the state machine should be snapshotted automatically, in terms of applied Raft log entries. 0 disables automatic snapshotting (not recommended)"))

	key = "compaction-overhead"
	ServeCmd.PersistentFlags().Int(key, 5000, cmdUtil.WrapString("(RAFT Mode) CompactionOverhead defines the number of applied entries to keep after a snapshot-triggered log compaction. Recommended value is about 1/2 of SnapshotEntries"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("(RAFT Mode) DataDir is the directory used for storing the write-ahead log and snapshots"))

	key = "replica-id"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("(RAFT Mode) ReplicaID is the unique numeric identifier of this replica (e.g. 1)"))

	key = "cluster-members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(RAFT Mode) ClusterMembers is a comma-separated list of replica addresses in the format '1=localhost:63001,2=localhost:63002,...'"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse the store type
	switch viper.GetString("store") {
	case "local":
		serveCmdConfig.StoreType = server.StoreTypeLocal
	case "raft":
		serveCmdConfig.StoreType = server.StoreTypeRaft
	default:
		return fmt.Errorf("invalid store type: %s (expected local or raft)", viper.GetString("store"))
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MaxConns = viper.GetInt("max-conns")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.RTTMillisecond = viper.GetUint64("rtt-millisecond")
	serveCmdConfig.SnapshotEntries = viper.GetUint64("snapshot-entries")
	serveCmdConfig.CompactionOverhead = viper.GetUint64("compaction-overhead")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.ReplicaID = viper.GetUint64("replica-id")

	if !serveCmdConfig.IsRaft() {
		return nil
	}

	// the remaining parameters are required in raft mode only
	if serveCmdConfig.ReplicaID == 0 {
		return fmt.Errorf("replica-id is required for the raft store")
	}

	clusterMembers := viper.GetString("cluster-members")
	if clusterMembers == "" {
		return fmt.Errorf("cluster-members is required for the raft store")
	}

	serveCmdConfig.ClusterMembers = make(map[uint64]string)
	for _, member := range strings.Split(clusterMembers, ",") {
		parts := strings.Split(member, "=")
		if len(parts) != 2 {
			return fmt.Errorf("invalid cluster member format: %s (expected ID=address)", member)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid replica ID %s: %v", parts[0], err)
		}
		serveCmdConfig.ClusterMembers[id] = strings.TrimSpace(parts[1])
	}

	// test if the replica id is in the cluster members
	if _, ok := serveCmdConfig.ClusterMembers[serveCmdConfig.ReplicaID]; !ok {
		return fmt.Errorf("no address found for replica ID %d in cluster members", serveCmdConfig.ReplicaID)
	}

	return nil
}

// run starts the finch server
func run(_ *cobra.Command, _ []string) error {

	// install the logging facade before anything (including dragonboat) logs
	logging.InitLoggers(serveCmdConfig.LogLevel)

	// Function to create a new database instance
	dbFactory := func() db.KVDB { return cedar.NewCedarDB(nil) }

	// Create the store to serve
	var st store.IStore
	var nodeHost *dragonboat.NodeHost

	if serveCmdConfig.IsRaft() {
		var err error
		nodeHost, err = dragonboat.NewNodeHost(serveCmdConfig.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		defer nodeHost.Close()

		if err := nodeHost.StartConcurrentReplica(
			serveCmdConfig.ClusterMembers,
			false,
			dstore.CreateStateMachineFactory(dbFactory),
			serveCmdConfig.ToDragonboatConfig(),
		); err != nil {
			return fmt.Errorf("failed to start replica: %w", err)
		}

		timeout := time.Duration(serveCmdConfig.TimeoutSecond) * time.Second
		st = dstore.NewDistributedStore(nodeHost, server.ShardID, timeout)
	} else {
		st = lstore.NewLocalStore(dbFactory)
	}
	defer st.Close()

	srv := server.New(*serveCmdConfig, st)

	// stop gracefully on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = srv.Stop()
	}()

	return srv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("finch")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
