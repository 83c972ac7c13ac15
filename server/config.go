package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lni/dragonboat/v4/config"
)

// --------------------------------------------------------------------------
// helper functions to interface with Dragonboat (for the serve command)
// --------------------------------------------------------------------------

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ShardID is the raft shard the replicated store runs on. The server hosts
// exactly one keyspace, so one fixed shard is enough.
const ShardID uint64 = 100

// ToDragonboatConfig converts the Config to a Dragonboat replica Config
func (c *Config) ToDragonboatConfig() config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            ShardID,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
		MaxInMemLogSize:    0,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *Config) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         c.DataDir,
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// StoreType selects the store implementation the server runs on.
type StoreType string

const (
	// StoreTypeLocal serves a single-node in-process store.
	StoreTypeLocal StoreType = "local"
	// StoreTypeRaft serves a store replicated via RAFT consensus.
	StoreTypeRaft StoreType = "raft"
)

// Config holds all configuration parameters for the server.
type Config struct {
	// Endpoint the server listens on (tcp://host:port, unix:///path or host:port)
	Endpoint string

	// Store selection
	StoreType StoreType

	// Dragonboat parameters (raft store only)
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// Connection handling
	TimeoutSecond int64
	MaxConns      int

	// Optional HTTP endpoint serving Prometheus metrics ("" disables it)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// IsRaft reports whether the configuration runs the replicated store.
func (c *Config) IsRaft() bool {
	return c.StoreType == StoreTypeRaft
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Server settings
	addSection("Server")
	addField("Endpoint", c.Endpoint)
	addField("Store Type", string(c.StoreType))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.MaxConns > 0 {
		addField("Max Connections", strconv.Itoa(c.MaxConns))
	} else {
		addField("Max Connections", "unlimited")
	}
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	if c.IsRaft() {
		// Node Identity
		addSection("Node Identity")
		addField("RAFT Address", c.ClusterMembers[c.ReplicaID])
		addField("Replica ID", strconv.FormatUint(c.ReplicaID, 10))

		// RAFT parameters
		addSection("RAFT Parameters")
		addField("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		addField("Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		addField("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		addField("Check Quorum", fmt.Sprintf("%t", true))
		addField("Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		addField("Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))

		// Storage
		addSection("Storage")
		addField("Data Directory", c.DataDir)

		// Cluster members
		addSection("Cluster")
		sb.WriteString("  Initial Cluster Members:\n")

		// Sort keys for consistent output
		var keys []uint64
		for k := range c.ClusterMembers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    Replica %d: %s\n", k, c.ClusterMembers[k]))
		}
	}
	return sb.String()
}
