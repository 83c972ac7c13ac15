package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/finchkv/finch/lib/db"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTSet         CommandType = iota // Insert or update an entry, clearing any deadline.
	CommandTSetX                           // Insert or update an entry with an expiry deadline.
	CommandTSetXIfUnset                    // Insert an entry if it does not hold a live value.
	CommandTExpire                         // Attach or overwrite the deadline of a live entry.
	CommandTDelete                         // Delete an entry.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTSet:
		return "Set"
	case CommandTSetX:
		return "SetX"
	case CommandTSetXIfUnset:
		return "SetXIfUnset"
	case CommandTExpire:
		return "Expire"
	case CommandTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the corresponding db.Feature.
// This can be used for checking if the database supports a certain operation.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTSet:
		return db.FeatureSet, nil
	case CommandTSetX:
		return db.FeatureSetX, nil
	case CommandTSetXIfUnset:
		return db.FeatureSetXIfUnset, nil
	case CommandTExpire:
		return db.FeatureExpire, nil
	case CommandTDelete:
		return db.FeatureDelete, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// Command represents a command to be executed by the state machine (a single entry in the raft log).
// ExpiresAt is an absolute wall-clock deadline in unix nanoseconds, computed by
// the proposing node so that every replica stores the identical timestamp.
type Command struct {
	Type      CommandType
	Key       string
	ExpiresAt int64
	Value     []byte
}

// headerSize is the fixed-size prefix of a serialized command:
// Type (1) + ExpiresAt (8) + KeyLen (4)
const headerSize = 13

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	size := headerSize + len(command.Key)
	if command.Value != nil {
		size += len(command.Value)
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 8 bytes for expiresAt (int64, big endian),
// 4 bytes for key length (big endian),
// N bytes for key data,
// N bytes for value data (optional)
func (command *Command) Serialize() []byte {
	// Use SizeBytes to calculate the total size needed
	totalSize := command.SizeBytes()

	result := make([]byte, totalSize)

	// Set operation type
	result[0] = byte(command.Type)

	// Set expiresAt
	binary.BigEndian.PutUint64(result[1:9], uint64(command.ExpiresAt))

	// Set key length (4 bytes, big endian)
	binary.BigEndian.PutUint32(result[9:13], uint32(len(command.Key)))

	// Copy key bytes
	keyBytes := []byte(command.Key)
	copy(result[headerSize:headerSize+len(keyBytes)], keyBytes)

	// Copy value if present
	if command.Value != nil {
		copy(result[headerSize+len(keyBytes):], command.Value)
	}

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	// Extract operation type
	command.Type = CommandType(data[0])

	// Extract expiresAt
	command.ExpiresAt = int64(binary.BigEndian.Uint64(data[1:9]))

	// Extract key length
	keyLen := binary.BigEndian.Uint32(data[9:13])

	// Validate key length
	if len(data) < headerSize+int(keyLen) {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}

	// Extract key
	command.Key = string(data[headerSize : headerSize+keyLen])

	// Extract value if present
	if len(data) > headerSize+int(keyLen) {
		valueLen := len(data) - (headerSize + int(keyLen))
		// Reuse existing buffer if possible to reduce allocations
		if command.Value == nil || cap(command.Value) < valueLen {
			command.Value = make([]byte, valueLen)
		} else {
			command.Value = command.Value[:valueLen]
		}
		copy(command.Value, data[headerSize+int(keyLen):])
	} else {
		command.Value = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Result outcome payload
// --------------------------------------------------------------------------

// AppliedResult encodes the boolean outcome of a write command for transport
// in a statemachine result payload.
func AppliedResult(applied bool) []byte {
	if applied {
		return []byte{1}
	}
	return []byte{0}
}

// WasApplied decodes an outcome payload produced by AppliedResult.
func WasApplied(data []byte) bool {
	return len(data) == 1 && data[0] == 1
}
