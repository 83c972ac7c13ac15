// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - statistics: A SizeHistogram for tracking data size distribution with minimal memory overhead
//
// This package is particularly useful for:
//   - Database developers implementing the KVDB interface
//   - Monitoring systems that need to track database size and distribution metrics
//
// Each component is designed to work with any implementation of the db.KVDB interface,
// allowing for consistent validation and measurement across different storage backends.
package util
