package cedar

import (
	"testing"

	"github.com/finchkv/finch/lib/db"
	dbtesting "github.com/finchkv/finch/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "CedarDB", func() db.KVDB {
		return NewCedarDB(nil)
	})
}

func Benchmark(t *testing.B) {
	dbtesting.RunKVDBBenchmarks(t, "CedarDB", func() db.KVDB {
		return NewCedarDB(nil)
	})
}
