package sink

import (
	"sort"
	"strings"
	"time"
)

// OverflowPolicy decides what Enqueue does when the bounded queue is full.
// Dropping the oldest buffered record favors freshness under overload;
// blocking the producer favors zero data loss. This is a deployment choice,
// configured explicitly, never an implicit default.
type OverflowPolicy string

const (
	OverflowBlock      OverflowPolicy = "block"
	OverflowDropOldest OverflowPolicy = "drop_oldest"
)

type Config struct {
	QueueCapacity        int            `mapstructure:"queue_capacity"`
	BatchSize            int            `mapstructure:"batch_size"`
	FlushInterval        time.Duration  `mapstructure:"flush_interval"`
	OverflowPolicy       OverflowPolicy `mapstructure:"overflow_policy"`
	MaxDependencyRetries int            `mapstructure:"max_dependency_retries"`
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 10000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 200
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.OverflowPolicy == "" {
		c.OverflowPolicy = OverflowDropOldest
	}
	if c.MaxDependencyRetries <= 0 {
		c.MaxDependencyRetries = 3
	}
	return c
}

const finalFlushTimeout = 10 * time.Second

// retryKey identifies a dependency-retry attempt by the actual set of missing
// parent ids. Keying by a batch-representative id would conflate unrelated
// batches once requeues reshuffle the queue.
func retryKey(missing []string) string {
	sorted := make([]string, len(missing))
	copy(sorted, missing)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func missingIDs(ids []string, existing map[string]struct{}) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
