package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// LogStorage owns every partition's directory under one root, keyed by
// "<topic>-<partition>". A single RWMutex guards the partition map
// itself; each Partition guards its own segments independently, so
// concurrent appends to different partitions never contend on this lock
// beyond the map lookup.
type LogStorage struct {
	mu sync.RWMutex

	root       string
	config     Config
	partitions map[string]*Partition
	topics     map[string]int
}

// NewLogStorage opens the storage root, recovering any partitions found
// on disk.
func NewLogStorage(root string, c Config) (*LogStorage, error) {
	ls := &LogStorage{
		root:       root,
		config:     c.withDefaults(),
		partitions: map[string]*Partition{},
		topics:     map[string]int{},
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	if err := ls.loadFromRoot(); err != nil {
		return nil, err
	}
	return ls, nil
}

func partitionKey(topic string, partition uint32) string {
	return fmt.Sprintf("%s-%d", topic, partition)
}

func (ls *LogStorage) loadFromRoot() error {
	entries, err := os.ReadDir(ls.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		topic, partitionNum, ok := splitPartitionDir(entry.Name())
		if !ok {
			continue
		}
		p, err := NewPartition(filepath.Join(ls.root, entry.Name()), ls.config)
		if err != nil {
			return err
		}
		ls.partitions[partitionKey(topic, partitionNum)] = p
		if n, ok := ls.topics[topic]; !ok || int(partitionNum)+1 > n {
			ls.topics[topic] = int(partitionNum) + 1
		}
	}
	return nil
}

// splitPartitionDir parses a "<topic>-<partition>" directory name,
// allowing topic names that themselves contain hyphens by requiring the
// final segment to parse as a partition number.
func splitPartitionDir(name string) (topic string, partition uint32, ok bool) {
	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(name[idx+1:], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return name[:idx], uint32(n), true
}

// InitTopic creates numPartitions empty partitions for topic. It is
// idempotent: if topic already exists, it succeeds as a no-op without
// touching the existing partitions' data. numPartitions must be
// positive regardless.
func (ls *LogStorage) InitTopic(topic string, numPartitions int) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if numPartitions <= 0 {
		return &InvalidAdminCommandError{Reason: "partition count must be positive"}
	}
	if _, exists := ls.topics[topic]; exists {
		return nil
	}

	for i := 0; i < numPartitions; i++ {
		dir := filepath.Join(ls.root, partitionKey(topic, uint32(i)))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		p, err := NewPartition(dir, ls.config)
		if err != nil {
			return err
		}
		ls.partitions[partitionKey(topic, uint32(i))] = p
	}
	ls.topics[topic] = numPartitions
	return nil
}

// ListTopics reports every known topic and its partition count.
func (ls *LogStorage) ListTopics() map[string]int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make(map[string]int, len(ls.topics))
	for t, n := range ls.topics {
		out[t] = n
	}
	return out
}

func (ls *LogStorage) partition(topic string, partition uint32) (*Partition, error) {
	ls.mu.RLock()
	p, ok := ls.partitions[partitionKey(topic, partition)]
	ls.mu.RUnlock()
	if !ok {
		return nil, &PartitionNotFoundError{Topic: topic, Partition: partition}
	}
	return p, nil
}

// AppendPartition appends one record to the named partition.
func (ls *LogStorage) AppendPartition(topic string, partition uint32, value, key []byte, timestamp int64, headers map[string][]byte) (uint64, error) {
	p, err := ls.partition(topic, partition)
	if err != nil {
		return 0, err
	}
	return p.Append(value, key, timestamp, headers)
}

// ListLogs fetches records from the named partition starting at
// startOffset, within maxBytes.
func (ls *LogStorage) ListLogs(topic string, partition uint32, startOffset uint64, maxBytes int) ([]protocol.RecordFields, error) {
	p, err := ls.partition(topic, partition)
	if err != nil {
		return nil, err
	}
	return p.Fetch(startOffset, maxBytes)
}

// LogEndOffset reports a partition's log-end offset.
func (ls *LogStorage) LogEndOffset(topic string, partition uint32) (uint64, error) {
	p, err := ls.partition(topic, partition)
	if err != nil {
		return 0, err
	}
	return p.LogEndOffset(), nil
}

// Close closes every partition's open files.
func (ls *LogStorage) Close() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, p := range ls.partitions {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}
