package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"surveillance-core/internal/minio"
	"surveillance-core/internal/suspicion"
)

const (
	// DefaultSnapshotPrefix is where MinioStore keeps snapshot documents.
	DefaultSnapshotPrefix = "snapshots"
	// DefaultRetain is how many snapshot documents are kept.
	DefaultRetain = 5

	snapshotName = "suspicion-"
)

// MinioStore keeps each snapshot as a JSON object named by save time and
// loads the newest one. Older objects beyond the retain count are removed.
type MinioStore struct {
	objects minio.ObjectStore
	bucket  string
	prefix  string
	retain  int
	now     func() time.Time
}

// NewMinioStore creates a store; an empty prefix uses DefaultSnapshotPrefix.
func NewMinioStore(objects minio.ObjectStore, bucket, prefix string) *MinioStore {
	if prefix == "" {
		prefix = DefaultSnapshotPrefix
	}
	return &MinioStore{objects: objects, bucket: bucket, prefix: prefix, retain: DefaultRetain, now: time.Now}
}

func (s *MinioStore) key(t time.Time) string {
	return path.Join(s.prefix, fmt.Sprintf("%s%020d.json", snapshotName, t.UnixNano()))
}

// keys lists snapshot keys, newest first. Zero-padded names sort by time.
func (s *MinioStore) keys(ctx context.Context) ([]string, error) {
	objects, err := s.objects.ListObjects(ctx, s.bucket, s.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var keys []string
	for _, o := range objects {
		name := path.Base(o.Key)
		if strings.HasPrefix(name, snapshotName) && strings.HasSuffix(name, ".json") {
			keys = append(keys, o.Key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (s *MinioStore) Save(ctx context.Context, snap suspicion.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.objects.PutObject(ctx, s.bucket, s.key(s.now()), data, "application/json"); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) > s.retain {
		for _, k := range keys[s.retain:] {
			if err := s.objects.RemoveObject(ctx, s.bucket, k); err != nil {
				return fmt.Errorf("prune snapshot: %w", err)
			}
		}
	}
	return nil
}

func (s *MinioStore) Load(ctx context.Context) (suspicion.Snapshot, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return suspicion.Snapshot{}, err
	}
	if len(keys) == 0 {
		return suspicion.Snapshot{}, ErrSnapshotNotFound
	}
	data, err := s.objects.GetObject(ctx, s.bucket, keys[0])
	if err != nil {
		return suspicion.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap suspicion.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return suspicion.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", keys[0], err)
	}
	if snap.Version != suspicion.SnapshotVersion {
		return suspicion.Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}

func (s *MinioStore) Close() error { return nil }
