package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	dbm "github.com/cosmos/cosmos-db"
)

var (
	// latestKey stores the height of the most recent snapshot as big-endian u64.
	latestKey = []byte{0x01}

	// snapshotPrefix stores State by height: snapshotPrefix || u64be(height).
	snapshotPrefix = []byte{0x02}
)

func snapshotKey(height int64) []byte {
	bz := make([]byte, 1+8)
	bz[0] = snapshotPrefix[0]
	binary.BigEndian.PutUint64(bz[1:], uint64(height))
	return bz
}

// KeepRecent is the number of snapshots kept, counting the latest. Older
// heights are pruned in the same batch that writes a new one.
const KeepRecent int64 = 2

// Store persists committed State snapshots in a cosmos-db database.
type Store struct {
	db dbm.DB
}

func NewStore(db dbm.DB) *Store {
	if db == nil {
		panic("state store: db is nil")
	}
	return &Store{db: db}
}

// OpenDB opens (or creates) the application database under dir.
func OpenDB(backend, dir string) (dbm.DB, error) {
	if backend == string(dbm.MemDBBackend) {
		return dbm.NewMemDB(), nil
	}
	db, err := dbm.NewDB("lottery", dbm.BackendType(backend), dir)
	if err != nil {
		return nil, fmt.Errorf("open %s db at %s: %w", backend, dir, err)
	}
	return db, nil
}

// Load returns the latest committed state, or NewState if nothing was saved.
func (s *Store) Load() (*State, error) {
	bz, err := s.db.Get(latestKey)
	if err != nil {
		return nil, fmt.Errorf("read latest height: %w", err)
	}
	if bz == nil {
		return NewState(), nil
	}
	if len(bz) != 8 {
		return nil, fmt.Errorf("invalid latest height encoding")
	}
	return s.LoadAt(int64(binary.BigEndian.Uint64(bz)))
}

// LoadAt returns the snapshot committed at height. Only the last KeepRecent
// heights are retained.
func (s *Store) LoadAt(height int64) (*State, error) {
	bz, err := s.db.Get(snapshotKey(height))
	if err != nil {
		return nil, fmt.Errorf("read state at %d: %w", height, err)
	}
	if bz == nil {
		return nil, fmt.Errorf("no state at height %d", height)
	}
	st, err := decode(bz)
	if err != nil {
		return nil, fmt.Errorf("decode state at %d: %w", height, err)
	}
	return st, nil
}

// Save writes st as the snapshot for st.Height, moves the latest pointer and
// prunes snapshots older than KeepRecent in one synced batch.
func (s *Store) Save(st *State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	h := make([]byte, 8)
	binary.BigEndian.PutUint64(h, uint64(st.Height))

	stale, err := s.staleSnapshots(st.Height)
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, k := range stale {
		if err := batch.Delete(k); err != nil {
			return fmt.Errorf("prune state: %w", err)
		}
	}
	if err := batch.Set(snapshotKey(st.Height), b); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := batch.Set(latestKey, h); err != nil {
		return fmt.Errorf("write latest height: %w", err)
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// staleSnapshots lists the snapshot keys below height-KeepRecent+1. The
// iterator is closed before returning; memdb holds a read lock while it is
// open.
func (s *Store) staleSnapshots(height int64) ([][]byte, error) {
	cutoff := height - KeepRecent + 1
	if cutoff <= 0 {
		return nil, nil
	}
	it, err := s.db.Iterator(snapshotKey(0), snapshotKey(cutoff))
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	defer it.Close()

	var keys [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
