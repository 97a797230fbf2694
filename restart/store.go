package restart

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/openospfd/ospfd/origin"
	"github.com/openospfd/ospfd/wire"
)

var (
	bucketLSDB = []byte("lsdb")
	bucketMeta = []byte("meta")

	metaKeyGracePeriod = []byte("grace_period_seconds")
	metaKeyReason      = []byte("restart_reason")
	metaKeyDeadline    = []byte("deadline_unix_nano")
)

// A Store persists the LSDB essentials and the in-progress restart's
// bookkeeping across a process restart, §4.7 ("persists LSDB essentials").
// Only the self-originated LSAs and enough metadata to rebuild a
// RestartingRouter survive; the rest of the LSDB is relearned from
// neighbors during the restart window as usual.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (creating if absent) the bbolt file at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("restart: open store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketLSDB); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restart: init store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// PersistedLSA is one self-originated LSA saved ahead of a restart, enough
// to repopulate the LSDB without waiting on a full re-flood.
type PersistedLSA struct {
	Header wire.LSAHeader
	Raw    []byte
}

// SaveLSDB replaces the persisted LSA set with essentials, keyed by
// identity. Callers pass only the router's own self-originated LSAs: the
// rest of the LSDB is not needed to bridge a hitless restart, since it is
// either unchanged (and the neighbor still holds it) or will be
// re-synchronized regardless.
func (s *Store) SaveLSDB(essentials []PersistedLSA) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLSDB)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		for _, e := range essentials {
			if err := b.Put(identityKey(e.Header.LSA), e.Raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadLSDB returns the persisted self-originated LSAs, keyed by LSA identity,
// each mapped to the raw wire bytes saved in SaveLSDB. The caller re-parses each with the
// appropriate wire.Version before reinstalling into the LSDB.
func (s *Store) LoadLSDB() (map[wire.LSA][]byte, error) {
	out := make(map[wire.LSA][]byte)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLSDB)
		return b.ForEach(func(k, v []byte) error {
			id, err := parseIdentityKey(k)
			if err != nil {
				return err
			}
			out[id] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveRestartState records the grace period, reason, and deadline of an
// in-progress restart, so a crash mid-restart can be distinguished from a
// clean shutdown on the next startup.
func (s *Store) SaveRestartState(gracePeriod time.Duration, reason origin.RestartReason, deadline time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		var secBuf [4]byte
		binary.BigEndian.PutUint32(secBuf[:], uint32(gracePeriod/time.Second))
		if err := b.Put(metaKeyGracePeriod, secBuf[:]); err != nil {
			return err
		}
		if err := b.Put(metaKeyReason, []byte{byte(reason)}); err != nil {
			return err
		}
		var nanoBuf [8]byte
		binary.BigEndian.PutUint64(nanoBuf[:], uint64(deadline.UnixNano()))
		return b.Put(metaKeyDeadline, nanoBuf[:])
	})
}

// LoadRestartState returns the state saved by SaveRestartState, and
// ok=false if none was ever saved (no restart was in progress at the last
// clean shutdown).
func (s *Store) LoadRestartState() (gracePeriod time.Duration, reason origin.RestartReason, deadline time.Time, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		secs := b.Get(metaKeyGracePeriod)
		r := b.Get(metaKeyReason)
		nano := b.Get(metaKeyDeadline)
		if secs == nil || r == nil || nano == nil {
			return nil
		}
		if len(secs) != 4 || len(r) != 1 || len(nano) != 8 {
			return fmt.Errorf("restart: corrupt restart state")
		}
		gracePeriod = time.Duration(binary.BigEndian.Uint32(secs)) * time.Second
		reason = origin.RestartReason(r[0])
		deadline = time.Unix(0, int64(binary.BigEndian.Uint64(nano)))
		ok = true
		return nil
	})
	return
}

// ClearRestartState removes the saved restart bookkeeping, on a clean
// termination of the restart (successful or otherwise).
func (s *Store) ClearRestartState() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		for _, k := range [][]byte{metaKeyGracePeriod, metaKeyReason, metaKeyDeadline} {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// identityKey encodes an LSA identity as a sortable bbolt key: type,
// link-state-id, advertising-router.
func identityKey(id wire.LSA) []byte {
	k := make([]byte, 2+4+4)
	binary.BigEndian.PutUint16(k[0:2], uint16(id.Type))
	copy(k[2:6], id.LinkStateID[:])
	copy(k[6:10], id.AdvertisingRouter[:])
	return k
}

func parseIdentityKey(k []byte) (wire.LSA, error) {
	if len(k) != 10 {
		return wire.LSA{}, fmt.Errorf("restart: corrupt lsdb key")
	}
	var id wire.LSA
	id.Type = wire.LSType(binary.BigEndian.Uint16(k[0:2]))
	copy(id.LinkStateID[:], k[2:6])
	copy(id.AdvertisingRouter[:], k[6:10])
	return id, nil
}
