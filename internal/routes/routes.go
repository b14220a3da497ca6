// Package routes loads per-switch unicast forwarding tables into an
// in-memory store keyed by switch identifier. Tables are built once per
// subnet and never mutated afterwards.
package routes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
)

var (
	fileRE = regexp.MustCompile(`^ibroute-[0-9a-fA-F:]{19}-(\d+)\.txt$`)

	// Header line identifying the switch that owns the table.
	headerRE = regexp.MustCompile(`^Unicast lids.*guid\s+0x([0-9a-f]{16}).*:`)

	// Entry line: destination lid, egress port, destination port guid.
	entryRE = regexp.MustCompile(`^0x([0-9a-f]+)\s+(\d+)\s+:\s+\((Channel Adapter|Switch)\s+portguid 0x([0-9a-f]{16}):`)
)

// Table maps a destination host's canonical identifier to the egress
// port forwarding traffic toward it.
type Table map[string]int

// Store holds the forwarding tables of one subnet's switches, keyed by
// switch canonical identifier.
type Store struct {
	logger *zap.Logger
	tables map[string]Table
}

// NewStore creates an empty route store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logger,
		tables: make(map[string]Table),
	}
}

// Len returns the number of switches with a loaded table.
func (s *Store) Len() int {
	return len(s.tables)
}

// Table returns the forwarding table of the given switch.
func (s *Store) Table(switchID string) (Table, bool) {
	t, ok := s.tables[switchID]
	return t, ok
}

// Port returns the egress port that switchID uses to forward traffic
// toward destID. The second return is false when either the switch has
// no table or the table has no entry for the destination.
func (s *Store) Port(switchID, destID string) (int, bool) {
	t, ok := s.tables[switchID]
	if !ok {
		return 0, false
	}
	port, ok := t[destID]
	return port, ok
}

// LoadDir reads every route dump in dir. A dump that cannot be opened
// is fatal; a malformed dump is logged and abandoned without aborting
// the remaining files.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read route directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !fileRE.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open route file: %w", err)
		}
		loadErr := s.Load(f, entry.Name())
		f.Close()
		if loadErr != nil {
			return fmt.Errorf("read %s: %w", path, loadErr)
		}
	}
	return nil
}

// Load reads one switch's route dump. The header names the owning
// switch; entries before any header mean the dump is malformed and the
// rest of it is skipped.
func (s *Store) Load(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var table Table
	for scanner.Scan() {
		line := scanner.Text()

		if m := headerRE.FindStringSubmatch(line); m != nil {
			id, err := models.CanonicalID(m[1])
			if err != nil {
				s.logger.Warn("bad switch guid in route header",
					zap.String("file", name), zap.Error(err))
				continue
			}
			existing, ok := s.tables[id]
			if !ok {
				existing = make(Table)
				s.tables[id] = existing
			}
			table = existing
			continue
		}

		if m := entryRE.FindStringSubmatch(line); m != nil {
			if table == nil {
				s.logger.Warn("malformed route file: entry before header",
					zap.String("file", name))
				break
			}
			port, _ := strconv.Atoi(m[2])
			destID, err := models.CanonicalID(m[4])
			if err != nil {
				s.logger.Warn("bad destination guid in route entry",
					zap.String("file", name), zap.Error(err))
				continue
			}
			table[destID] = port
		}
	}
	return scanner.Err()
}
