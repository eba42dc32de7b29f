package mbtiles

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MBTiles is a writable mbtiles archive holding gzipped pbf tiles.
type MBTiles struct {
	db             *sql.DB
	tileInsertStmt *sql.Stmt
}

// Create opens (and if needed initializes) the mbtiles archive at given
// path and writes its base metadata.
func Create(mbTilesPath string, name string, description string) (*MBTiles, error) {
	db, err := sql.Open("sqlite", mbTilesPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		PRAGMA application_id = 0x4d504258;
		CREATE TABLE IF NOT EXISTS metadata (name text, value text);
		CREATE TABLE IF NOT EXISTS tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);
		CREATE UNIQUE INDEX IF NOT EXISTS tile_index on tiles (zoom_level, tile_column, tile_row);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	tileInsertStmt, err := db.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?);")
	if err != nil {
		db.Close()
		return nil, err
	}

	mbTiles := &MBTiles{db: db, tileInsertStmt: tileInsertStmt}

	err = mbTiles.InsertMeta([][2]string{
		{"name", name},
		{"description", description},
		{"format", "pbf"},
	})
	if err != nil {
		mbTiles.Close()
		return nil, err
	}

	return mbTiles, nil
}

// Close releases the db file
func (m *MBTiles) Close() error {
	if err := m.tileInsertStmt.Close(); err != nil {
		return err
	}
	return m.db.Close()
}

// InsertTile inserts tile data at (z, x, y). The row is given in XYZ
// order and flipped to the TMS scheme mbtiles uses.
func (m *MBTiles) InsertTile(z, x, y int, tileData []byte) error {
	row := (1 << uint(z)) - 1 - y
	_, err := m.tileInsertStmt.Exec(z, x, row, tileData)
	return err
}

// InsertMeta sets metadata entries
func (m *MBTiles) InsertMeta(entries [][2]string) error {
	values := make([]string, len(entries))
	args := make([]interface{}, 0, 2*len(entries))

	for i, entry := range entries {
		values[i] = "(?, ?)"
		args = append(args, entry[0], entry[1])
	}

	_, err := m.db.Exec(fmt.Sprintf("INSERT OR REPLACE INTO metadata (name, value) VALUES %s;", strings.Join(values, ", ")), args...)
	return err
}
