// Package share implements stored shares: trees persisted by id instead of
// being packed into a link's fragment.
//
// A share keeps the raw markdown plus a separate settings and
// collapsed-ids payload, mirroring what the hosted backend stores. It never
// goes through the fragment codec. Markdown is stored zstd-compressed and
// ids are content-derived, so saving the same tree twice yields one share.
package share

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/ostmd/internal/fragment"
	"github.com/HendryAvila/ostmd/internal/ost"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when no share has the requested id.
var ErrNotFound = errors.New("share: not found")

// idLen is the number of hex characters kept from the content digest.
const idLen = 12

// ─── Types ───────────────────────────────────────────────────────────────────

// Share is one stored tree with its view state.
type Share struct {
	ID           string             `json:"id" yaml:"id"`
	Name         string             `json:"name" yaml:"name"`
	Markdown     string             `json:"markdown" yaml:"markdown"`
	Settings     *fragment.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
	CollapsedIDs []string           `json:"collapsed_ids,omitempty" yaml:"collapsed_ids,omitempty"`
	CardCount    int                `json:"card_count" yaml:"card_count"`
	SaveCount    int                `json:"save_count" yaml:"save_count"`
	CreatedAt    string             `json:"created_at" yaml:"created_at"`
	UpdatedAt    string             `json:"updated_at" yaml:"updated_at"`
}

// Summary is the compact listing view of a share.
type Summary struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	CardCount int    `json:"card_count" yaml:"card_count"`
	Size      int    `json:"size" yaml:"size"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// SaveParams holds the input for storing a tree.
type SaveParams struct {
	Name         string
	Markdown     string
	Settings     *fragment.Settings
	CollapsedIDs []string
}

// UpdateParams holds partial update fields; nil fields are left unchanged.
type UpdateParams struct {
	Name         *string
	Markdown     *string
	Settings     *fragment.Settings
	CollapsedIDs *[]string
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalShares     int `json:"total_shares"`
	MarkdownBytes   int `json:"markdown_bytes"`
	CompressedBytes int `json:"compressed_bytes"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds share store configuration.
type Config struct {
	DataDir   string
	CacheSize int
}

// DefaultConfig returns the default configuration for the share store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:   filepath.Join(home, ".ost"),
		CacheSize: 256,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store persists shares in SQLite.
type Store struct {
	db    *sql.DB
	cache *lru.Cache[string, *Share]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type storeHooks struct {
	exec func(db execer, query string, args ...any) (sql.Result, error)
}

func (s *Store) execHook(query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(s.db, query, args...)
	}
	return s.db.Exec(query, args...)
}

// New opens (or creates) the share database under cfg.DataDir and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("share: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "shares.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("share: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("share: pragma %q: %w", p, err)
		}
	}

	cache, err := lru.New[string, *Share](cfg.CacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("share: create cache: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithZeroFrames(true))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("share: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("share: create zstd decoder: %w", err)
	}

	s := &Store{db: db, cache: cache, enc: enc, dec: dec}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("share: migration: %w", err)
	}
	return s, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.execHook(`
		CREATE TABLE IF NOT EXISTS shares (
			id            TEXT    PRIMARY KEY,
			content_id    TEXT    NOT NULL DEFAULT '',
			name          TEXT    NOT NULL DEFAULT '',
			markdown      BLOB    NOT NULL,
			markdown_size INTEGER NOT NULL DEFAULT 0,
			settings      TEXT,
			collapsed     TEXT,
			card_count    INTEGER NOT NULL DEFAULT 0,
			save_count    INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT    NOT NULL DEFAULT (datetime('now'))
		);
	`); err != nil {
		return err
	}

	var n int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('shares') WHERE name = 'content_id'`,
	).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.execHook(`ALTER TABLE shares ADD COLUMN content_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
		if err := s.backfillContentIDs(); err != nil {
			return err
		}
	}

	_, err := s.execHook(`
		CREATE INDEX IF NOT EXISTS idx_shares_updated ON shares(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_shares_content ON shares(content_id);
	`)
	return err
}

// backfillContentIDs hashes the current content of every row. Rows may have
// been updated since they were saved, so the id alone is not their content id.
func (s *Store) backfillContentIDs() error {
	rows, err := s.db.Query(`SELECT id FROM shares`)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		sh, err := s.load(id)
		if err != nil {
			return err
		}
		cid := ContentID(SaveParams{
			Name:         sh.Name,
			Markdown:     sh.Markdown,
			Settings:     sh.Settings,
			CollapsedIDs: sh.CollapsedIDs,
		})
		if _, err := s.execHook(`UPDATE shares SET content_id = ? WHERE id = ?`, cid, id); err != nil {
			return err
		}
	}
	return nil
}

// ─── Operations ──────────────────────────────────────────────────────────────

// Save stores a tree and returns its share. Saving content identical to a
// stored share returns that share with its save count bumped. The id is
// derived from the content; when that id already belongs to a share whose
// content was later changed by Update, a fresh id is picked instead.
func (s *Store) Save(p SaveParams) (*Share, error) {
	cid := ContentID(p)

	existing, err := s.findByContent(cid)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		if _, err := s.execHook(
			`UPDATE shares SET save_count = save_count + 1, updated_at = datetime('now') WHERE id = ?`,
			existing,
		); err != nil {
			return nil, fmt.Errorf("share: save %s: %w", existing, err)
		}
		s.cache.Remove(existing)
		return s.Get(existing)
	}

	id, err := s.freeID(cid)
	if err != nil {
		return nil, err
	}
	row, err := s.encodeRow(p.Name, p.Markdown, p.Settings, p.CollapsedIDs)
	if err != nil {
		return nil, err
	}
	if _, err := s.execHook(
		`INSERT INTO shares (id, content_id, name, markdown, markdown_size, settings, collapsed, card_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cid, p.Name, row.markdown, len(p.Markdown), row.settings, row.collapsed, row.cardCount,
	); err != nil {
		return nil, fmt.Errorf("share: save %s: %w", id, err)
	}

	s.cache.Remove(id)
	return s.Get(id)
}

// Get loads a share by id.
func (s *Store) Get(id string) (*Share, error) {
	if sh, ok := s.cache.Get(id); ok {
		return sh.clone(), nil
	}
	sh, err := s.load(id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, sh)
	return sh.clone(), nil
}

// Update applies partial changes to an existing share. The id is kept so
// links handed out earlier keep working.
func (s *Store) Update(id string, p UpdateParams) (*Share, error) {
	cur, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.Markdown != nil {
		cur.Markdown = *p.Markdown
	}
	if p.Settings != nil {
		cur.Settings = p.Settings
	}
	if p.CollapsedIDs != nil {
		cur.CollapsedIDs = *p.CollapsedIDs
	}

	row, err := s.encodeRow(cur.Name, cur.Markdown, cur.Settings, cur.CollapsedIDs)
	if err != nil {
		return nil, err
	}
	cid := ContentID(SaveParams{
		Name:         cur.Name,
		Markdown:     cur.Markdown,
		Settings:     cur.Settings,
		CollapsedIDs: cur.CollapsedIDs,
	})
	if _, err := s.execHook(
		`UPDATE shares
		 SET content_id = ?, name = ?, markdown = ?, markdown_size = ?, settings = ?, collapsed = ?,
		     card_count = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		cid, cur.Name, row.markdown, len(cur.Markdown), row.settings, row.collapsed, row.cardCount, id,
	); err != nil {
		return nil, fmt.Errorf("share: update %s: %w", id, err)
	}

	s.cache.Remove(id)
	return s.Get(id)
}

// Delete removes a share.
func (s *Store) Delete(id string) error {
	res, err := s.execHook(`DELETE FROM shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("share: delete %s: %w", id, err)
	}
	s.cache.Remove(id)
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns the most recently updated shares first.
func (s *Store) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, name, card_count, markdown_size, updated_at
		 FROM shares
		 ORDER BY datetime(updated_at) DESC, id
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("share: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.CardCount, &sm.Size, &sm.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, sm)
	}
	return results, rows.Err()
}

// Stats returns aggregate counts over all shares.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(markdown_size), 0), COALESCE(SUM(length(markdown)), 0) FROM shares`,
	).Scan(&st.TotalShares, &st.MarkdownBytes, &st.CompressedBytes)
	if err != nil {
		return nil, fmt.Errorf("share: stats: %w", err)
	}
	return &st, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// ContentID derives the share id for p from a BLAKE3 digest of its content.
// Nil and zero settings hash the same, as both are stored as unset.
func ContentID(p SaveParams) string {
	st := p.Settings
	if st != nil && st.IsZero() {
		st = nil
	}
	settings, _ := json.Marshal(st)
	h := blake3.New(32, nil)
	for _, part := range []string{p.Name, p.Markdown, string(settings), strings.Join(p.CollapsedIDs, "\x00")} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:idLen]
}

// findByContent returns the oldest share whose current content hashes to
// cid, or "" when there is none.
func (s *Store) findByContent(cid string) (string, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM shares WHERE content_id = ? ORDER BY created_at, id LIMIT 1`, cid,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("share: lookup %s: %w", cid, err)
	}
	return id, nil
}

// freeID returns cid when no share holds it, otherwise the first unused id
// derived from cid and a counter.
func (s *Store) freeID(cid string) (string, error) {
	candidate := cid
	for n := 1; ; n++ {
		var taken int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM shares WHERE id = ?`, candidate).Scan(&taken); err != nil {
			return "", fmt.Errorf("share: check id %s: %w", candidate, err)
		}
		if taken == 0 {
			return candidate, nil
		}
		h := blake3.Sum256([]byte(cid + "\x00" + strconv.Itoa(n)))
		candidate = hex.EncodeToString(h[:])[:idLen]
	}
}

type encodedRow struct {
	markdown  []byte
	settings  *string
	collapsed *string
	cardCount int
}

func (s *Store) encodeRow(name, markdown string, settings *fragment.Settings, collapsed []string) (encodedRow, error) {
	row := encodedRow{
		markdown:  s.enc.EncodeAll([]byte(markdown), make([]byte, 0, len(markdown)/2+16)),
		cardCount: ost.Parse(markdown).Len(),
	}
	if settings != nil && !settings.IsZero() {
		data, err := json.Marshal(settings)
		if err != nil {
			return row, fmt.Errorf("share: marshal settings: %w", err)
		}
		v := string(data)
		row.settings = &v
	}
	if len(collapsed) > 0 {
		data, err := json.Marshal(collapsed)
		if err != nil {
			return row, fmt.Errorf("share: marshal collapsed ids: %w", err)
		}
		v := string(data)
		row.collapsed = &v
	}
	return row, nil
}

func (s *Store) load(id string) (*Share, error) {
	var (
		sh        Share
		blob      []byte
		settings  sql.NullString
		collapsed sql.NullString
	)
	err := s.db.QueryRow(
		`SELECT id, name, markdown, settings, collapsed, card_count, save_count, created_at, updated_at
		 FROM shares WHERE id = ?`, id,
	).Scan(&sh.ID, &sh.Name, &blob, &settings, &collapsed, &sh.CardCount, &sh.SaveCount, &sh.CreatedAt, &sh.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("share: load %s: %w", id, err)
	}

	if len(blob) > 0 {
		md, err := s.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("share: decompress %s: %w", id, err)
		}
		sh.Markdown = string(md)
	}

	if settings.Valid {
		var st fragment.Settings
		if err := json.Unmarshal([]byte(settings.String), &st); err != nil {
			return nil, fmt.Errorf("share: parse settings for %s: %w", id, err)
		}
		sh.Settings = &st
	}
	if collapsed.Valid {
		if err := json.Unmarshal([]byte(collapsed.String), &sh.CollapsedIDs); err != nil {
			return nil, fmt.Errorf("share: parse collapsed ids for %s: %w", id, err)
		}
	}
	return &sh, nil
}

func (sh *Share) clone() *Share {
	c := *sh
	if sh.Settings != nil {
		st := *sh.Settings
		c.Settings = &st
	}
	if sh.CollapsedIDs != nil {
		c.CollapsedIDs = append([]string(nil), sh.CollapsedIDs...)
	}
	return &c
}

// Tree parses the share's markdown.
func (sh *Share) Tree() *ost.Tree {
	t := ost.Parse(sh.Markdown)
	if sh.Name != "" {
		t.Name = sh.Name
	}
	return t
}

// Fragment packs the share into a fragment token for zero-backend links.
func (sh *Share) Fragment() (string, error) {
	return fragment.Encode(sh.Markdown,
		fragment.WithName(sh.Name),
		fragment.WithSettings(sh.Settings),
		fragment.WithCollapsed(sh.CollapsedIDs),
	)
}
