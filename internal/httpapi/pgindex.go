package httpapi

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// playerIndex is an optional secondary index over player names, backed by
// Postgres. The JSONL data lake is the system of record; this index exists
// purely to canonicalize player-name spelling variants (whitespace, case,
// punctuation) across events faster than re-deriving it from every request.
// handlePlayers and handleArchetypes route every placement/list through it
// before grouping or joining on player name. It is entirely config-gated:
// with no DSN configured, lookups fall back to the raw name with surrounding
// whitespace trimmed and inner runs of whitespace collapsed; case is kept.
type playerIndex struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

func newPlayerIndex(ctx context.Context, dsn string, logger *zap.SugaredLogger) (*playerIndex, error) {
	idx := &playerIndex{log: logger}
	if dsn == "" {
		return idx, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_aliases (
			raw_name TEXT PRIMARY KEY,
			canonical_name TEXT NOT NULL
		)`); err != nil {
		pool.Close()
		return nil, err
	}
	idx.pool = pool
	return idx, nil
}

// Canonicalize resolves a raw player name to its canonical spelling,
// recording the mapping the first time it's seen so later lookups of the
// same variant are O(1). Falls back to a trimmed, space-collapsed form of
// the input when no secondary index is configured.
func (idx *playerIndex) Canonicalize(ctx context.Context, rawName string) string {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(rawName)), " ")
	if idx.pool == nil {
		return normalized
	}

	var canonical string
	err := idx.pool.QueryRow(ctx, `SELECT canonical_name FROM player_aliases WHERE raw_name = $1`, rawName).Scan(&canonical)
	if err == nil {
		return canonical
	}

	if _, execErr := idx.pool.Exec(ctx,
		`INSERT INTO player_aliases (raw_name, canonical_name) VALUES ($1, $2) ON CONFLICT (raw_name) DO NOTHING`,
		rawName, normalized); execErr != nil && idx.log != nil {
		idx.log.Debugw("player alias insert failed", "name", rawName, "error", execErr)
	}
	return normalized
}

// canonicalizePlacements rewrites each placement's PlayerName to its
// canonical spelling, looking each distinct raw name up at most once
// regardless of how many placements share it. The analytics package then
// groups on whatever name it's handed, so this is the one place player-name
// canonicalization actually happens before results reach /api/analytics/*.
func (idx *playerIndex) canonicalizePlacements(ctx context.Context, placements []models.Placement) []models.Placement {
	out := make([]models.Placement, len(placements))
	copy(out, placements)

	seen := make(map[string]string, len(out))
	for i, p := range out {
		canonical, ok := seen[p.PlayerName]
		if !ok {
			canonical = idx.Canonicalize(ctx, p.PlayerName)
			seen[p.PlayerName] = canonical
		}
		out[i].PlayerName = canonical
	}
	return out
}

// canonicalizeArmyLists rewrites each list's PlayerName the same way
// canonicalizePlacements does, so the two line up when JoinListsToPlacements
// falls back to matching on player name rather than list id.
func (idx *playerIndex) canonicalizeArmyLists(ctx context.Context, lists []models.ArmyList) []models.ArmyList {
	out := make([]models.ArmyList, len(lists))
	copy(out, lists)

	seen := make(map[string]string, len(out))
	for i, l := range out {
		canonical, ok := seen[l.PlayerName]
		if !ok {
			canonical = idx.Canonicalize(ctx, l.PlayerName)
			seen[l.PlayerName] = canonical
		}
		out[i].PlayerName = canonical
	}
	return out
}

func (idx *playerIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}

func (idx *playerIndex) healthy(ctx context.Context) bool {
	if idx.pool == nil {
		return true
	}
	return idx.pool.Ping(ctx) == nil
}
