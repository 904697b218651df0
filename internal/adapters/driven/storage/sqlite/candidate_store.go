package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/prospector-cli/internal/core/domain"
	"github.com/custodia-labs/prospector-cli/internal/core/ports/driven"
)

// candidateStore implements driven.CandidateStore.
type candidateStore struct {
	store *Store
}

var _ driven.CandidateStore = (*candidateStore)(nil)

// Exists reports whether the external ID is already stored.
func (c *candidateStore) Exists(ctx context.Context, externalID string) (bool, error) {
	var n int
	row := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM candidates WHERE external_id = ?", externalID)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking candidate: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new candidate. The PRIMARY KEY constraint makes the
// uniqueness check atomic with the insert: under concurrent inserts of
// the same external ID exactly one row is stored and every other
// caller gets ErrDuplicateCandidate.
func (c *candidateStore) Insert(ctx context.Context, candidate *domain.Candidate) error {
	if candidate == nil || candidate.ExternalID == "" {
		return domain.ErrInvalidInput
	}

	if candidate.DiscoveredAt.IsZero() {
		candidate.DiscoveredAt = time.Now().UTC()
	}
	if candidate.Decision == "" {
		candidate.Decision = domain.DecisionPending
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO candidates (external_id, owner, repo, description, stars, language,
			default_branch, html_url, readme, feature_vector, similarity, decision,
			reject_reason, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, candidate.ExternalID, candidate.Owner, candidate.Repo,
		nullString(candidate.Description), candidate.Stars, nullString(candidate.Language),
		nullString(candidate.DefaultBranch), nullString(candidate.HTMLURL),
		nullString(candidate.Readme), encodeVector(candidate.FeatureVector),
		candidate.Similarity, candidate.Decision, string(candidate.RejectReason),
		candidate.DiscoveredAt.Format(time.RFC3339))

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCandidate
		}
		return fmt.Errorf("inserting candidate: %w", err)
	}
	return nil
}

// Get retrieves a candidate by external ID.
func (c *candidateStore) Get(ctx context.Context, externalID string) (*domain.Candidate, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT external_id, owner, repo, description, stars, language, default_branch,
			html_url, readme, feature_vector, similarity, decision, reject_reason, discovered_at
		FROM candidates WHERE external_id = ?
	`, externalID)
	return scanCandidate(row.Scan)
}

// UpdateReadme records fetched enrichment content.
func (c *candidateStore) UpdateReadme(ctx context.Context, externalID, readme string) error {
	res, err := c.store.db.ExecContext(ctx,
		"UPDATE candidates SET readme = ? WHERE external_id = ?", readme, externalID)
	if err != nil {
		return fmt.Errorf("updating readme: %w", err)
	}
	return checkFound(res)
}

// RecordDecision persists the scoring outcome and feature vector.
func (c *candidateStore) RecordDecision(ctx context.Context, externalID string,
	vector []float32, similarity float64, decision domain.Decision, reason domain.RejectReason,
) error {
	res, err := c.store.db.ExecContext(ctx, `
		UPDATE candidates SET feature_vector = ?, similarity = ?, decision = ?, reject_reason = ?
		WHERE external_id = ?
	`, encodeVector(vector), similarity, decision, string(reason), externalID)
	if err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return checkFound(res)
}

// AcceptedVectors returns stored feature vectors of accepted candidates.
func (c *candidateStore) AcceptedVectors(ctx context.Context) ([][]float32, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT feature_vector FROM candidates
		WHERE decision = ? AND feature_vector IS NOT NULL
	`, domain.DecisionAccepted)
	if err != nil {
		return nil, fmt.Errorf("querying accepted vectors: %w", err)
	}
	defer rows.Close()

	var vectors [][]float32 //nolint:prealloc // size unknown from query
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if v := decodeVector(blob); v != nil {
			vectors = append(vectors, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return vectors, nil
}

// ListByDecision returns candidates with the given decision, most
// recently discovered first.
func (c *candidateStore) ListByDecision(ctx context.Context, decision domain.Decision, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT external_id, owner, repo, description, stars, language, default_branch,
			html_url, readme, feature_vector, similarity, decision, reject_reason, discovered_at
		FROM candidates WHERE decision = ?
		ORDER BY discovered_at DESC
		LIMIT ?
	`, decision, limit)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		cand, err := scanCandidate(rows.Scan)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return candidates, nil
}

// Stats returns accept/reject counts per reason for reporting.
func (c *candidateStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT decision, reject_reason, COUNT(*) FROM candidates
		GROUP BY decision, reject_reason
	`)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats domain.StoreStats
	for rows.Next() {
		var decision domain.Decision
		var reason domain.RejectReason
		var n int
		if err := rows.Scan(&decision, &reason, &n); err != nil {
			return domain.StoreStats{}, fmt.Errorf("scanning stats: %w", err)
		}
		switch {
		case decision == domain.DecisionAccepted:
			stats.Accepted += n
		case decision == domain.DecisionPending:
			stats.Pending += n
		case reason == domain.RejectDuplicate:
			stats.Duplicates += n
		case reason == domain.RejectFiltered:
			stats.Filtered += n
		case reason == domain.RejectBelowThreshold:
			stats.BelowThreshold += n
		}
	}
	if err := rows.Err(); err != nil {
		return domain.StoreStats{}, fmt.Errorf("iterating stats: %w", err)
	}
	return stats, nil
}

// scanCandidate scans a full candidate row via a Scan function, so it
// works for both *sql.Row and *sql.Rows.
func scanCandidate(scan func(dest ...any) error) (*domain.Candidate, error) {
	var cand domain.Candidate
	var description, language, defaultBranch, htmlURL, readme sql.NullString
	var vector []byte
	var similarity sql.NullFloat64
	var rejectReason string
	var discoveredAt string

	err := scan(&cand.ExternalID, &cand.Owner, &cand.Repo, &description, &cand.Stars,
		&language, &defaultBranch, &htmlURL, &readme, &vector, &similarity,
		&cand.Decision, &rejectReason, &discoveredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning candidate: %w", err)
	}

	cand.Description = description.String
	cand.Language = language.String
	cand.DefaultBranch = defaultBranch.String
	cand.HTMLURL = htmlURL.String
	cand.Readme = readme.String
	cand.FeatureVector = decodeVector(vector)
	cand.Similarity = similarity.Float64
	cand.RejectReason = domain.RejectReason(rejectReason)
	if t, err := time.Parse(time.RFC3339, discoveredAt); err == nil {
		cand.DiscoveredAt = t
	}
	return &cand, nil
}

// encodeVector serialises a float32 vector to a little-endian blob.
// Returns nil for empty vectors so the column stays NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// decodeVector deserialises a little-endian blob back to float32s.
func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// isUniqueViolation detects a UNIQUE/PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// checkFound maps a zero-row UPDATE to ErrNotFound.
func checkFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
