package store

import (
	"fmt"
	"time"
)

// ProfileSnapshot is a fetched profile document kept for later comparison.
type ProfileSnapshot struct {
	ID        int64
	Name      string
	FetchedAt time.Time
	Units     string
	Body      []byte
}

// Sample is one recorded window progress measurement.
type Sample struct {
	ID        int64
	Domain    string // temp_target, profile_switch
	Label     string
	Mode      string
	Start     time.Time
	Duration  time.Duration
	Ratio     float64
	SampledAt time.Time
}

// SaveProfileSnapshot records a fetched profile document.
func (s *Store) SaveProfileSnapshot(snap ProfileSnapshot) error {
	_, err := s.sql.Exec(
		`INSERT INTO profile_snapshots (name, fetched_at, units, body) VALUES (?, ?, ?, ?)`,
		snap.Name, snap.FetchedAt, snap.Units, string(snap.Body),
	)
	if err != nil {
		return fmt.Errorf("insert profile snapshot: %w", err)
	}
	return nil
}

// LatestProfileSnapshots returns the most recent n snapshots for a profile
// name, newest first. An empty name matches any profile.
func (s *Store) LatestProfileSnapshots(name string, n int) ([]ProfileSnapshot, error) {
	query := `SELECT id, name, fetched_at, units, body FROM profile_snapshots`
	args := []any{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY fetched_at DESC LIMIT ?`
	args = append(args, n)

	rows, err := s.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profile snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []ProfileSnapshot
	for rows.Next() {
		var snap ProfileSnapshot
		var body string
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.FetchedAt, &snap.Units, &body); err != nil {
			return nil, fmt.Errorf("scan profile snapshot: %w", err)
		}
		snap.Body = []byte(body)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile snapshots: %w", err)
	}
	return snaps, nil
}

// SaveSample records a window progress sample.
func (s *Store) SaveSample(sample Sample) error {
	_, err := s.sql.Exec(
		`INSERT INTO progress_samples (domain, label, mode, start_time, duration_ms, ratio, sampled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.Domain, sample.Label, sample.Mode,
		sample.Start, sample.Duration.Milliseconds(), sample.Ratio, sample.SampledAt,
	)
	if err != nil {
		return fmt.Errorf("insert progress sample: %w", err)
	}
	return nil
}

// RecentSamples returns the latest n samples for a domain, newest first.
func (s *Store) RecentSamples(domain string, n int) ([]Sample, error) {
	rows, err := s.sql.Query(
		`SELECT id, domain, label, mode, start_time, duration_ms, ratio, sampled_at
		 FROM progress_samples
		 WHERE domain = ?
		 ORDER BY sampled_at DESC
		 LIMIT ?`,
		domain, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query progress samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []Sample
	for rows.Next() {
		var sample Sample
		var durationMs int64
		if err := rows.Scan(&sample.ID, &sample.Domain, &sample.Label, &sample.Mode,
			&sample.Start, &durationMs, &sample.Ratio, &sample.SampledAt); err != nil {
			return nil, fmt.Errorf("scan progress sample: %w", err)
		}
		sample.Duration = time.Duration(durationMs) * time.Millisecond
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress samples: %w", err)
	}
	return samples, nil
}

// Prune removes samples and profile snapshots older than the cutoff.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res, err := s.sql.Exec(`DELETE FROM progress_samples WHERE sampled_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune progress samples: %w", err)
	}
	pruned, _ := res.RowsAffected()

	res, err = s.sql.Exec(`DELETE FROM profile_snapshots WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return pruned, fmt.Errorf("prune profile snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return pruned + n, nil
}
