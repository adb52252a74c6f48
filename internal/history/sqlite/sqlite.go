// Package sqlite implements history.Store on top of a weewx-style SQLite
// archive database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chrissnell/gaugedata/internal/log"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"

	_ "modernc.org/sqlite"
)

const defaultTable = "archive"

// Store reads archive records from an SQLite database. Each record carries
// its unit system in the usUnits column, so records written under different
// unit systems can coexist.
type Store struct {
	db      *sql.DB
	dbPath  string
	table   string
	columns map[string]bool
}

// New opens the archive database at dbPath and discovers the archive
// table's columns.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
		table:  defaultTable,
	}

	if err := s.loadColumns(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("opened SQLite archive %s (%d columns)", dbPath, len(s.columns))
	return s, nil
}

func (s *Store) loadColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.table))
	if err != nil {
		return fmt.Errorf("failed to read %s schema: %w", s.table, err)
	}
	defer rows.Close()

	s.columns = make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("failed to scan %s schema: %w", s.table, err)
		}
		s.columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !s.columns["dateTime"] || !s.columns["usUnits"] {
		return fmt.Errorf("table %s is not a weewx archive table (missing dateTime/usUnits)", s.table)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// column returns obs as a quoted column name. Observation names are only
// ever interpolated into SQL after being checked against the schema.
func (s *Store) column(obs string) (string, bool) {
	if !s.columns[obs] {
		return "", false
	}
	return `"` + obs + `"`, true
}

// RecordNear returns the record nearest ts within ±grace carrying obs.
func (s *Store) RecordNear(ctx context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error) {
	col, ok := s.column(obs)
	if !ok {
		return nil, nil
	}

	target := ts.Unix()
	g := int64(grace / time.Second)
	query := fmt.Sprintf(`
		SELECT dateTime, usUnits, %s
		FROM %s
		WHERE dateTime >= ? AND dateTime <= ?
		ORDER BY ABS(dateTime - ?) ASC, dateTime DESC
		LIMIT 1`, col, s.table)

	var (
		dateTime int64
		usUnits  int
		value    sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, query, target-g, target+g, target).Scan(&dateTime, &usUnits, &value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record near %d: %w", target, err)
	}

	system, err := units.ParseSystem(usUnits)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", dateTime, err)
	}

	p, _ := types.FromSystem(types.Archive, time.Unix(dateTime, 0), system, map[string]*float64{obs: nullable(value)})
	return &p, nil
}

// Aggregate computes a scalar aggregate of obs over (start, end].
func (s *Store) Aggregate(ctx context.Context, obs string, op types.AggregateOp, start, end time.Time) (*types.AggregateValue, error) {
	col, ok := s.column(obs)
	if !ok {
		return nil, nil
	}

	switch op {
	case types.OpMin, types.OpMinTime:
		return s.extreme(ctx, obs, col, "ASC", start.Unix(), end.Unix())
	case types.OpMax, types.OpMaxTime:
		return s.extreme(ctx, obs, col, "DESC", start.Unix(), end.Unix())
	case types.OpSum:
		return s.sum(ctx, obs, col, start.Unix(), end.Unix(), end)
	case types.OpCount:
		return s.count(ctx, obs, col, start.Unix(), end.Unix(), end)
	default:
		return nil, fmt.Errorf("aggregate %q is not supported by the SQLite store", op)
	}
}

// extreme finds the lowest (ASC) or highest (DESC) value of obs. Values
// are only comparable within one unit system, so the extreme is taken per
// usUnits and the candidates are compared after conversion.
func (s *Store) extreme(ctx context.Context, obs, col, order string, start, end int64) (*types.AggregateValue, error) {
	where := ""
	args := []interface{}{}
	if start != 0 || end != 0 {
		where = "AND dateTime > ? AND dateTime <= ?"
		args = append(args, start, end)
	}

	systems, err := s.unitSystems(ctx, col, where, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s unit systems: %w", obs, err)
	}

	// Ties go to the earliest record, which is when the extreme was first reached.
	query := fmt.Sprintf(`
		SELECT dateTime, %[1]s
		FROM %[2]s
		WHERE %[1]s IS NOT NULL AND usUnits = ? %[3]s
		ORDER BY %[1]s %[4]s, dateTime ASC
		LIMIT 1`, col, s.table, where, order)

	var best *types.AggregateValue
	for _, usUnits := range systems {
		var (
			dateTime int64
			value    float64
		)
		err := s.db.QueryRowContext(ctx, query, append([]interface{}{usUnits}, args...)...).Scan(&dateTime, &value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s extreme: %w", obs, err)
		}

		vt, err := tuple(usUnits, obs, &value)
		if err != nil {
			return nil, err
		}
		cand := &types.AggregateValue{Value: vt, Time: time.Unix(dateTime, 0)}
		if best == nil {
			best = cand
			continue
		}
		better, err := beats(cand, best, order == "ASC")
		if err != nil {
			return nil, err
		}
		if better {
			best = cand
		}
	}
	return best, nil
}

func (s *Store) unitSystems(ctx context.Context, col, where string, args []interface{}) ([]int, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT usUnits
		FROM %s
		WHERE %s IS NOT NULL %s
		ORDER BY usUnits`, s.table, col, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var systems []int
	for rows.Next() {
		var u int
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		systems = append(systems, u)
	}
	return systems, rows.Err()
}

// beats reports whether cand is a lower (or higher) extreme than best,
// comparing in best's unit. Equal values go to the earlier record.
func beats(cand, best *types.AggregateValue, lower bool) (bool, error) {
	v, err := units.Convert(*cand.Value.Value, cand.Value.Unit, best.Value.Unit)
	if err != nil {
		return false, err
	}
	cur := *best.Value.Value
	if v == cur {
		return cand.Time.Before(best.Time), nil
	}
	if lower {
		return v < cur, nil
	}
	return v > cur, nil
}

func (s *Store) sum(ctx context.Context, obs, col string, start, end int64, endTime time.Time) (*types.AggregateValue, error) {
	query := fmt.Sprintf(`
		SELECT usUnits, SUM(%[1]s), COUNT(%[1]s)
		FROM %[2]s
		WHERE dateTime > ? AND dateTime <= ?
		GROUP BY usUnits
		ORDER BY usUnits`, col, s.table)

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s sum: %w", obs, err)
	}
	defer rows.Close()

	var total *units.ValueTuple
	for rows.Next() {
		var (
			usUnits int
			sum     sql.NullFloat64
			count   int64
		)
		if err := rows.Scan(&usUnits, &sum, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s sum: %w", obs, err)
		}
		if count == 0 || !sum.Valid {
			continue
		}
		vt, err := tuple(usUnits, obs, &sum.Float64)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = &vt
			continue
		}
		// Records written under a different unit system are folded into
		// the unit of the first group.
		conv, err := units.Convert(sum.Float64, vt.Unit, total.Unit)
		if err != nil {
			return nil, err
		}
		*total.Value += conv
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if total == nil {
		return nil, nil
	}
	return &types.AggregateValue{Value: *total, Time: endTime}, nil
}

func (s *Store) count(ctx context.Context, obs, col string, start, end int64, endTime time.Time) (*types.AggregateValue, error) {
	query := fmt.Sprintf(`SELECT COUNT(%s) FROM %s WHERE dateTime > ? AND dateTime <= ?`, col, s.table)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, start, end).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to query %s count: %w", obs, err)
	}
	return &types.AggregateValue{Value: units.New(float64(n), units.Count, units.GroupCount), Time: endTime}, nil
}

// WindSeries returns wind readings in (start, end], oldest first. Gust
// columns are optional in the archive schema.
func (s *Store) WindSeries(ctx context.Context, start, end time.Time) ([]types.WindSample, error) {
	if !s.columns["windSpeed"] || !s.columns["windDir"] {
		return nil, nil
	}

	gust, gustDir := "NULL", "NULL"
	if s.columns["windGust"] {
		gust = `"windGust"`
	}
	if s.columns["windGustDir"] {
		gustDir = `"windGustDir"`
	}

	query := fmt.Sprintf(`
		SELECT dateTime, usUnits, "windSpeed", "windDir", %s, %s
		FROM %s
		WHERE dateTime > ? AND dateTime <= ?
		ORDER BY dateTime ASC`, gust, gustDir, s.table)

	rows, err := s.db.QueryContext(ctx, query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query wind series: %w", err)
	}
	defer rows.Close()

	var samples []types.WindSample
	for rows.Next() {
		var (
			dateTime                        int64
			usUnits                         int
			speed, dir, gustSpeed, gustDirV sql.NullFloat64
		)
		if err := rows.Scan(&dateTime, &usUnits, &speed, &dir, &gustSpeed, &gustDirV); err != nil {
			return nil, fmt.Errorf("failed to scan wind sample: %w", err)
		}
		system, err := units.ParseSystem(usUnits)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", dateTime, err)
		}
		speedUnit, _ := units.SystemUnit(system, units.GroupSpeed)
		samples = append(samples, types.WindSample{
			Time:          time.Unix(dateTime, 0),
			SpeedUnit:     speedUnit,
			Speed:         nullable(speed),
			Direction:     nullable(dir),
			Gust:          nullable(gustSpeed),
			GustDirection: nullable(gustDirV),
		})
	}
	return samples, rows.Err()
}

// AllTimeRange returns the all-time low and high of obs.
func (s *Store) AllTimeRange(ctx context.Context, obs string) (*types.AggregateValue, *types.AggregateValue, error) {
	col, ok := s.column(obs)
	if !ok {
		return nil, nil, nil
	}
	low, err := s.extreme(ctx, obs, col, "ASC", 0, 0)
	if err != nil {
		return nil, nil, err
	}
	high, err := s.extreme(ctx, obs, col, "DESC", 0, 0)
	if err != nil {
		return nil, nil, err
	}
	return low, high, nil
}

// LastRain returns the timestamp of the latest record with rain > 0.
func (s *Store) LastRain(ctx context.Context) (*time.Time, error) {
	if !s.columns["rain"] {
		return nil, nil
	}

	var ts sql.NullInt64
	query := fmt.Sprintf(`SELECT MAX(dateTime) FROM %s WHERE "rain" > 0`, s.table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		return nil, fmt.Errorf("failed to query last rain: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	t := time.Unix(ts.Int64, 0)
	return &t, nil
}

func tuple(usUnits int, obs string, v *float64) (units.ValueTuple, error) {
	system, err := units.ParseSystem(usUnits)
	if err != nil {
		return units.ValueTuple{}, err
	}
	return units.ObservationTuple(system, obs, v)
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
