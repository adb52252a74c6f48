// Package timescaledb implements history.Store against the `weather`
// hypertable written by remoteweather. That table stores US units only.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/gaugedata/internal/log"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

const tableName = "weather"

// columns maps weewx observation names onto the weather table.
var columns = map[string]string{
	"outTemp":     "outtemp",
	"inTemp":      "intemp",
	"outHumidity": "outhumidity",
	"inHumidity":  "inhumidity",
	"barometer":   "barometer",
	"windSpeed":   "windspeed",
	"windDir":     "winddir",
	"windchill":   "windchill",
	"heatindex":   "heatindex",
	"rain":        "rainincremental",
	"rainRate":    "rainrate",
	"radiation":   "solarwatts",
	"maxSolarRad": "potentialsolarwatts",
}

// Store queries a TimescaleDB weather table, optionally restricted to one
// station name.
type Store struct {
	db      *gorm.DB
	station string
}

type valueRow struct {
	Time  time.Time `gorm:"column:time"`
	Value *float64  `gorm:"column:value"`
}

type windRow struct {
	Time      time.Time `gorm:"column:time"`
	Speed     *float64  `gorm:"column:speed"`
	Direction *float64  `gorm:"column:direction"`
}

// New connects to TimescaleDB. station may be empty to read every row.
func New(ctx context.Context, connectionString, station string) (*Store, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to obtain TimescaleDB handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("unable to reach TimescaleDB: %w", err)
	}

	log.Info("TimescaleDB connection successful")
	return &Store{db: db, station: station}, nil
}

// CreateConnection opens a gorm connection that logs through zap.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) query(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx).Table(tableName)
	if s.station != "" {
		q = q.Where("stationname = ?", s.station)
	}
	return q
}

// RecordNear returns the row nearest ts within ±grace.
func (s *Store) RecordNear(ctx context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error) {
	col, ok := columns[obs]
	if !ok {
		return nil, nil
	}

	var rows []valueRow
	err := s.query(ctx).
		Select("time, "+col+" AS value").
		Where("time BETWEEN ? AND ?", ts.Add(-grace), ts.Add(grace)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "abs(extract(epoch from (time - ?))) ASC, time DESC",
			Vars:               []interface{}{ts},
			WithoutParentheses: true,
		}}).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query record near %v: %w", ts, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	p, _ := types.FromSystem(types.Archive, rows[0].Time, units.US, map[string]*float64{obs: rows[0].Value})
	return &p, nil
}

// Aggregate computes min/max/mintime/maxtime/sum/count over (start, end].
func (s *Store) Aggregate(ctx context.Context, obs string, op types.AggregateOp, start, end time.Time) (*types.AggregateValue, error) {
	col, ok := columns[obs]
	if !ok {
		return nil, nil
	}

	switch op {
	case types.OpMin, types.OpMinTime:
		return s.extreme(ctx, obs, col, "ASC", &start, &end)
	case types.OpMax, types.OpMaxTime:
		return s.extreme(ctx, obs, col, "DESC", &start, &end)
	case types.OpSum:
		var rows []valueRow
		err := s.query(ctx).
			Select("max(time) AS time, sum("+col+") AS value").
			Where("time > ? AND time <= ?", start, end).
			Where(col + " IS NOT NULL").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query %s sum: %w", obs, err)
		}
		if len(rows) == 0 || rows[0].Value == nil {
			return nil, nil
		}
		vt, err := units.ObservationTuple(units.US, obs, rows[0].Value)
		if err != nil {
			return nil, err
		}
		return &types.AggregateValue{Value: vt, Time: end}, nil
	case types.OpCount:
		var n int64
		err := s.query(ctx).
			Where("time > ? AND time <= ?", start, end).
			Where(col + " IS NOT NULL").
			Count(&n).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query %s count: %w", obs, err)
		}
		return &types.AggregateValue{Value: units.New(float64(n), units.Count, units.GroupCount), Time: end}, nil
	default:
		return nil, fmt.Errorf("aggregate %q is not supported by the TimescaleDB store", op)
	}
}

// extreme finds the lowest or highest value. A nil window means all time.
func (s *Store) extreme(ctx context.Context, obs, col, order string, start, end *time.Time) (*types.AggregateValue, error) {
	q := s.query(ctx).
		Select("time, " + col + " AS value").
		Where(col + " IS NOT NULL")
	if start != nil && end != nil {
		q = q.Where("time > ? AND time <= ?", *start, *end)
	}

	var rows []valueRow
	if err := q.Order(col + " " + order).Order("time ASC").Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s extreme: %w", obs, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	vt, err := units.ObservationTuple(units.US, obs, rows[0].Value)
	if err != nil {
		return nil, err
	}
	return &types.AggregateValue{Value: vt, Time: rows[0].Time}, nil
}

// WindSeries returns wind readings in (start, end], oldest first. The
// weather table has no gust direction, so gusts are left empty.
func (s *Store) WindSeries(ctx context.Context, start, end time.Time) ([]types.WindSample, error) {
	var rows []windRow
	err := s.query(ctx).
		Select("time, windspeed AS speed, winddir AS direction").
		Where("time > ? AND time <= ?", start, end).
		Order("time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query wind series: %w", err)
	}

	samples := make([]types.WindSample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, types.WindSample{
			Time:      r.Time,
			SpeedUnit: units.MilePerHr,
			Speed:     r.Speed,
			Direction: r.Direction,
		})
	}
	return samples, nil
}

// AllTimeRange returns the all-time low and high of obs.
func (s *Store) AllTimeRange(ctx context.Context, obs string) (*types.AggregateValue, *types.AggregateValue, error) {
	col, ok := columns[obs]
	if !ok {
		return nil, nil, nil
	}
	low, err := s.extreme(ctx, obs, col, "ASC", nil, nil)
	if err != nil {
		return nil, nil, err
	}
	high, err := s.extreme(ctx, obs, col, "DESC", nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return low, high, nil
}

// LastRain returns the time of the latest row with rain.
func (s *Store) LastRain(ctx context.Context) (*time.Time, error) {
	var rows []struct {
		Last *time.Time `gorm:"column:last"`
	}
	err := s.query(ctx).
		Select("max(time) AS last").
		Where("rainincremental > 0").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query last rain: %w", err)
	}
	if len(rows) == 0 || rows[0].Last == nil {
		return nil, nil
	}
	return rows[0].Last, nil
}
