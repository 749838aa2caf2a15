// Package catalog holds the named car-listing lookups used by the HTTP
// server and the CLI.
//
// Every operation is a fixed call into the data-access layer: the table and
// columns are constants, and caller-supplied text only ever travels as a
// statement argument. Errors are the core's domain kinds, unchanged.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/JonMunkholm/carbot/internal/schema"
)

// DefaultOffersLimit caps offer lists when the caller passes no limit.
const DefaultOffersLimit = 5

// Store runs statements against the database. *core.Executor satisfies it.
type Store interface {
	Insert(ctx context.Context, t core.Table, fields ...core.Field) (core.Row, error)
	SelectAll(ctx context.Context, t core.Table, opts core.SelectOptions) ([]core.Row, error)
	SelectOne(ctx context.Context, t core.Table, opts core.SelectOptions, where ...core.Field) (core.Row, error)
	SelectWhere(ctx context.Context, t core.Table, opts core.SelectOptions, where ...core.Field) ([]core.Row, error)
	Update(ctx context.Context, t core.Table, where, set []core.Field) error
	Query(ctx context.Context, sql string, args ...any) ([]core.Row, error)
}

var _ Store = (*core.Executor)(nil)

// Options configures a Service.
type Options struct {
	// Distinct collapses duplicate values in value lists.
	Distinct bool

	// Timeout bounds each call. Zero means the caller's context alone.
	Timeout time.Duration

	// OffersLimit is used when an offers call passes limit <= 0.
	OffersLimit int
}

// Service implements the catalog lookups over a Store.
type Service struct {
	store Store
	opts  Options
	now   func() time.Time
}

// NewService creates a Service.
func NewService(store Store, opts Options) *Service {
	if opts.OffersLimit <= 0 {
		opts.OffersLimit = DefaultOffersLimit
	}
	return &Service{store: store, opts: opts, now: time.Now}
}

// Distinct lists the values of col across all cars.
// An empty table yields an empty list.
func (s *Service) Distinct(ctx context.Context, col core.Column) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.SelectAll(ctx, schema.CarsTable, s.projection(col))
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

// ValuesWhere lists the values of col on cars whose filter column equals value.
// No match yields core.ErrNotFound.
func (s *Service) ValuesWhere(ctx context.Context, col, filter core.Column, value string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.SelectWhere(ctx, schema.CarsTable, s.projection(col), core.F(filter, filterValue(filter, value)))
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

// Brands lists every brand.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	return s.Distinct(ctx, schema.ColBrand)
}

// BrandsByBrand lists the brand column of cars with the given brand.
// It answers "do we have this brand" and fails with core.ErrNotFound otherwise.
func (s *Service) BrandsByBrand(ctx context.Context, brand string) ([]string, error) {
	return s.ValuesWhere(ctx, schema.ColBrand, schema.ColBrand, brand)
}

// ModelsByBrand lists the models offered for brand.
func (s *Service) ModelsByBrand(ctx context.Context, brand string) ([]string, error) {
	return s.ValuesWhere(ctx, schema.ColModel, schema.ColBrand, brand)
}

// Cities lists every city with at least one offer.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	return s.Distinct(ctx, schema.ColCity)
}

// OffersByBrand returns up to limit full listings for brand.
func (s *Service) OffersByBrand(ctx context.Context, brand string, limit int) ([]schema.Car, error) {
	return s.offers(ctx, limit, core.F(schema.ColBrand, filterValue(schema.ColBrand, brand)))
}

// OffersByCity returns up to limit full listings in city.
func (s *Service) OffersByCity(ctx context.Context, city string, limit int) ([]schema.Car, error) {
	return s.offers(ctx, limit, core.F(schema.ColCity, filterValue(schema.ColCity, city)))
}

// Offers returns up to limit listings matching every non-empty filter.
func (s *Service) Offers(ctx context.Context, brand, city string, limit int) ([]schema.Car, error) {
	var where []core.Field
	if b := filterValue(schema.ColBrand, brand); b != "" {
		where = append(where, core.F(schema.ColBrand, b))
	}
	if c := filterValue(schema.ColCity, city); c != "" {
		where = append(where, core.F(schema.ColCity, c))
	}
	return s.offers(ctx, limit, where...)
}

// Offer returns the listing at url.
func (s *Service) Offer(ctx context.Context, url string) (schema.Car, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := s.store.SelectOne(ctx, schema.CarsTable, core.SelectOptions{}, core.F(schema.ColURL, clean(url)))
	if err != nil {
		return schema.Car{}, err
	}
	car, err := schema.CarFromRow(row)
	if err != nil {
		return schema.Car{}, s.decodeFailed(ctx, core.ErrNotFound, err)
	}
	return car, nil
}

// AddCar stores car and returns it as stored, with id and timestamps.
func (s *Service) AddCar(ctx context.Context, car schema.Car) (schema.Car, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := s.store.Insert(ctx, schema.CarsTable, car.Fields()...)
	if err != nil {
		return schema.Car{}, err
	}
	stored, err := schema.CarFromRow(row)
	if err != nil {
		return schema.Car{}, s.decodeFailed(ctx, core.ErrInsertFailed, err)
	}
	return stored, nil
}

// UpdateCar applies changes to the listing at url and stamps update_date.
// Changes that touch nothing but timestamps are a successful no-op.
func (s *Service) UpdateCar(ctx context.Context, url string, changes []core.Field) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set := make([]core.Field, 0, len(changes)+1)
	for _, f := range changes {
		if f.Column != schema.ColUpdateDate {
			set = append(set, f)
		}
	}
	set = append(set, core.F(schema.ColUpdateDate, s.now().UTC()))

	return s.store.Update(ctx, schema.CarsTable, []core.Field{core.F(schema.ColURL, clean(url))}, set)
}

// Query runs caller-supplied read SQL. It exists for operator tooling.
func (s *Service) Query(ctx context.Context, sql string, args ...any) ([]core.Row, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Query(ctx, sql, args...)
}

func (s *Service) offers(ctx context.Context, limit int, where ...core.Field) ([]schema.Car, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = s.opts.OffersLimit
	}

	var (
		rows []core.Row
		err  error
		opts = core.SelectOptions{Limit: limit}
	)
	if len(where) == 0 {
		rows, err = s.store.SelectAll(ctx, schema.CarsTable, opts)
	} else {
		rows, err = s.store.SelectWhere(ctx, schema.CarsTable, opts, where...)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	cars, err := schema.CarsFromRows(rows)
	if err != nil {
		return nil, s.decodeFailed(ctx, core.ErrQueryError, err)
	}
	return cars, nil
}

func (s *Service) projection(col core.Column) core.SelectOptions {
	return core.SelectOptions{Columns: []core.Column{col}, Distinct: s.opts.Distinct}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// decodeFailed logs a row that could not be mapped to a Car and returns kind.
func (s *Service) decodeFailed(ctx context.Context, kind error, err error) error {
	logging.FromContext(ctx).Error(core.KindOf(kind),
		"op", "decode_car",
		"error_kind", core.ErrorKind(err),
		"error", err.Error(),
	)
	return kind
}

// firstColumn returns the first value of every row as text.
func firstColumn(rows []core.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		values := r.Values()
		if len(values) == 0 || values[0] == nil {
			continue
		}
		if s, ok := values[0].(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(values[0]))
	}
	return out
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

// filterValue prepares a lookup value for col. Text columns that are
// normalized on write get the same normalizer here, so a spelling accepted
// by ParseCar finds the row it stored.
func filterValue(col core.Column, value string) string {
	value = clean(value)
	if value == "" {
		return ""
	}
	for _, spec := range schema.CarFieldSpecs {
		if spec.Name == col && spec.Type == schema.FieldText && spec.Normalizer != nil {
			return spec.Normalizer(value)
		}
	}
	return value
}
