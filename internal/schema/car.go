package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/go-viper/mapstructure/v2"
	"github.com/jackc/pgx/v5/pgtype"
)

// CarsTable holds one row per scraped car listing.
const CarsTable core.Table = "cars"

// Columns of CarsTable.
const (
	ColID           core.Column = "id"
	ColCompanyName  core.Column = "company_name"
	ColURL          core.Column = "url"
	ColBrand        core.Column = "brand"
	ColModel        core.Column = "model"
	ColYear         core.Column = "year"
	ColPrice        core.Column = "price"
	ColCity         core.Column = "city"
	ColVolume       core.Column = "volume"
	ColVolumeType   core.Column = "volume_type"
	ColMileage      core.Column = "mileage"
	ColTransmission core.Column = "transmission"
	ColCustomKZ     core.Column = "custom_kz"
	ColAttributes   core.Column = "attributes"
	ColCreateDate   core.Column = core.DefaultCreatedColumn
	ColUpdateDate   core.Column = core.DefaultUpdatedColumn
)

// CarColumns is the full column allowlist of CarsTable.
var CarColumns = []core.Column{
	ColID, ColCompanyName, ColURL, ColBrand, ColModel, ColYear, ColPrice,
	ColCity, ColVolume, ColVolumeType, ColMileage, ColTransmission,
	ColCustomKZ, ColAttributes, ColCreateDate, ColUpdateDate,
}

// CarFieldSpecs defines the writable columns of CarsTable and how text
// input for each is accepted.
var CarFieldSpecs = []FieldSpec{
	{Name: ColCompanyName, Type: FieldText},
	{Name: ColURL, Type: FieldText, Required: true},
	{Name: ColBrand, Type: FieldText, Required: true, Normalizer: NormalizeBrand},
	{Name: ColModel, Type: FieldText, Required: true},
	{Name: ColYear, Type: FieldInt},
	{Name: ColPrice, Type: FieldInt},
	{Name: ColCity, Type: FieldText, Normalizer: NormalizeCity},
	{Name: ColVolume, Type: FieldNumeric},
	{Name: ColVolumeType, Type: FieldEnum, EnumValues: []string{"бензин", "дизель", "газ", "гибрид", "электричество"}},
	{Name: ColMileage, Type: FieldNumeric},
	{Name: ColTransmission, Type: FieldNumeric, Normalizer: NormalizeTransmission},
	{Name: ColCustomKZ, Type: FieldBool},
}

// Car is one listing. Attributes holds source-specific extras stored as jsonb.
type Car struct {
	ID           int64          `db:"id" json:"id,omitempty"`
	CompanyName  string         `db:"company_name" json:"company_name"`
	URL          string         `db:"url" json:"url"`
	Brand        string         `db:"brand" json:"brand"`
	Model        string         `db:"model" json:"model"`
	Year         int            `db:"year" json:"year"`
	Price        int64          `db:"price" json:"price"`
	City         string         `db:"city" json:"city"`
	Volume       float64        `db:"volume" json:"volume"`
	VolumeType   string         `db:"volume_type" json:"volume_type"`
	Mileage      float64        `db:"mileage" json:"mileage"`
	Transmission float64        `db:"transmission" json:"transmission"`
	CustomKZ     bool           `db:"custom_kz" json:"custom_kz"`
	Attributes   map[string]any `db:"attributes" json:"attributes,omitempty"`
	CreateDate   time.Time      `db:"create_date" json:"create_date,omitzero"`
	UpdateDate   time.Time      `db:"update_date" json:"update_date,omitzero"`
}

// Fields returns the insertable columns of c in table order.
// Server-assigned columns (id and timestamps) are omitted.
func (c Car) Fields() []core.Field {
	fields := []core.Field{
		core.F(ColCompanyName, c.CompanyName),
		core.F(ColURL, c.URL),
		core.F(ColBrand, c.Brand),
		core.F(ColModel, c.Model),
		core.F(ColYear, c.Year),
		core.F(ColPrice, c.Price),
		core.F(ColCity, c.City),
		core.F(ColVolume, c.Volume),
		core.F(ColVolumeType, c.VolumeType),
		core.F(ColMileage, c.Mileage),
		core.F(ColTransmission, c.Transmission),
		core.F(ColCustomKZ, c.CustomKZ),
	}
	if c.Attributes != nil {
		fields = append(fields, core.F(ColAttributes, c.Attributes))
	}
	return fields
}

// CarFromRow decodes a result row into a Car. Columns not present in the
// row keep their zero value.
func CarFromRow(row core.Row) (Car, error) {
	return decodeCar(row.Map())
}

// CarsFromRows decodes every row, stopping at the first failure.
func CarsFromRows(rows []core.Row) ([]Car, error) {
	cars := make([]Car, 0, len(rows))
	for i, row := range rows {
		c, err := CarFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		cars = append(cars, c)
	}
	return cars, nil
}

// ParseCar builds a Car from text input keyed by column name.
func ParseCar(input map[string]string) (Car, error) {
	fields, err := ParseFields(input, CarFieldSpecs, true)
	if err != nil {
		return Car{}, err
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[string(f.Column)] = f.Value
	}
	return decodeCar(m)
}

// ParseChanges validates a partial update keyed by column name.
func ParseChanges(input map[string]string) ([]core.Field, error) {
	return ParseFields(input, CarFieldSpecs, false)
}

func decodeCar(m map[string]any) (Car, error) {
	var c Car
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(numericHook),
		Result:           &c,
	})
	if err != nil {
		return Car{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Car{}, fmt.Errorf("decode car: %w", err)
	}
	return c, nil
}

// numericHook unwraps pgtype.Numeric, which pgx returns for numeric columns.
func numericHook(from, to reflect.Type, data any) (any, error) {
	n, ok := data.(pgtype.Numeric)
	if !ok {
		return data, nil
	}
	f, err := n.Float64Value()
	if err != nil {
		return nil, err
	}
	if !f.Valid {
		return nil, nil
	}
	return f.Float64, nil
}
