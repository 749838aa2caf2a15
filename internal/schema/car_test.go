package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestCar_Fields(t *testing.T) {
	c := Car{
		ID:         7,
		URL:        "https://kolesa.kz/a/1",
		Brand:      "Toyota",
		Model:      "Camry",
		Price:      12500000,
		CreateDate: time.Now(),
	}

	fields := c.Fields()
	if len(fields) != len(CarFieldSpecs) {
		t.Fatalf("len(fields) = %d, want %d", len(fields), len(CarFieldSpecs))
	}
	for i, f := range fields {
		if f.Column != CarFieldSpecs[i].Name {
			t.Errorf("fields[%d] = %s, want %s", i, f.Column, CarFieldSpecs[i].Name)
		}
		switch f.Column {
		case ColID, ColCreateDate, ColUpdateDate:
			t.Errorf("server-assigned column %s included", f.Column)
		}
	}

	c.Attributes = map[string]any{"color": "white"}
	if last := c.Fields()[len(CarFieldSpecs)]; last.Column != ColAttributes {
		t.Errorf("expected attributes last, got %s", last.Column)
	}
}

func TestCarFromRow(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var volume pgtype.Numeric
	if err := volume.Scan("2.5"); err != nil {
		t.Fatalf("scan numeric: %v", err)
	}

	row := core.NewRow(
		[]string{"id", "url", "brand", "model", "year", "price", "volume", "custom_kz", "attributes", "create_date", "update_date"},
		[]any{int64(3), "u", "Kia", "Rio", int32(2019), int64(6900000), volume, true, map[string]any{"color": "red"}, created, nil},
	)

	c, err := CarFromRow(row)
	if err != nil {
		t.Fatalf("CarFromRow() error = %v", err)
	}

	if c.ID != 3 || c.Brand != "Kia" || c.Year != 2019 || c.Price != 6900000 {
		t.Errorf("unexpected car: %+v", c)
	}
	if c.Volume != 2.5 {
		t.Errorf("Volume = %v, want 2.5", c.Volume)
	}
	if !c.CustomKZ {
		t.Error("CustomKZ = false, want true")
	}
	if c.Attributes["color"] != "red" {
		t.Errorf("Attributes = %v", c.Attributes)
	}
	if !c.CreateDate.Equal(created) {
		t.Errorf("CreateDate = %v, want %v", c.CreateDate, created)
	}
	if !c.UpdateDate.IsZero() {
		t.Errorf("UpdateDate = %v, want zero for NULL", c.UpdateDate)
	}
}

func TestCarFromRow_Projection(t *testing.T) {
	c, err := CarFromRow(core.NewRow([]string{"brand"}, []any{"BMW"}))
	if err != nil {
		t.Fatalf("CarFromRow() error = %v", err)
	}
	if c.Brand != "BMW" || c.URL != "" {
		t.Errorf("unexpected car: %+v", c)
	}
}

func TestParseCar(t *testing.T) {
	c, err := ParseCar(map[string]string{
		"url":          " https://kolesa.kz/a/9 ",
		"brand":        "мерседес",
		"model":        "E 200",
		"year":         "2016",
		"price":        "14 900 000 ₸",
		"city":         "almaty",
		"volume":       "2,0 л",
		"volume_type":  "Бензин",
		"mileage":      "120 000 км",
		"transmission": "автомат",
		"custom_kz":    "да",
	})
	if err != nil {
		t.Fatalf("ParseCar() error = %v", err)
	}

	want := Car{
		URL:          "https://kolesa.kz/a/9",
		Brand:        "Mercedes-Benz",
		Model:        "E 200",
		Year:         2016,
		Price:        14900000,
		City:         "Алматы",
		Volume:       2.0,
		VolumeType:   "бензин",
		Mileage:      120000,
		Transmission: 1,
		CustomKZ:     true,
	}
	if c.URL != want.URL || c.Brand != want.Brand || c.Model != want.Model || c.Year != want.Year ||
		c.Price != want.Price || c.City != want.City || c.Volume != want.Volume ||
		c.VolumeType != want.VolumeType || c.Mileage != want.Mileage ||
		c.Transmission != want.Transmission || c.CustomKZ != want.CustomKZ {
		t.Errorf("ParseCar() = %+v, want %+v", c, want)
	}
}

func TestParseCar_Errors(t *testing.T) {
	_, err := ParseCar(map[string]string{
		"brand":       "Kia",
		"year":        "twenty",
		"volume_type": "steam",
		"colour":      "red",
	})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}

	got := make(map[string]string)
	for _, ve := range verrs {
		got[ve.Field] = ve.Message
	}
	for field, msg := range map[string]string{
		"colour":      "unknown field",
		"url":         "required field is empty",
		"model":       "required field is empty",
		"year":        "invalid integer format",
		"volume_type": "value must be one of: бензин, дизель, газ, гибрид, электричество",
	} {
		if got[field] != msg {
			t.Errorf("%s: message = %q, want %q", field, got[field], msg)
		}
	}
}

func TestParseChanges(t *testing.T) {
	fields, err := ParseChanges(map[string]string{"price": "9 000 000", "city": "astana", "model": ""})
	if err != nil {
		t.Fatalf("ParseChanges() error = %v", err)
	}

	if len(fields) != 2 {
		t.Fatalf("len(fields) = %d, want 2: %v", len(fields), fields)
	}
	// spec order: price before city
	if fields[0].Column != ColPrice || fields[0].Value != int64(9000000) {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Column != ColCity || fields[1].Value != "Астана" {
		t.Errorf("fields[1] = %+v", fields[1])
	}
}

func TestParseChanges_RejectsServerColumns(t *testing.T) {
	for _, col := range []string{"id", "create_date", "update_date"} {
		if _, err := ParseChanges(map[string]string{col: "x"}); err == nil {
			t.Errorf("ParseChanges(%s) expected error", col)
		}
	}
}
