package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Brands maps common spellings to the canonical brand name.
var Brands = map[string]string{
	"mercedes":      "Mercedes-Benz",
	"mercedes benz": "Mercedes-Benz",
	"mercedes-benz": "Mercedes-Benz",
	"мерседес":      "Mercedes-Benz",
	"vw":            "Volkswagen",
	"volkswagen":    "Volkswagen",
	"фольксваген":   "Volkswagen",
	"toyota":        "Toyota",
	"тойота":        "Toyota",
	"lexus":         "Lexus",
	"лексус":        "Lexus",
	"hyundai":       "Hyundai",
	"хендай":        "Hyundai",
	"kia":           "Kia",
	"киа":           "Kia",
	"bmw":           "BMW",
	"бмв":           "BMW",
	"lada":          "Lada",
	"ваз":           "Lada",
	"chevrolet":     "Chevrolet",
	"шевроле":       "Chevrolet",
	"nissan":        "Nissan",
	"ниссан":        "Nissan",
	"mitsubishi":    "Mitsubishi",
	"audi":          "Audi",
	"ауди":          "Audi",
}

// Cities maps transliterations and former names to the canonical city name.
var Cities = map[string]string{
	"almaty":     "Алматы",
	"алматы":     "Алматы",
	"алма-ата":   "Алматы",
	"astana":     "Астана",
	"астана":     "Астана",
	"nur-sultan": "Астана",
	"нур-султан": "Астана",
	"shymkent":   "Шымкент",
	"шымкент":    "Шымкент",
	"karaganda":  "Караганда",
	"караганда":  "Караганда",
	"aktobe":     "Актобе",
	"актобе":     "Актобе",
	"pavlodar":   "Павлодар",
	"павлодар":   "Павлодар",
}

// NormalizeBrand converts a brand to its canonical spelling.
// Unknown brands are returned with the first letter upper-cased.
func NormalizeBrand(s string) string {
	s = CleanValue(s)
	if canonical, ok := Brands[strings.ToLower(s)]; ok {
		return canonical
	}
	return upperFirst(s)
}

// NormalizeCity converts a city to its canonical name.
// If the input is not recognized, returns it cleaned.
func NormalizeCity(s string) string {
	s = CleanValue(s)
	if canonical, ok := Cities[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

// NormalizeTransmission maps the listing's gearbox labels to the stored code.
func NormalizeTransmission(s string) string {
	switch strings.ToLower(CleanValue(s)) {
	case "механика", "manual", "мкпп":
		return "0"
	case "автомат", "automatic", "акпп":
		return "1"
	case "вариатор", "cvt":
		return "2"
	case "робот", "robot":
		return "3"
	default:
		return s
	}
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
