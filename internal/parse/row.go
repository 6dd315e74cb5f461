package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is a canonical import column.
type Field string

const (
	FieldLocomotive Field = "locomotive_number"
	FieldTrain      Field = "train_number"
	FieldFrom       Field = "from_station"
	FieldTo         Field = "to_station"
	FieldStart      Field = "start_time"
	FieldEnd        Field = "end_time"
	FieldNote       Field = "note"
	FieldDepot      Field = "depot"
	FieldModel      Field = "model"
	FieldDistance   Field = "distance_km"
)

// HeaderAliases maps each canonical field to the header spellings accepted for it,
// in lookup order.
var HeaderAliases = map[Field][]string{
	FieldLocomotive: {"locomotive_number", "loco_number", "Локомотив", "Номер локомотива", "ЛОК"},
	FieldTrain:      {"train_number", "Поезд", "Номер поезда", "train"},
	FieldFrom:       {"from_station", "От", "Станция отправления", "Начальная станция", "from"},
	FieldTo:         {"to_station", "До", "Станция прибытия", "Конечная станция", "to"},
	FieldStart:      {"start_time", "Начало", "Время отправления", "Отправление", "start"},
	FieldEnd:        {"end_time", "Конец", "Время прибытия", "Прибытие", "end"},
	FieldNote:       {"note", "Примечание"},
	FieldDepot:      {"depot", "Депо", "Depot"},
	FieldModel:      {"model", "Серия", "Модель", "Model"},
	FieldDistance:   {"distance_km", "Расстояние", "distance"},
}

var requiredFields = []Field{FieldLocomotive, FieldTrain, FieldFrom, FieldTo, FieldStart, FieldEnd}

// Row is a validated import row.
type Row struct {
	Index            int
	LocomotiveNumber string
	TrainNumber      string
	FromStation      string
	ToStation        string
	Start            time.Time
	End              time.Time
	Note             string
	Depot            string
	Model            string
	DistanceKm       *float64
	Raw              map[string]string
}

// RowError describes why an input row was rejected. Raw is the row as read.
type RowError struct {
	Index   int               `json:"row_index"`
	Message string            `json:"message"`
	Raw     map[string]string `json:"raw_row"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Message)
}

// Result holds exactly one of Row or Err.
type Result struct {
	Row *Row
	Err *RowError
}

// Lookup returns the first non-empty value among the field's aliases.
func Lookup(raw map[string]string, field Field) string {
	for _, alias := range HeaderAliases[field] {
		if v, ok := raw[alias]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// ParseRow validates one spreadsheet row. index is the 1-based sheet row number.
func ParseRow(index int, raw map[string]string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Err: &RowError{Index: index, Message: fmt.Sprintf(format, args...), Raw: raw}}
	}

	var missing []string
	for _, f := range requiredFields {
		if Lookup(raw, f) == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fail("missing required fields: %s", strings.Join(missing, ", "))
	}

	start, err := Timestamp(Lookup(raw, FieldStart))
	if err != nil {
		return fail("invalid start_time: %v", err)
	}
	end, err := Timestamp(Lookup(raw, FieldEnd))
	if err != nil {
		return fail("invalid end_time: %v", err)
	}
	if !start.Before(end) {
		return fail("start_time must be before end_time")
	}

	row := &Row{
		Index:            index,
		LocomotiveNumber: Lookup(raw, FieldLocomotive),
		TrainNumber:      Lookup(raw, FieldTrain),
		FromStation:      Lookup(raw, FieldFrom),
		ToStation:        Lookup(raw, FieldTo),
		Start:            start,
		End:              end,
		Note:             Lookup(raw, FieldNote),
		Depot:            Lookup(raw, FieldDepot),
		Model:            Lookup(raw, FieldModel),
		Raw:              raw,
	}

	if StationCode(row.FromStation) == "" || StationCode(row.ToStation) == "" {
		return fail("station names must contain letters or digits")
	}

	if d := Lookup(raw, FieldDistance); d != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(d, ",", "."), 64)
		if err != nil || v < 0 {
			return fail("invalid distance_km %q", d)
		}
		row.DistanceKm = &v
	}

	return Result{Row: row}
}
