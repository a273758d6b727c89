package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

// Wikibase time precision codes
const (
	PrecisionYear1G = 0
	PrecisionYear   = 9
	PrecisionMonth  = 10
	PrecisionDay    = 11
	PrecisionHour   = 12
	PrecisionMinute = 13
	PrecisionSecond = 14
)

// Years before this are dropped unless the value is only year-precise
const minPreciseYear = 1920

// timeState is the XML schema datatype a time literal is currently shaped as.
// Each state widens its input into the next one until stateDateTime parses it.
type timeState int

const (
	stateYear timeState = iota
	stateYearMonth
	stateDate
	stateDateTime
	stateDone
)

var timeStates = map[string]timeState{
	model.XMLSchemaPrefix + "gYear":      stateYear,
	model.XMLSchemaPrefix + "gYearMonth": stateYearMonth,
	model.XMLSchemaPrefix + "date":       stateDate,
	model.XMLSchemaPrefix + "dateTime":   stateDateTime,
}

// TimeValue is a parsed timestamp with its precision code
type TimeValue struct {
	Time      string // +YYYY-MM-DDThh:mm:ssZ
	Precision int
}

// String is the timestamp/precision serialization used in statements
func (t TimeValue) String() string {
	return t.Time + "/" + strconv.Itoa(t.Precision)
}

// Year is the signed year of the timestamp
func (t TimeValue) Year() int64 {
	sign, rest := t.Time[:1], t.Time[1:]
	digits, _, _ := strings.Cut(rest, "-")
	y, _ := strconv.ParseInt(digits, 10, 64)
	if sign == "-" {
		return -y
	}
	return y
}

// WidenTime turns a literal of the given XML schema datatype into a full
// dateTime string: gYear -> gYearMonth -> date -> dateTime
func WidenTime(value, datatype string) (string, error) {
	state, ok := timeStates[datatype]
	if !ok {
		return "", fmt.Errorf("%w: unknown time datatype %s", model.ErrParse, datatype)
	}

	for state != stateDone {
		switch state {
		case stateYear:
			if strings.Contains(value[min(1, len(value)):], "-") {
				// wrongly typed BC date
				return "", model.MappingFailure("malformed year %q", value)
			}
			value += "-00"
			state = stateYearMonth
		case stateYearMonth:
			value += "-00"
			state = stateDate
		case stateDate:
			value += "T00:00:00Z"
			state = stateDateTime
		case stateDateTime:
			state = stateDone
		}
	}
	return value, nil
}

var isoTimestampRe = regexp.MustCompile(`^([-+]?)(\d{1,16})-(\d{1,2})-(\d{1,2})T(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.\d+)?Z?$`)

// ParseISOTimestamp reads [+-]Y-MM-DDThh:mm:ss[Z] and derives the precision from
// the most specific non-zero component
func ParseISOTimestamp(value string) (TimeValue, error) {
	m := isoTimestampRe.FindStringSubmatch(value)
	if m == nil {
		return TimeValue{}, fmt.Errorf("%w: invalid timestamp %q", model.ErrParse, value)
	}

	sign, year := m[1], strings.TrimLeft(m[2], "0")
	if sign == "" {
		sign = "+"
	}
	if len(year) < 4 {
		year = strings.Repeat("0", 4-len(year)) + year
	}

	parts := make([]int, 5)
	for i, limit := range []int{12, 31, 23, 59, 59} {
		n, _ := strconv.Atoi(m[i+3])
		if n > limit {
			return TimeValue{}, fmt.Errorf("%w: timestamp %q out of range", model.ErrParse, value)
		}
		parts[i] = n
	}
	month, day, hour, minute, second := parts[0], parts[1], parts[2], parts[3], parts[4]

	var precision int
	switch {
	case second > 0:
		precision = PrecisionSecond
	case minute > 0:
		precision = PrecisionMinute
	case hour > 0:
		precision = PrecisionHour
	case day > 0:
		precision = PrecisionDay
	case month > 0:
		precision = PrecisionMonth
	default:
		precision = precisionFromYear(year)
	}

	return TimeValue{
		Time:      fmt.Sprintf("%s%s-%02d-%02dT%02d:%02d:%02dZ", sign, year, month, day, hour, minute, second),
		Precision: precision,
	}, nil
}

// Years of at most four digits are year precise; longer round years lose one code per trailing zero
func precisionFromYear(year string) int {
	if len(year) <= 4 {
		return PrecisionYear
	}
	zeros := len(year) - len(strings.TrimRight(year, "0"))
	return max(PrecisionYear-zeros, PrecisionYear1G)
}

// datatypeName is the local name of an XML schema datatype URI, used for counters
func datatypeName(datatype string) string {
	return strings.TrimPrefix(datatype, model.XMLSchemaPrefix)
}
