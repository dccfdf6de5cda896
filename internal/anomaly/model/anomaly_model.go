package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedMethod = errors.New("unsupported detection method")

type Severity uint8

const (
	SeverityWarning Severity = iota + 1
	SeverityError
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityWarning:  "Warning",
	SeverityError:    "Error",
	SeverityCritical: "Critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSeverity(name string) (Severity, error) {
	for s, n := range severityNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// Method is the closed set of detection strategies.
type Method uint8

const (
	MethodZScore Method = iota + 1
	MethodIQR
	MethodRollingMean
	MethodLOF
)

var (
	methodNames = map[Method]string{
		MethodZScore:      "ZScore",
		MethodIQR:         "IQR",
		MethodRollingMean: "RollingMean",
		MethodLOF:         "LOF",
	}
	// names accepted from HTTP callers
	methodWireNames = map[string]Method{
		"z_score":      MethodZScore,
		"iqr":          MethodIQR,
		"rolling_mean": MethodRollingMean,
		"lof":          MethodLOF,
	}
)

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Method) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseMethod(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMethod accepts both the wire names (z_score, iqr, rolling_mean, lof)
// and the canonical names (ZScore, IQR, RollingMean, LOF).
func ParseMethod(name string) (Method, error) {
	name = strings.TrimSpace(name)
	if m, ok := methodWireNames[strings.ToLower(name)]; ok {
		return m, nil
	}
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
}

func NewAnomaly(building string, date time.Time, consumption, score float64, severity Severity, method Method) Anomaly {
	return Anomaly{
		ID:             uuid.New(),
		Date:           date,
		Building:       building,
		Consumption:    consumption,
		DeviationScore: score,
		Severity:       severity,
		Method:         method,
		CreatedAt:      time.Now().UTC(),
	}
}

// Anomaly is one flagged reading. Date, Building and Method form its natural key.
type Anomaly struct {
	ID             uuid.UUID `json:"id"`
	Date           time.Time `json:"date"`
	Building       string    `json:"building"`
	Consumption    float64   `json:"consumption"`
	DeviationScore float64   `json:"deviation_score"`
	Severity       Severity  `json:"severity"`
	Method         Method    `json:"detection_method"`
	Acknowledged   bool      `json:"is_acknowledged"`
	SDT            bool      `json:"is_sdt"`
	Cleared        bool      `json:"is_cleared"`
	CreatedAt      time.Time `json:"created_at"`
}

func (a Anomaly) Key() string {
	return Key(a.Date, a.Building, a.Method)
}

// Key builds the storage key "YYYY-MM-DD|building|method". The date comes
// first so a cursor walks records in chronological order.
func Key(date time.Time, building string, method Method) string {
	return date.Format("2006-01-02") + "|" + building + "|" + method.String()
}

var ErrUnknownStatus = errors.New("invalid status type")

// StatusKind names one of the operator controlled flags of an anomaly.
type StatusKind string

const (
	StatusAcknowledge StatusKind = "acknowledge"
	StatusClear       StatusKind = "clear"
	StatusSDT         StatusKind = "sdt"
)

func ParseStatusKind(s string) (StatusKind, error) {
	switch k := StatusKind(strings.ToLower(strings.TrimSpace(s))); k {
	case StatusAcknowledge, StatusClear, StatusSDT:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// SetStatus flips the flag named by kind.
func (a *Anomaly) SetStatus(kind StatusKind, value bool) error {
	switch kind {
	case StatusAcknowledge:
		a.Acknowledged = value
	case StatusClear:
		a.Cleared = value
	case StatusSDT:
		a.SDT = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, kind)
	}
	return nil
}
