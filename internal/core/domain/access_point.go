package domain

import (
	"errors"
	"fmt"
	"strings"
)

// AccessPointID identifies an access point. Ids are assigned by the registry
// and never reused.
type AccessPointID uint64

var (
	ErrNotFound            = errors.New("not found")
	ErrAccessPointNotFound = fmt.Errorf("access point %w", ErrNotFound)
	ErrInvalidStatus       = errors.New("invalid access point status")
)

// Location is a geocoded coordinate.
type Location struct {
	Lat  float64 `json:"lat" bson:"lat"`
	Long float64 `json:"long" bson:"long"`
}

// AccessPointStatus is the operational state of an access point. Any status
// may follow any other.
type AccessPointStatus string

const (
	StatusWorking    AccessPointStatus = "Working"
	StatusInRepair   AccessPointStatus = "InRepair"
	StatusNotWorking AccessPointStatus = "NotWorking"
)

// DefaultStatus is applied to new access points and reports that do not name one.
const DefaultStatus = StatusNotWorking

// ParseStatus accepts the canonical names ("NotWorking") and the display
// names ("Not Working"), case-insensitively.
func ParseStatus(s string) (AccessPointStatus, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, st := range []AccessPointStatus{StatusWorking, StatusInRepair, StatusNotWorking} {
		if norm == strings.ToLower(string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is one of the known statuses.
func (s AccessPointStatus) Valid() bool {
	switch s {
	case StatusWorking, StatusInRepair, StatusNotWorking:
		return true
	}
	return false
}

// Display returns the human-readable form of the status.
func (s AccessPointStatus) Display() string {
	switch s {
	case StatusWorking:
		return "Working"
	case StatusInRepair:
		return "In Repair"
	case StatusNotWorking:
		return "Not Working"
	}
	return string(s)
}

// KindVariant tags a Kind.
type KindVariant int

const (
	KindOther KindVariant = iota
	KindWheelchair
	KindInterpreter
)

var knownKinds = map[KindVariant]string{
	KindWheelchair:  "Wheelchair",
	KindInterpreter: "Interpreter",
}

// Kind is the category of an access point: one of the known variants, or
// Other with a free-text label. Use NewKind so that labels naming a known
// variant collapse into it.
type Kind struct {
	variant KindVariant
	label   string
}

var (
	Wheelchair  = Kind{variant: KindWheelchair}
	Interpreter = Kind{variant: KindInterpreter}
)

// NewKind normalizes text into a Kind. Matching against the known variant
// names ignores case and surrounding whitespace.
func NewKind(text string) Kind {
	trimmed := strings.TrimSpace(text)
	for v, name := range knownKinds {
		if strings.EqualFold(trimmed, name) {
			return Kind{variant: v}
		}
	}
	return Kind{variant: KindOther, label: trimmed}
}

// OtherKind builds an Other kind, normalizing like NewKind.
func OtherKind(label string) Kind { return NewKind(label) }

func (k Kind) Variant() KindVariant { return k.variant }

// Label is the free-text label of an Other kind, empty for known variants.
func (k Kind) Label() string { return k.label }

// String is the stored form: the variant name, or the label for Other.
func (k Kind) String() string {
	if name, ok := knownKinds[k.variant]; ok {
		return name
	}
	return k.label
}

// Display is the human-readable form. An unlabeled Other reads "Other".
func (k Kind) Display() string {
	if s := k.String(); s != "" {
		return s
	}
	return "Other"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	*k = NewKind(string(b))
	return nil
}

// AccessPoint is a tracked accessibility aid. Values handed out by the
// registry are copies.
type AccessPoint struct {
	ID            AccessPointID     `json:"id"`
	Name          string            `json:"name"`
	Kind          Kind              `json:"kind"`
	KindDisplay   string            `json:"kind_display"`
	Location      Location          `json:"location"`
	Status        AccessPointStatus `json:"status"`
	StatusDisplay string            `json:"status_display"`
}

// AccessPointOptions configures a new access point. Nil fields take the
// defaults: status NotWorking, kind Other("").
type AccessPointOptions struct {
	Name   string
	Status *AccessPointStatus
	Kind   *Kind
}

// NewAccessPoint builds an access point with derived display strings. The id
// is left for the registry to assign.
func NewAccessPoint(loc Location, opts AccessPointOptions) AccessPoint {
	ap := AccessPoint{
		Name:     opts.Name,
		Location: loc,
		Status:   DefaultStatus,
	}
	if opts.Status != nil {
		ap.Status = *opts.Status
	}
	if opts.Kind != nil {
		ap.Kind = *opts.Kind
	}
	ap.Normalize()
	return ap
}

// SetStatus overwrites the status and its display string.
func (ap *AccessPoint) SetStatus(s AccessPointStatus) {
	ap.Status = s
	ap.StatusDisplay = s.Display()
}

// Normalize re-derives the kind and the display strings, as needed after
// decoding a stored record.
func (ap *AccessPoint) Normalize() {
	ap.Kind = NewKind(ap.Kind.String())
	ap.KindDisplay = ap.Kind.Display()
	if !ap.Status.Valid() {
		ap.Status = DefaultStatus
	}
	ap.StatusDisplay = ap.Status.Display()
}

// DisplayName is the name, or "Access point #<id>" when unnamed.
func (ap AccessPoint) DisplayName() string {
	if ap.Name != "" {
		return ap.Name
	}
	return fmt.Sprintf("Access point #%d", ap.ID)
}
