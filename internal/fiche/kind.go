package fiche

import "strings"

// FieldKind is the closed set of input controls a fiche can ask for.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindNumber      FieldKind = "number"
	KindDate        FieldKind = "date"
	KindTime        FieldKind = "time"
	KindDateTime    FieldKind = "datetime"
	KindTextarea    FieldKind = "textarea"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindRadio       FieldKind = "radio"
	KindGPS         FieldKind = "gps"
	KindPhoto       FieldKind = "photo"
)

// AllKinds lists every FieldKind in declaration order.
var AllKinds = []FieldKind{
	KindText, KindNumber, KindDate, KindTime, KindDateTime, KindTextarea,
	KindSelect, KindMultiSelect, KindRadio, KindGPS, KindPhoto,
}

// ParseFieldKind maps a raw payload type string onto a FieldKind.
// Unknown or empty strings yield KindText.
func ParseFieldKind(raw string) FieldKind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "datetime-local":
		return KindDateTime
	case "multi-select", "multiple":
		return KindMultiSelect
	}
	for _, k := range AllKinds {
		if string(k) == s {
			return k
		}
	}
	return KindText
}

// HasOptions reports whether the kind is a choice kind.
func (k FieldKind) HasOptions() bool {
	switch k {
	case KindSelect, KindMultiSelect, KindRadio:
		return true
	case KindText, KindNumber, KindDate, KindTime, KindDateTime, KindTextarea, KindGPS, KindPhoto:
		return false
	}
	return false
}

// HoldsText reports whether values of this kind live in the text value map.
// Photos are kept in a side table instead.
func (k FieldKind) HoldsText() bool {
	switch k {
	case KindPhoto:
		return false
	case KindText, KindNumber, KindDate, KindTime, KindDateTime, KindTextarea,
		KindSelect, KindMultiSelect, KindRadio, KindGPS:
		return true
	}
	return true
}

// InputType is the control a renderer should materialize for the kind.
func (k FieldKind) InputType() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime-local"
	case KindTextarea:
		return "textarea"
	case KindSelect:
		return "select"
	case KindMultiSelect:
		return "select-multiple"
	case KindRadio:
		return "radio"
	case KindGPS:
		return "gps"
	case KindPhoto:
		return "file"
	}
	return "text"
}

// MultiValueSeparator joins multiselect values.
const MultiValueSeparator = ", "

// Collect turns the raw inputs of one control into the stored value.
// gps and photo return "" because they are written through SetGPS and
// AttachPhoto rather than edited.
func (k FieldKind) Collect(inputs []string) string {
	switch k {
	case KindRadio, KindSelect:
		for _, in := range inputs {
			if s := strings.TrimSpace(in); s != "" {
				return s
			}
		}
		return ""
	case KindMultiSelect:
		var picked []string
		for _, in := range inputs {
			if s := strings.TrimSpace(in); s != "" {
				picked = append(picked, s)
			}
		}
		return strings.Join(picked, MultiValueSeparator)
	case KindGPS, KindPhoto:
		return ""
	case KindText, KindNumber, KindDate, KindTime, KindDateTime, KindTextarea:
		if len(inputs) == 0 {
			return ""
		}
		return inputs[0]
	}
	return ""
}
