package scifile

import "fmt"

// KeyError reports a descriptor missing a field required for key derivation.
type KeyError struct {
	Field string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("build destination key: missing %s", e.Field)
}

// BuildDestinationKey derives the canonical object key for a calibrated
// file: {level}/{year}/{month}/{filename}, where month is always rendered
// as two digits. The descriptor must belong to the calibrated file, not
// the source file — calibration may change level, timestamp, and version.
func BuildDestinationKey(d Descriptor, filename string) (string, error) {
	if d.Level == "" {
		return "", &KeyError{Field: "level"}
	}
	if d.Timestamp.IsZero() {
		return "", &KeyError{Field: "timestamp"}
	}
	if filename == "" {
		return "", &KeyError{Field: "filename"}
	}
	return fmt.Sprintf("%s/%04d/%02d/%s", d.Level, d.Timestamp.Year(), int(d.Timestamp.Month()), filename), nil
}
