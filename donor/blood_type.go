package donor

import (
	"fmt"
	"strings"
)

// BloodType is an ABO/Rh blood group.
type BloodType string

const (
	APositive  BloodType = "A+"
	ANegative  BloodType = "A-"
	BPositive  BloodType = "B+"
	BNegative  BloodType = "B-"
	ABPositive BloodType = "AB+"
	ABNegative BloodType = "AB-"
	OPositive  BloodType = "O+"
	ONegative  BloodType = "O-"
)

var bloodTypes = []BloodType{
	APositive, ANegative, BPositive, BNegative, ABPositive, ABNegative, OPositive, ONegative,
}

// BloodTypes returns every recognised blood type in display order.
func BloodTypes() []BloodType {
	return append([]BloodType(nil), bloodTypes...)
}

// ParseBloodType accepts a blood type in any letter case, e.g. "ab+".
func ParseBloodType(s string) (BloodType, error) {
	want := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	for _, bt := range bloodTypes {
		if bt == want {
			return bt, nil
		}
	}

	return "", fmt.Errorf("invalid bloodType %q: must be one of %s", s, joinBloodTypes())
}

func (b BloodType) String() string {
	return string(b)
}

func joinBloodTypes() string {
	names := make([]string, len(bloodTypes))
	for i, bt := range bloodTypes {
		names[i] = string(bt)
	}

	return strings.Join(names, ", ")
}
