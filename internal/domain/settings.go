package domain

import "fmt"

type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Daily, Weekly, Monthly:
		return f, nil
	}
	return "", fmt.Errorf("invalid frequency %q: must be one of Daily, Weekly, Monthly", s)
}

// Settings is the administrator-owned offsite backup configuration.
type Settings struct {
	Enabled          bool
	Frequency        Frequency
	EndpointURL      string
	DefaultContainer string
	BackupFiles      bool
	NotifyEmail      string
}
