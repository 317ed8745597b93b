package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neotogether/neotogether/internal/errors"
)

func validInput() AvailabilityInput {
	return AvailabilityInput{
		LocationName: "Café Kotti",
		Latitude:     52.4991,
		Longitude:    13.4178,
		TimeStart:    "09:00",
		TimeEnd:      "12:00",
		RepeatDays:   []int64{0, 2, 4},
	}
}

func TestAvailabilityInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AvailabilityInput)
		wantField string
	}{
		{"valid", func(in *AvailabilityInput) {}, ""},
		{"missing location", func(in *AvailabilityInput) { in.LocationName = "" }, "location_name"},
		{"latitude too high", func(in *AvailabilityInput) { in.Latitude = 90.5 }, "latitude"},
		{"longitude too low", func(in *AvailabilityInput) { in.Longitude = -181 }, "longitude"},
		{"reversed times", func(in *AvailabilityInput) { in.TimeStart, in.TimeEnd = "12:00", "09:00" }, "time_start"},
		{"bad clock format", func(in *AvailabilityInput) { in.TimeStart = "9am" }, "time_start"},
		{"no repeat days", func(in *AvailabilityInput) { in.RepeatDays = nil }, "repeat_days"},
		{"day out of range", func(in *AvailabilityInput) { in.RepeatDays = []int64{0, 7} }, "repeat_days"},
		{"duplicate day", func(in *AvailabilityInput) { in.RepeatDays = []int64{3, 3} }, "repeat_days"},
		{"zero radius", func(in *AvailabilityInput) { r := 0; in.RadiusMeters = &r }, "radius_meters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
			appErr := err.(*errors.AppError)
			assert.Equal(t, tt.wantField, appErr.Metadata["field"])
		})
	}
}

func TestPreferencesUpdateValidate(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name    string
		update  PreferencesUpdate
		wantErr bool
	}{
		{"empty update", PreferencesUpdate{}, false},
		{"valid ages", PreferencesUpdate{MinAgePreference: intPtr(25), MaxAgePreference: intPtr(40)}, false},
		{"negative min age", PreferencesUpdate{MinAgePreference: intPtr(-1)}, true},
		{"group size below two", PreferencesUpdate{MinGroupSize: intPtr(1)}, true},
		{"valid group sizes", PreferencesUpdate{MinGroupSize: intPtr(2), MaxGroupSize: intPtr(6)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
