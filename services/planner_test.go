package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleTrip() TripDetails {
	return TripDetails{
		Source:      "New York",
		Destination: "Paris",
		Dates:       "2025-06-01 to 2025-06-07",
		Budget:      "3000",
		Travelers:   "2",
		Interests:   "museums, food",
	}
}

func TestTripDetails_Validate(t *testing.T) {
	require.NoError(t, sampleTrip().Validate())

	d := sampleTrip()
	d.Budget = "  "
	d.Interests = ""
	err := d.Validate()

	var invalid *ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "budget", invalid.Field, "fields are checked in form order")
}

func TestBuildTripPrompt(t *testing.T) {
	d := sampleTrip()
	prompt := BuildTripPrompt(d)

	for _, field := range []string{d.Source, d.Destination, d.Dates, d.Budget, d.Travelers, d.Interests} {
		assert.Contains(t, prompt, field)
	}
	for _, section := range PlanSections {
		assert.Contains(t, prompt, section)
	}
	assert.Contains(t, prompt, `"## "`)
	assert.Equal(t, prompt, BuildTripPrompt(d))
}

func TestTripPlanner_Plan(t *testing.T) {
	gen := newMockGenerator(GeminiAPIKey)
	gen.On("Generate", mock.Anything, "gem-key", BuildTripPrompt(sampleTrip())).Return("## Transportation\nMetro", nil)

	planner := NewTripPlanner(gen, nil)
	plan, err := planner.Plan(context.Background(), StaticCredentials{GeminiAPIKey: "gem-key"}, sampleTrip())
	require.NoError(t, err)
	assert.Equal(t, "## Transportation\nMetro", plan)
	gen.AssertExpectations(t)
}

func TestTripPlanner_MissingKeySkipsVendor(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	planner := NewTripPlanner(gen, nil)

	for _, creds := range []CredentialProvider{nil, StaticCredentials{}, StaticCredentials{GroqAPIKey: "   "}} {
		_, err := planner.Plan(context.Background(), creds, sampleTrip())
		require.ErrorIs(t, err, ErrMissingCredential)

		var missing *MissingCredentialError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, GroqAPIKey, missing.Key)
	}
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestTripPlanner_VendorFailure(t *testing.T) {
	gen := newMockGenerator(GeminiAPIKey)
	gen.On("Generate", mock.Anything, "gem-key", mock.Anything).
		Return("", &GenerationError{Vendor: "mock", Kind: ErrVendorRequestFailed, Message: "quota exceeded"})

	_, err := NewTripPlanner(gen, nil).Plan(context.Background(), StaticCredentials{GeminiAPIKey: "gem-key"}, sampleTrip())
	assert.ErrorIs(t, err, ErrVendorRequestFailed)
}
