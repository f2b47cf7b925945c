package version

import (
	"testing"

	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVersionCompatibility(t *testing.T) {
	tests := []struct {
		name           string
		currentVersion string
		storedVersion  string
		expectError    bool
		expectedCode   errors.ErrorCode
		errorContains  string
	}{
		{
			name:           "exact match",
			currentVersion: "1.2.0",
			storedVersion:  "1.2.0",
		},
		{
			name:           "current patch higher",
			currentVersion: "1.2.1",
			storedVersion:  "1.2.0",
		},
		{
			name:           "stored patch higher",
			currentVersion: "1.2.0",
			storedVersion:  "1.2.5",
		},
		{
			name:           "older stored minor",
			currentVersion: "1.3.0",
			storedVersion:  "1.2.0",
		},
		{
			name:           "v prefix is ignored",
			currentVersion: "v1.1.0",
			storedVersion:  "1.1.4",
		},
		{
			name:           "development build skips the check",
			currentVersion: "main",
			storedVersion:  "9.0.0",
		},
		{
			name:           "stored development build skips the check",
			currentVersion: "1.0.0",
			storedVersion:  "main",
		},
		{
			name:           "newer stored minor",
			currentVersion: "1.1.0",
			storedVersion:  "1.2.0",
			expectError:    true,
			expectedCode:   errors.ErrCodeVersionMismatch,
			errorContains:  "newer than reader",
		},
		{
			name:           "major version differs",
			currentVersion: "2.0.0",
			storedVersion:  "1.2.0",
			expectError:    true,
			expectedCode:   errors.ErrCodeVersionMismatch,
			errorContains:  "major version mismatch",
		},
		{
			name:           "invalid current version",
			currentVersion: "not-a-version",
			storedVersion:  "1.0.0",
			expectError:    true,
			expectedCode:   errors.ErrCodeInvalidVersion,
			errorContains:  "invalid current version",
		},
		{
			name:           "invalid stored version",
			currentVersion: "1.0.0",
			storedVersion:  "x.y",
			expectError:    true,
			expectedCode:   errors.ErrCodeInvalidVersion,
			errorContains:  "invalid stored version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVersionCompatibility(tt.currentVersion, tt.storedVersion)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.True(t, errors.HasCode(err, tt.expectedCode))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSessionSchemaVersionIsValid(t *testing.T) {
	assert.NoError(t, CheckVersionCompatibility(SessionSchemaVersion, SessionSchemaVersion))
}

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	assert.Equal(t, Version, v)
}
