package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeverityForDays(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{days: 1, expected: HelpSeverityRecent},
		{days: 7, expected: HelpSeverityRecent},
		{days: 8, expected: HelpSeverityWarning},
		{days: 14, expected: HelpSeverityWarning},
		{days: 15, expected: HelpSeverityCritical},
		{days: 100, expected: HelpSeverityCritical},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, SeverityForDays(tc.days), "days=%d", tc.days)
	}
}

func TestReasonsRoundTrip(t *testing.T) {
	record := StudentHelpRecord{Reasons: []string{"Low overall completion rate", " 2 overdue assignments "}}
	require.NoError(t, record.BeforeSave(nil))
	require.Equal(t, "Low overall completion rate\n2 overdue assignments", record.ReasonsRaw)

	hydrated := StudentHelpRecord{ReasonsRaw: record.ReasonsRaw}
	require.NoError(t, hydrated.AfterFind(nil))
	require.Equal(t, []string{"Low overall completion rate", "2 overdue assignments"}, hydrated.Reasons)
}

func TestReasonsEmpty(t *testing.T) {
	record := StudentHelpRecord{}
	require.NoError(t, record.AfterFind(nil))
	require.Equal(t, []string{}, record.Reasons)

	record.Reasons = []string{"", "  "}
	require.NoError(t, record.BeforeSave(nil))
	require.Equal(t, "", record.ReasonsRaw)
}
