package services

import (
	"context"
	"strings"
	"testing"

	"github.com/chimucheck/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportPlayersCSVCountsRowsIndependently(t *testing.T) {
	players := newFakePlayerRepo()
	svc := NewImportService(players, testLogger())

	csv := strings.Join([]string{
		"alias,email,phone",
		"ana,ana@chimucheck.test,+5491100000001",
		"bruno,bruno@chimucheck.test,",
		"carla,carla@chimucheck.test,+5491100000003",
		"diego,,+5491100000004",
		"elena,elena@chimucheck.test,",
		",falta@chimucheck.test,",
		"fran,fran@chimucheck.test,+5491100000006",
	}, "\n")

	report, err := svc.ImportPlayersCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "Procesados: 5. Fallidos: 2.", report.Message)
	assert.Len(t, report.Errors, 2)

	created, err := players.GetByEmail(context.Background(), "ana@chimucheck.test")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalAprobado, created.Approval)
	assert.Equal(t, models.RolePlayer, created.Role)
	assert.NotEmpty(t, created.PasswordHash)
	require.NotNil(t, created.Phone)
	assert.Equal(t, "+5491100000001", *created.Phone)
}

func TestImportPlayersCSVCountsConflictsAsFailed(t *testing.T) {
	players := newFakePlayerRepo()
	players.add(&models.Player{Alias: "ana", Email: "ana@chimucheck.test"})
	svc := NewImportService(players, testLogger())

	csv := strings.Join([]string{
		"alias,email,phone",
		"ana,otra@chimucheck.test,",
		"bruno,bruno@chimucheck.test,",
	}, "\n")

	report, err := svc.ImportPlayersCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "Procesados: 1. Fallidos: 1.", report.Message)
}

func TestImportPlayersCSVRequiresHeaderColumns(t *testing.T) {
	svc := NewImportService(newFakePlayerRepo(), testLogger())

	_, err := svc.ImportPlayersCSV(context.Background(), strings.NewReader("alias,telefono\nana,123\n"))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestImportPlayersCSVHeaderIsCaseInsensitive(t *testing.T) {
	players := newFakePlayerRepo()
	svc := NewImportService(players, testLogger())

	csv := "Alias,Email,Phone\nana,ana@chimucheck.test,\n"
	report, err := svc.ImportPlayersCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failed)
}

func TestImportPlayersCSVEmptyBody(t *testing.T) {
	svc := NewImportService(newFakePlayerRepo(), testLogger())

	_, err := svc.ImportPlayersCSV(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrValidationFailed)
}
