package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ImportReport summarizes a bulk import. Rows are processed independently:
// a bad row is counted and skipped, the rest go through.
type ImportReport struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
}

type ImportService interface {
	ImportPlayersCSV(ctx context.Context, file io.Reader) (*ImportReport, error)
}

type importService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewImportService(playerRepo repositories.PlayerRepository, logger *slog.Logger) ImportService {
	return &importService{playerRepo: playerRepo, logger: logger}
}

// ImportPlayersCSV reads a CSV with header alias,email,phone and creates one
// player account per row. Accounts are created pre-approved with a random
// password; players reset it through the usual flow. Rows missing alias or
// email, or colliding with existing accounts, are counted as failed.
func (s *importService) ImportPlayersCSV(ctx context.Context, file io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read CSV header", ErrValidationFailed)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	aliasCol, hasAlias := columns["alias"]
	emailCol, hasEmail := columns["email"]
	phoneCol, hasPhone := columns["phone"]
	if !hasAlias || !hasEmail {
		return nil, fmt.Errorf("%w: CSV header must contain alias and email columns", ErrValidationFailed)
	}

	report := &ImportReport{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("fila %d: formato inválido", line))
			continue
		}

		alias := fieldAt(record, aliasCol)
		email := fieldAt(record, emailCol)
		if alias == "" || email == "" {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("fila %d: alias o email faltante", line))
			continue
		}

		player := &models.Player{
			Alias:    alias,
			Email:    email,
			Role:     models.RolePlayer,
			Approval: models.ApprovalAprobado,
		}
		if hasPhone {
			if phone := fieldAt(record, phoneCol); phone != "" {
				player.Phone = &phone
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password hash: %w", err)
		}
		player.PasswordHash = string(hash)

		if err := s.playerRepo.Create(ctx, player); err != nil {
			report.Failed++
			switch {
			case errors.Is(err, repositories.ErrPlayerEmailConflict):
				report.Errors = append(report.Errors, fmt.Sprintf("fila %d: el email %s ya está en uso", line, email))
			case errors.Is(err, repositories.ErrPlayerAliasConflict):
				report.Errors = append(report.Errors, fmt.Sprintf("fila %d: el alias %s ya está en uso", line, alias))
			default:
				report.Errors = append(report.Errors, fmt.Sprintf("fila %d: no se pudo crear el jugador", line))
				s.logger.WarnContext(ctx, "csv import row failed",
					slog.Int("line", line), slog.String("email", email), slog.Any("error", err))
			}
			continue
		}
		report.Processed++
	}

	report.Message = fmt.Sprintf("Procesados: %d. Fallidos: %d.", report.Processed, report.Failed)
	return report, nil
}

func fieldAt(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
