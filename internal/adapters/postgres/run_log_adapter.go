package postgres

import (
	"context"
	"fmt"

	"imobiliaria-sync/internal/core/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	runStatusSuccess = "sucesso"
	runStatusError   = "erro"
)

// PostgresRunLogAdapter appends one row per run to the import_logs table.
type PostgresRunLogAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresRunLogAdapter(pool *pgxpool.Pool) *PostgresRunLogAdapter {
	return &PostgresRunLogAdapter{pool: pool}
}

func (a *PostgresRunLogAdapter) AppendRunLog(ctx context.Context, summary domain.RunSummary) error {
	status := runStatusSuccess
	if summary.Fatal {
		status = runStatusError
	}

	var errorMessage interface{}
	if summary.ErrorMessage != "" {
		errorMessage = summary.ErrorMessage
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO import_logs (
			run_id, xml_provider, data_execucao, status,
			total_xml, novos, atualizados, reativados, removidos, sem_alteracao, erros,
			mensagem_erro
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		summary.RunID, summary.Provider, summary.ExecutedAt, status,
		summary.TotalFeed, summary.New, summary.Updated, summary.Reactivated,
		summary.Retired, summary.Unchanged, summary.Errors,
		errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return nil
}
