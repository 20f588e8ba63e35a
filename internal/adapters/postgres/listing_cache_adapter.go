package postgres

import (
	"context"
	"fmt"
	"time"

	"imobiliaria-sync/internal/contextkeys"
	"imobiliaria-sync/internal/core/domain"
	"imobiliaria-sync/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresListingCacheAdapter implements port.ListingCachePort on top of the
// cache_xml_externo table.
type PostgresListingCacheAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresListingCacheAdapter(pool *pgxpool.Pool) *PostgresListingCacheAdapter {
	return &PostgresListingCacheAdapter{pool: pool}
}

// Column order matters: it must match the COPY below.
var cacheColumns = []string{
	"listing_id", "xml_provider", "titulo", "tipo", "finalidade",
	"endereco", "bairro", "cidade", "uf", "latitude", "longitude", "geohash",
	"quartos", "suites", "banheiros", "vagas_garagem",
	"area_total", "area_util", "valor_venda", "valor_aluguel", "valor_condominio", "iptu",
	"descricao", "diferenciais", "fotos_urls",
	"status", "data_hash", "last_sync", "data_ultima_alteracao",
}

// LoadSnapshotPage reads one keyset page of the provider's cache rows,
// ordered by listing_id. A page shorter than limit means there are no more
// rows.
func (a *PostgresListingCacheAdapter) LoadSnapshotPage(ctx context.Context, provider, afterID string, limit int) ([]domain.SnapshotRow, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT listing_id, data_hash, status
		FROM cache_xml_externo
		WHERE xml_provider = $1 AND listing_id > $2
		ORDER BY listing_id
		LIMIT $3
	`, provider, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot page: %w", err)
	}
	defer rows.Close()

	page := make([]domain.SnapshotRow, 0, limit)
	for rows.Next() {
		var row domain.SnapshotRow
		if err := rows.Scan(&row.ListingID, &row.Fingerprint, &row.Status); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot page: %w", err)
	}
	return page, nil
}

// UpsertListings writes a batch of full listing rows, using COPY into a
// temp table and a single INSERT ... ON CONFLICT merge.
func (a *PostgresListingCacheAdapter) UpsertListings(ctx context.Context, listings []domain.Listing) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":  "PostgresListingCacheAdapter",
		"method":     "UpsertListings",
		"batch_size": len(listings),
	})

	if len(listings) == 0 {
		return nil
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE temp_cache_xml_externo (LIKE cache_xml_externo) ON COMMIT DROP;
	`)
	if err != nil {
		repoLogger.Error("Failed to create temp table", err, nil)
		return fmt.Errorf("failed to create temp table for cache_xml_externo: %w", err)
	}

	copyRows := make([][]interface{}, 0, len(listings))
	for _, l := range listings {
		copyRows = append(copyRows, []interface{}{
			l.ListingID, l.Provider, l.Title, l.PropertyType, l.TransactionType,
			l.Address, l.Neighborhood, l.City, l.State, l.Latitude, l.Longitude, l.Geohash,
			l.Bedrooms, l.Suites, l.Bathrooms, l.ParkingSpaces,
			l.TotalArea, l.UsableArea, l.SalePrice, l.RentPrice, l.CondoFee, l.Tax,
			l.Description, l.Features, l.PhotoURLs,
			l.Status, l.Fingerprint, l.LastSeenAt, l.LastChangedAt,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_cache_xml_externo"},
		cacheColumns,
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		repoLogger.Error("Failed to COPY data to temp table", err, nil)
		return fmt.Errorf("failed to copy to temp_cache_xml_externo: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cache_xml_externo (
			listing_id, xml_provider, titulo, tipo, finalidade,
			endereco, bairro, cidade, uf, latitude, longitude, geohash,
			quartos, suites, banheiros, vagas_garagem,
			area_total, area_util, valor_venda, valor_aluguel, valor_condominio, iptu,
			descricao, diferenciais, fotos_urls,
			status, data_hash, last_sync, data_ultima_alteracao
		)
		SELECT
			listing_id, xml_provider, titulo, tipo, finalidade,
			endereco, bairro, cidade, uf, latitude, longitude, geohash,
			quartos, suites, banheiros, vagas_garagem,
			area_total, area_util, valor_venda, valor_aluguel, valor_condominio, iptu,
			descricao, diferenciais, fotos_urls,
			status, data_hash, last_sync, data_ultima_alteracao
		FROM temp_cache_xml_externo
		ON CONFLICT (xml_provider, listing_id) DO UPDATE SET
			titulo = EXCLUDED.titulo,
			tipo = EXCLUDED.tipo,
			finalidade = EXCLUDED.finalidade,
			endereco = EXCLUDED.endereco,
			bairro = EXCLUDED.bairro,
			cidade = EXCLUDED.cidade,
			uf = EXCLUDED.uf,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			geohash = EXCLUDED.geohash,
			quartos = EXCLUDED.quartos,
			suites = EXCLUDED.suites,
			banheiros = EXCLUDED.banheiros,
			vagas_garagem = EXCLUDED.vagas_garagem,
			area_total = EXCLUDED.area_total,
			area_util = EXCLUDED.area_util,
			valor_venda = EXCLUDED.valor_venda,
			valor_aluguel = EXCLUDED.valor_aluguel,
			valor_condominio = EXCLUDED.valor_condominio,
			iptu = EXCLUDED.iptu,
			descricao = EXCLUDED.descricao,
			diferenciais = EXCLUDED.diferenciais,
			fotos_urls = EXCLUDED.fotos_urls,
			status = EXCLUDED.status,
			data_hash = EXCLUDED.data_hash,
			last_sync = EXCLUDED.last_sync,
			data_ultima_alteracao = EXCLUDED.data_ultima_alteracao;
	`)
	if err != nil {
		repoLogger.Error("Failed to merge from temp table", err, nil)
		return fmt.Errorf("failed to merge from temp_cache_xml_externo: %w", err)
	}

	return tx.Commit(ctx)
}

// RefreshUnchanged touches only the housekeeping columns of rows whose
// payload did not change: status back to active and last_sync to the run
// time. data_ultima_alteracao is left alone.
func (a *PostgresListingCacheAdapter) RefreshUnchanged(ctx context.Context, provider string, listingIDs []string, seenAt time.Time) error {
	if len(listingIDs) == 0 {
		return nil
	}

	keys := make([][]interface{}, len(listingIDs))
	for i, id := range listingIDs {
		keys[i] = []interface{}{id}
	}

	columnTypes := []string{"TEXT"}
	placeholders := buildValuesPlaceholders(columnTypes, len(keys))
	flatArgs := flatten(keys)

	sql := fmt.Sprintf(`
		UPDATE cache_xml_externo c
		SET status = '%s', last_sync = $%d
		FROM (VALUES %s) AS vals(listing_id)
		WHERE c.xml_provider = $%d
		AND c.listing_id = vals.listing_id
	`, domain.StatusActive, len(flatArgs)+1, placeholders, len(flatArgs)+2)

	args := append(flatArgs, seenAt, provider)

	if _, err := a.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to refresh unchanged listings: %w", err)
	}
	return nil
}

// Retirement writes status and nothing else. The retired keys were absent
// from this run's feed, so last_sync must keep pointing at the last run
// that actually carried them.
const retireMissingSQL = `
	UPDATE cache_xml_externo
	SET status = $1
	WHERE xml_provider = $2
	AND status = $3
	AND listing_id = ANY($4)
`

// RetireMissing flips to inactive every active row of the provider whose
// listing_id is in listingIDs. Returns the number of rows flipped.
func (a *PostgresListingCacheAdapter) RetireMissing(ctx context.Context, provider string, listingIDs []string) (int64, error) {
	if len(listingIDs) == 0 {
		return 0, nil
	}

	cmdTag, err := a.pool.Exec(ctx, retireMissingSQL,
		domain.StatusInactive, provider, domain.StatusActive, listingIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to retire missing listings: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
