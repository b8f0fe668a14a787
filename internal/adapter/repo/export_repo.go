package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

// ExportRepositoryPG implements domain.ExportRepository.
type ExportRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewExportRepository(sql infra.SQLExecutor) *ExportRepositoryPG {
	return &ExportRepositoryPG{sql: sql}
}

func (r *ExportRepositoryPG) Upsert(ctx context.Context, campaignID string, position int, e domain.ExportPackage) error {
	ids, err := json.Marshal(nonNilStrings(e.AssetIDs))
	if err != nil {
		return fmt.Errorf("encode asset ids: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertCampaignExport,
		e.ID, campaignID, position, e.Platform, ids, e.DownloadURL)
	return err
}

func (r *ExportRepositoryPG) ListByCampaign(ctx context.Context, campaignID string) ([]domain.ExportPackage, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignExports, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []domain.ExportPackage
	for rows.Next() {
		var (
			e   domain.ExportPackage
			ids []byte
		)
		if err := rows.Scan(&e.ID, &e.Platform, &ids, &e.DownloadURL); err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			if err := json.Unmarshal(ids, &e.AssetIDs); err != nil {
				return nil, fmt.Errorf("decode asset ids of export %s: %w", e.ID, err)
			}
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

var _ domain.ExportRepository = (*ExportRepositoryPG)(nil)
