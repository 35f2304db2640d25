package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ProfileRepositoryPG reads the published profile photo. Writes go through
// AttemptRepositoryPG.Accept so the publish stays atomic with the promotion.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProfileRepositoryPG(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

func (r *ProfileRepositoryPG) ProfilePhotoRef(ctx context.Context, ownerID string) (string, error) {
	var ref string
	err := r.sql.QueryRow(ctx, sqlinline.QSelectProfilePhoto, ownerID).Scan(&ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("select profile photo: %w", err)
	}
	return ref, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
