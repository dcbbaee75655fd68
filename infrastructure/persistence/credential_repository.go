package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

// CredentialRepository reconciles the two physical credential layouts:
// platform_credentials (current, keyed by creator id) and oauth_tokens
// (legacy, keyed by the account-owner identity). Reads prefer the current
// layout and fall back to legacy; writes land on whichever layout satisfied
// the read. The layouts are never merged.
type CredentialRepository struct {
	db        *sql.DB
	hasLegacy bool
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	r := &CredentialRepository{db: db}
	if db == nil {
		return r
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hasLegacy, err := legacyTableExists(ctx, db)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("could not probe for legacy oauth_tokens table; fallback reads disabled")
	}
	r.hasLegacy = hasLegacy
	return r
}

var _ repository.ICredential = (*CredentialRepository)(nil)

func (r *CredentialRepository) Resolve(ctx context.Context, creatorID, platform string) (*repository.ResolvedCredential, error) {
	cred, err := r.getCurrent(ctx, creatorID, platform)
	if err == nil {
		return &repository.ResolvedCredential{Credential: cred, Layout: repository.LayoutCurrent}, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	if r.hasLegacy {
		cred, err = r.getLegacy(ctx, creatorID, platform)
		if err == nil {
			return &repository.ResolvedCredential{Credential: cred, Layout: repository.LayoutLegacy}, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
	}
	return nil, repository.ErrCredentialNotFound
}

func (r *CredentialRepository) getCurrent(ctx context.Context, creatorID, platform string) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, creator_id, platform, access_token, refresh_token, expires_at, scopes, channel_id, handle, business_account_id, username, created_at, updated_at
		FROM platform_credentials WHERE creator_id=$1 AND platform=$2`, creatorID, platform)
	return scanCredential(row)
}

// getLegacy reads the pre-migration oauth_tokens table. user_id there is the
// account-owner identity, which the migration kept equal to the creator id;
// page_id/page_name map onto the channel/handle fields.
func (r *CredentialRepository) getLegacy(ctx context.Context, creatorID, platform string) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, page_id, page_name, created_at, updated_at
		FROM oauth_tokens WHERE user_id=$1 AND platform=$2`, creatorID, platform)
	cred := &model.Credential{}
	var exp sql.NullTime
	var channelID, handle sql.NullString
	if err := row.Scan(&cred.ID, &cred.CreatorID, &cred.Platform, &cred.AccessToken, &cred.RefreshToken, &exp, &cred.Scopes, &channelID, &handle, &cred.CreatedAt, &cred.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		cred.ExpiresAt = &exp.Time
	}
	if channelID.Valid {
		v := channelID.String
		cred.ChannelID = &v
	}
	if handle.Valid {
		v := handle.String
		cred.Handle = &v
	}
	return cred, nil
}

func scanCredential(row *sql.Row) (*model.Credential, error) {
	cred := &model.Credential{}
	var exp sql.NullTime
	var channelID, handle, bizID, username sql.NullString
	if err := row.Scan(&cred.ID, &cred.CreatorID, &cred.Platform, &cred.AccessToken, &cred.RefreshToken, &exp, &cred.Scopes, &channelID, &handle, &bizID, &username, &cred.CreatedAt, &cred.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		cred.ExpiresAt = &exp.Time
	}
	if channelID.Valid {
		v := channelID.String
		cred.ChannelID = &v
	}
	if handle.Valid {
		v := handle.String
		cred.Handle = &v
	}
	if bizID.Valid {
		v := bizID.String
		cred.BusinessAccountID = &v
	}
	if username.Valid {
		v := username.String
		cred.Username = &v
	}
	return cred, nil
}

// SaveToken persists the refreshed token fields onto the layout the read came
// from, so a legacy row keeps living in oauth_tokens until the creator
// reconnects and Upsert moves them to the current layout.
func (r *CredentialRepository) SaveToken(ctx context.Context, rc *repository.ResolvedCredential) error {
	cred := rc.Credential
	now := time.Now().UTC()
	cred.UpdatedAt = now
	var q string
	switch rc.Layout {
	case repository.LayoutLegacy:
		q = `UPDATE oauth_tokens SET access_token=$1, refresh_token=$2, expires_at=$3, updated_at=$4 WHERE user_id=$5 AND platform=$6`
	default:
		q = `UPDATE platform_credentials SET access_token=$1, refresh_token=$2, expires_at=$3, updated_at=$4 WHERE creator_id=$5 AND platform=$6`
	}
	_, err := r.db.ExecContext(ctx, q, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.UpdatedAt, cred.CreatorID, cred.Platform)
	return err
}

func (r *CredentialRepository) Upsert(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	q := `INSERT INTO platform_credentials (creator_id, platform, access_token, refresh_token, expires_at, scopes, channel_id, handle, business_account_id, username, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		  ON CONFLICT (creator_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			channel_id=EXCLUDED.channel_id,
			handle=EXCLUDED.handle,
			business_account_id=EXCLUDED.business_account_id,
			username=EXCLUDED.username,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, cred.CreatorID, cred.Platform, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.Scopes, cred.ChannelID, cred.Handle, cred.BusinessAccountID, cred.Username, cred.CreatedAt, cred.UpdatedAt)
	return err
}

// Delete removes the credential from both layouts. Only the explicit
// disconnect flow calls this.
func (r *CredentialRepository) Delete(ctx context.Context, creatorID, platform string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM platform_credentials WHERE creator_id=$1 AND platform=$2`, creatorID, platform); err != nil {
		return err
	}
	if r.hasLegacy {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE user_id=$1 AND platform=$2`, creatorID, platform); err != nil {
			return err
		}
	}
	return nil
}

func (r *CredentialRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Credential, error) {
	seen := map[string]struct{}{}
	var out []*model.Credential

	rows, err := r.db.QueryContext(ctx, `SELECT id, creator_id, platform, access_token, refresh_token, expires_at, scopes, channel_id, handle, business_account_id, username, created_at, updated_at
		FROM platform_credentials WHERE creator_id=$1`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		cred := &model.Credential{}
		var exp sql.NullTime
		var channelID, handle, bizID, username sql.NullString
		if err := rows.Scan(&cred.ID, &cred.CreatorID, &cred.Platform, &cred.AccessToken, &cred.RefreshToken, &exp, &cred.Scopes, &channelID, &handle, &bizID, &username, &cred.CreatedAt, &cred.UpdatedAt); err != nil {
			return nil, err
		}
		if exp.Valid {
			cred.ExpiresAt = &exp.Time
		}
		if channelID.Valid {
			v := channelID.String
			cred.ChannelID = &v
		}
		if handle.Valid {
			v := handle.String
			cred.Handle = &v
		}
		if bizID.Valid {
			v := bizID.String
			cred.BusinessAccountID = &v
		}
		if username.Valid {
			v := username.String
			cred.Username = &v
		}
		seen[cred.Platform] = struct{}{}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !r.hasLegacy {
		return out, nil
	}
	// Legacy rows surface only for platforms the current layout does not cover.
	for _, platform := range model.ConnectablePlatforms {
		if _, ok := seen[platform]; ok {
			continue
		}
		cred, err := r.getLegacy(ctx, creatorID, platform)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, nil
}
