package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
)

func currentCredentialColumns() []string {
	return []string{"id", "creator_id", "platform", "access_token", "refresh_token", "expires_at", "scopes", "channel_id", "handle", "business_account_id", "username", "created_at", "updated_at"}
}

func TestCredentialRepository_Resolve_CurrentLayoutWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: true}

	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, creator_id, platform, access_token, refresh_token, expires_at, scopes, channel_id, handle, business_account_id, username, created_at, updated_at
		FROM platform_credentials WHERE creator_id=$1 AND platform=$2`)).
		WithArgs("42", "youtube").
		WillReturnRows(sqlmock.NewRows(currentCredentialColumns()).
			AddRow(int64(7), "42", "youtube", "at-current", "rt-current", expires, "scope-a", "UC123", "My Channel", nil, nil, now, now))

	res, err := repo.Resolve(context.Background(), "42", "youtube")
	require.NoError(t, err)
	require.Equal(t, repository.LayoutCurrent, res.Layout)
	require.Equal(t, "at-current", res.Credential.AccessToken)
	require.Equal(t, "UC123", *res.Credential.ChannelID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Resolve_FallsBackToLegacy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: true}

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM platform_credentials WHERE creator_id=$1 AND platform=$2`)).
		WithArgs("42", "youtube").
		WillReturnRows(sqlmock.NewRows(currentCredentialColumns()))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM oauth_tokens WHERE user_id=$1 AND platform=$2`)).
		WithArgs("42", "youtube").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "platform", "access_token", "refresh_token", "expires_at", "scopes", "page_id", "page_name", "created_at", "updated_at"}).
			AddRow(int64(3), "42", "youtube", "at-legacy", "rt-legacy", nil, "scope-b", "UC999", "Old Channel", now, now))

	res, err := repo.Resolve(context.Background(), "42", "youtube")
	require.NoError(t, err)
	require.Equal(t, repository.LayoutLegacy, res.Layout)
	require.Equal(t, "at-legacy", res.Credential.AccessToken)
	require.Nil(t, res.Credential.ExpiresAt)
	require.Equal(t, "UC999", *res.Credential.ChannelID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Resolve_NotFoundInEitherLayout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: true}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM platform_credentials`)).
		WithArgs("42", "tiktok").
		WillReturnRows(sqlmock.NewRows(currentCredentialColumns()))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM oauth_tokens`)).
		WithArgs("42", "tiktok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Resolve(context.Background(), "42", "tiktok")
	require.ErrorIs(t, err, repository.ErrCredentialNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Resolve_SkipsLegacyWhenTableAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: false}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM platform_credentials`)).
		WithArgs("42", "youtube").
		WillReturnRows(sqlmock.NewRows(currentCredentialColumns()))

	_, err = repo.Resolve(context.Background(), "42", "youtube")
	require.ErrorIs(t, err, repository.ErrCredentialNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SaveToken_WritesToResolvedLayout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: true}
	expires := time.Now().UTC().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE oauth_tokens SET access_token=$1, refresh_token=$2, expires_at=$3, updated_at=$4 WHERE user_id=$5 AND platform=$6`)).
		WithArgs("fresh", "rt", &expires, sqlmock.AnyArg(), "42", "youtube").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rc := &repository.ResolvedCredential{
		Credential: &model.Credential{CreatorID: "42", Platform: "youtube", AccessToken: "fresh", RefreshToken: "rt", ExpiresAt: &expires},
		Layout:     repository.LayoutLegacy,
	}
	require.NoError(t, repo.SaveToken(context.Background(), rc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Upsert_TargetsCurrentLayout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO platform_credentials`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cred := &model.Credential{CreatorID: "42", Platform: "instagram", AccessToken: "at", Scopes: "basic"}
	require.NoError(t, repo.Upsert(context.Background(), cred))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Delete_RemovesBothLayouts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CredentialRepository{db: db, hasLegacy: true}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM platform_credentials WHERE creator_id=$1 AND platform=$2`)).
		WithArgs("42", "youtube").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM oauth_tokens WHERE user_id=$1 AND platform=$2`)).
		WithArgs("42", "youtube").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "42", "youtube"))
	require.NoError(t, mock.ExpectationsWereMet())
}
