package persistence

import (
	"context"
	"database/sql"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
)

const videoColumns = `id, creator_id, title, description, content_url, thumbnail_url, platform_target, status, scheduled_at, claimed_at, posted_at, youtube_url, instagram_url, tiktok_url, error_message, created_at, updated_at`

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

var _ repository.IVideo = (*VideoRepository)(nil)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	v := &model.Video{}
	var contentURL, thumbnailURL, ytURL, igURL, ttURL, errMsg sql.NullString
	var scheduledAt, claimedAt, postedAt sql.NullTime
	err := row.Scan(&v.ID, &v.CreatorID, &v.Title, &v.Description, &contentURL, &thumbnailURL,
		&v.PlatformTarget, &v.Status, &scheduledAt, &claimedAt, &postedAt,
		&ytURL, &igURL, &ttURL, &errMsg, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if contentURL.Valid {
		s := contentURL.String
		v.ContentURL = &s
	}
	if thumbnailURL.Valid {
		s := thumbnailURL.String
		v.ThumbnailURL = &s
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		v.ScheduledAt = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		v.ClaimedAt = &t
	}
	if postedAt.Valid {
		t := postedAt.Time
		v.PostedAt = &t
	}
	if ytURL.Valid {
		s := ytURL.String
		v.YouTubeURL = &s
	}
	if igURL.Valid {
		s := igURL.String
		v.InstagramURL = &s
	}
	if ttURL.Valid {
		s := ttURL.String
		v.TikTokURL = &s
	}
	if errMsg.Valid {
		s := errMsg.String
		v.ErrorMessage = &s
	}
	return v, nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrVideoNotFound
	}
	return v, err
}

func (r *VideoRepository) ListByCreator(ctx context.Context, creatorID string) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE creator_id=$1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Upsert inserts the video or refreshes its mutable content fields when a row
// with the same id already exists. Status and scheduling fields are left
// untouched on conflict so a re-delivered upload callback cannot reset a
// video that already moved on.
func (r *VideoRepository) Upsert(ctx context.Context, v *model.Video) error {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	q := `INSERT INTO videos (` + videoColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		  ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title,
			description=EXCLUDED.description,
			content_url=COALESCE(EXCLUDED.content_url, videos.content_url),
			thumbnail_url=COALESCE(EXCLUDED.thumbnail_url, videos.thumbnail_url),
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, v.ID, v.CreatorID, v.Title, v.Description, v.ContentURL, v.ThumbnailURL,
		v.PlatformTarget, v.Status, v.ScheduledAt, v.ClaimedAt, v.PostedAt,
		v.YouTubeURL, v.InstagramURL, v.TikTokURL, v.ErrorMessage, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *VideoRepository) SetUploadResult(ctx context.Context, id string, contentURL, thumbnailURL *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET
			content_url=COALESCE($1, content_url),
			thumbnail_url=COALESCE($2, thumbnail_url),
			updated_at=$3
		WHERE id=$4`, contentURL, thumbnailURL, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *VideoRepository) SetPlatformTarget(ctx context.Context, id, platform string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET platform_target=$1, updated_at=$2 WHERE id=$3`,
		platform, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkScheduled moves the video to scheduled and wipes the terminal-state
// leftovers so a retried publish starts clean.
func (r *VideoRepository) MarkScheduled(ctx context.Context, id, platform string, scheduledAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET
			status=$1, platform_target=$2, scheduled_at=$3,
			claimed_at=NULL, posted_at=NULL, error_message=NULL,
			updated_at=$4
		WHERE id=$5`, model.StatusScheduled, platform, scheduledAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *VideoRepository) MarkPosted(ctx context.Context, id string, postedAt time.Time, platform string, resultURL *string) error {
	urlColumn := ""
	switch platform {
	case model.PlatformYouTube:
		urlColumn = "youtube_url"
	case model.PlatformInstagram:
		urlColumn = "instagram_url"
	case model.PlatformTikTok:
		urlColumn = "tiktok_url"
	}
	q := `UPDATE videos SET status=$1, posted_at=$2, claimed_at=NULL, error_message=NULL, updated_at=$3`
	args := []interface{}{model.StatusPosted, postedAt, time.Now().UTC()}
	if urlColumn != "" && resultURL != nil {
		q += `, ` + urlColumn + `=$4 WHERE id=$5`
		args = append(args, *resultURL, id)
	} else {
		q += ` WHERE id=$4`
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *VideoRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET status=$1, error_message=$2, claimed_at=NULL, updated_at=$3 WHERE id=$4`,
		model.StatusFailed, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FetchPending returns videos due for posting: scheduled rows whose time has
// come, plus claimed rows whose claim has gone stale (the worker that claimed
// them never reported back). The stale cutoff comes from the wall clock, not
// the caller's horizon, so a poll with a future before cannot resurface a row
// before its visibility timeout has actually elapsed.
func (r *VideoRepository) FetchPending(ctx context.Context, before time.Time, limit int, reclaimAfter time.Duration) ([]*model.Video, error) {
	staleBefore := time.Now().UTC().Add(-reclaimAfter)
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos
		WHERE (status=$1 AND scheduled_at <= $2)
		   OR (status=$3 AND claimed_at <= $4)
		ORDER BY scheduled_at ASC
		LIMIT $5`, model.StatusScheduled, before, model.StatusClaimed, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Claim atomically transitions scheduled->claimed (or re-claims a stale
// claim). Returns false when another poller got there first.
func (r *VideoRepository) Claim(ctx context.Context, id string, now time.Time, reclaimAfter time.Duration) (bool, error) {
	staleBefore := now.Add(-reclaimAfter)
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET status=$1, claimed_at=$2, updated_at=$2
		WHERE id=$3 AND (status=$4 OR (status=$1 AND claimed_at <= $5))`,
		model.StatusClaimed, now, id, model.StatusScheduled, staleBefore)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVideoNotFound
	}
	return nil
}
