package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Repository interface {
	CreateVideo(ctx context.Context, v *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	ListVideos(ctx context.Context) ([]*Video, error)
	UpdateVideoTranscript(ctx context.Context, id string, transcript []TranscriptSegment) error

	ReplaceShorts(ctx context.Context, videoID string, shorts []Short) error
	UpdateShort(ctx context.Context, s Short) error
	MarkShortSaved(ctx context.Context, videoID, id string, at time.Time) error
	GetShort(ctx context.Context, videoID, id string) (*Short, error)
	ListShorts(ctx context.Context, videoID string) ([]Short, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	SetJobBackendID(ctx context.Context, id, backendJobID string) error
	SetJobVideo(ctx context.Context, id, videoID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const videoColumns = `id, name, duration_s, upload_date, thumbnail_url, video_url, source_path, context_json, is_youtube, job_id, transcript_json`

func (r *SQLiteRepository) CreateVideo(ctx context.Context, v *Video) error {
	ctxJSON, err := marshalNullable(v.Context, v.Context == nil)
	if err != nil {
		return err
	}
	trJSON, err := marshalNullable(v.Transcript, len(v.Transcript) == 0)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.Name, float64(v.Duration), v.UploadDate.UTC().Format(time.RFC3339),
		nullString(v.ThumbnailURL), nullString(v.VideoURL), nullString(v.SourcePath),
		ctxJSON, boolToInt(v.IsYoutubeVideo), nullString(v.JobID), trJSON)
	return err
}

func (r *SQLiteRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *SQLiteRepository) ListVideos(ctx context.Context) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY upload_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*Video, error) {
	var v Video
	var duration float64
	var uploadDate string
	var isYoutube int
	var thumb, videoURL, sourcePath, ctxJSON, jobID, trJSON sql.NullString

	if err := row.Scan(&v.ID, &v.Name, &duration, &uploadDate, &thumb, &videoURL, &sourcePath,
		&ctxJSON, &isYoutube, &jobID, &trJSON); err != nil {
		return nil, err
	}

	v.Duration = Duration(duration)
	v.UploadDate, _ = time.Parse(time.RFC3339, uploadDate)
	v.ThumbnailURL = thumb.String
	v.VideoURL = videoURL.String
	v.SourcePath = sourcePath.String
	v.IsYoutubeVideo = isYoutube == 1
	v.JobID = jobID.String
	if ctxJSON.Valid {
		var c VideoContext
		if err := json.Unmarshal([]byte(ctxJSON.String), &c); err == nil {
			v.Context = &c
		}
	}
	if trJSON.Valid {
		_ = json.Unmarshal([]byte(trJSON.String), &v.Transcript)
	}
	return &v, nil
}

func (r *SQLiteRepository) UpdateVideoTranscript(ctx context.Context, id string, transcript []TranscriptSegment) error {
	trJSON, err := marshalNullable(transcript, len(transcript) == 0)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE videos SET transcript_json = ? WHERE id = ?", trJSON, id)
	return err
}

const shortColumns = `id, video_id, title, trim_start, trim_end, duration, timestamp, thumbnail_url, video_url, is_youtube, transcript, captions, explanation, hashtags_json, saved_at, created_at, updated_at`

// ReplaceShorts swaps the generated batch for a video in one transaction,
// keeping the slice order.
func (r *SQLiteRepository) ReplaceShorts(ctx context.Context, videoID string, shorts []Short) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shorts WHERE video_id = ?", videoID); err != nil {
		return err
	}

	for i, s := range shorts {
		tags, err := marshalNullable(s.Hashtags, len(s.Hashtags) == 0)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO shorts (id, video_id, position, title, trim_start, trim_end, duration, timestamp,
				thumbnail_url, video_url, is_youtube, transcript, captions, explanation, hashtags_json,
				saved_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ID, videoID, i, s.Title, s.TrimStart, s.TrimEnd, s.Duration, s.Timestamp,
			nullString(s.ThumbnailURL), nullString(s.VideoURL), boolToInt(s.IsYoutubeVideo),
			nullString(s.Transcript), nullString(s.Captions), nullString(s.Explanation), tags,
			nullTime(s.SavedAt), s.CreatedAt.UTC().Format(time.RFC3339), s.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) UpdateShort(ctx context.Context, s Short) error {
	tags, err := marshalNullable(s.Hashtags, len(s.Hashtags) == 0)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shorts SET title = ?, trim_start = ?, trim_end = ?, duration = ?, timestamp = ?,
			captions = ?, explanation = ?, hashtags_json = ?, updated_at = ?
		WHERE video_id = ? AND id = ?
	`, s.Title, s.TrimStart, s.TrimEnd, s.Duration, s.Timestamp,
		nullString(s.Captions), nullString(s.Explanation), tags, s.UpdatedAt.UTC().Format(time.RFC3339),
		s.VideoID, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteRepository) MarkShortSaved(ctx context.Context, videoID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE shorts SET saved_at = ? WHERE video_id = ? AND id = ?",
		at.UTC().Format(time.RFC3339), videoID, id)
	return err
}

func (r *SQLiteRepository) GetShort(ctx context.Context, videoID, id string) (*Short, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+shortColumns+` FROM shorts WHERE video_id = ? AND id = ?`, videoID, id)
	s, err := scanShort(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepository) ListShorts(ctx context.Context, videoID string) ([]Short, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shortColumns+` FROM shorts WHERE video_id = ? ORDER BY position`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shorts []Short
	for rows.Next() {
		s, err := scanShort(rows)
		if err != nil {
			return nil, err
		}
		shorts = append(shorts, s)
	}
	return shorts, rows.Err()
}

func scanShort(row scanner) (Short, error) {
	var s Short
	var isYoutube int
	var thumb, videoURL, transcript, captions, explanation, tags, savedAt sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&s.ID, &s.VideoID, &s.Title, &s.TrimStart, &s.TrimEnd, &s.Duration, &s.Timestamp,
		&thumb, &videoURL, &isYoutube, &transcript, &captions, &explanation, &tags, &savedAt,
		&createdAt, &updatedAt); err != nil {
		return Short{}, err
	}

	s.IsShort = true
	s.IsYoutubeVideo = isYoutube == 1
	s.ThumbnailURL = thumb.String
	s.VideoURL = videoURL.String
	s.Transcript = transcript.String
	s.Captions = captions.String
	s.Explanation = explanation.String
	if tags.Valid {
		_ = json.Unmarshal([]byte(tags.String), &s.Hashtags)
	}
	if savedAt.Valid {
		s.SavedAt, _ = time.Parse(time.RFC3339, savedAt.String)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO upload_jobs (id, source_kind, source, backend_job_id, video_id, status, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.SourceKind, j.Source, nullString(j.BackendJobID), nullString(j.VideoID), j.Status, j.Progress,
		nullString(j.Error), j.CreatedAt.UTC().Format(time.RFC3339), j.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

const jobColumns = `id, source_kind, source, backend_job_id, video_id, status, progress, error, created_at, updated_at`

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM upload_jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM upload_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var backendID, videoID, errMsg sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&j.ID, &j.SourceKind, &j.Source, &backendID, &videoID, &j.Status, &j.Progress,
		&errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	j.BackendJobID = backendID.String
	j.VideoID = videoID.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) SetJobBackendID(ctx context.Context, id, backendJobID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET backend_job_id = ?, updated_at = ? WHERE id = ?
	`, backendJobID, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) SetJobVideo(ctx context.Context, id, videoID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs SET video_id = ?, updated_at = ? WHERE id = ?
	`, videoID, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (r *SQLiteRepository) DeleteConfig(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalNullable(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
