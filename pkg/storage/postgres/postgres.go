// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling: each operation acquires, uses, and
// releases one pooled connection inside its own bounded context, so a
// saturated pool fails the request instead of queueing without limit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
	cfg  Config
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, cfg: cfg}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// bounded derives a context that caps the wait for a pool connection plus the
// query itself. The pool blocks on checkout; this deadline turns exhaustion
// into an error instead of an unbounded queue.
func (s *Store) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.AcquireTimeout)
}

// --- Users ---

// CreateUser inserts a new user and returns the assigned row.
func (s *Store) CreateUser(ctx context.Context, user api.User) (api.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, username, email, hashed_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, user.Name, user.Username, user.Email, nullString(user.HashedPassword)).Scan(&user.ID)

	if isUniqueViolation(err) {
		return api.User{}, storage.ErrConflict
	}
	if err != nil {
		return api.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (api.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves a user by exact email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (api.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

// GetUserByUsername retrieves a user by exact username match.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (api.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

// getUser is the shared single-row user lookup.
func (s *Store) getUser(ctx context.Context, where string, arg any) (api.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var user api.User
	var hashed *string
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, username, email, hashed_password FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Name, &user.Username, &user.Email, &hashed)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.User{}, storage.ErrNotFound
	}
	if err != nil {
		return api.User{}, fmt.Errorf("querying user: %w", err)
	}
	if hashed != nil {
		user.HashedPassword = *hashed
	}
	return user, nil
}

// ListUsers returns one page of users ordered by ID.
func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]api.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, username, email, hashed_password
		FROM users ORDER BY id LIMIT $1 OFFSET $2
	`, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []api.User{}
	for rows.Next() {
		var user api.User
		var hashed *string
		if err := rows.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &hashed); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if hashed != nil {
			user.HashedPassword = *hashed
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser applies the non-nil fields of upd and returns the updated row.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd api.UpdatedUser) (api.User, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	sets := []string{}
	args := []any{id}
	add := func(col string, val *string) {
		if val != nil {
			args = append(args, *val)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("name", upd.Name)
	add("username", upd.Username)
	add("email", upd.Email)

	if len(sets) == 0 {
		return s.GetUser(ctx, id)
	}

	var user api.User
	var hashed *string
	err := s.pool.QueryRow(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+
			" WHERE id = $1 RETURNING id, name, username, email, hashed_password",
		args...,
	).Scan(&user.ID, &user.Name, &user.Username, &user.Email, &hashed)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.User{}, storage.ErrNotFound
	}
	if isUniqueViolation(err) {
		return api.User{}, storage.ErrConflict
	}
	if err != nil {
		return api.User{}, fmt.Errorf("updating user: %w", err)
	}
	if hashed != nil {
		user.HashedPassword = *hashed
	}
	return user, nil
}

// DeleteUser removes a user. Tokens cascade; posts are orphaned by the
// schema's ON DELETE SET NULL.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Tokens ---

// CreateToken inserts a token row bound to userID.
func (s *Store) CreateToken(ctx context.Context, value string, userID int64) (api.Token, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	token := api.Token{Value: value, UserID: userID}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tokens (value, user_id) VALUES ($1, $2) RETURNING id
	`, value, userID).Scan(&token.ID)

	if isUniqueViolation(err) {
		return api.Token{}, storage.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return api.Token{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Token{}, fmt.Errorf("inserting token: %w", err)
	}
	return token, nil
}

// GetTokenByValue retrieves a token row by exact value match.
func (s *Store) GetTokenByValue(ctx context.Context, value string) (api.Token, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var token api.Token
	err := s.pool.QueryRow(ctx,
		"SELECT id, value, user_id FROM tokens WHERE value = $1", value,
	).Scan(&token.ID, &token.Value, &token.UserID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Token{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Token{}, fmt.Errorf("querying token: %w", err)
	}
	return token, nil
}

// --- Posts ---

// CreatePost inserts a new post and returns the assigned row.
func (s *Store) CreatePost(ctx context.Context, post api.NewPost) (api.Post, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	p := api.Post{Title: post.Title, Body: post.Body, UserID: post.UserID}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (title, body, user_id) VALUES ($1, $2, $3)
		RETURNING id, published
	`, post.Title, post.Body, post.UserID).Scan(&p.ID, &p.Published)

	if isForeignKeyViolation(err) {
		return api.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Post{}, fmt.Errorf("inserting post: %w", err)
	}
	return p, nil
}

// GetPost retrieves a post by ID.
func (s *Store) GetPost(ctx context.Context, id int64) (api.Post, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var post api.Post
	err := s.pool.QueryRow(ctx,
		"SELECT id, title, body, published, user_id FROM posts WHERE id = $1", id,
	).Scan(&post.ID, &post.Title, &post.Body, &post.Published, &post.UserID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Post{}, fmt.Errorf("querying post: %w", err)
	}
	return post, nil
}

// ListPosts returns one page of posts ordered by ID.
func (s *Store) ListPosts(ctx context.Context, page storage.Page) ([]api.Post, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, body, published, user_id
		FROM posts ORDER BY id LIMIT $1 OFFSET $2
	`, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	return collectRows(rows, func(rows pgx.Rows) (api.Post, error) {
		var post api.Post
		err := rows.Scan(&post.ID, &post.Title, &post.Body, &post.Published, &post.UserID)
		return post, err
	})
}

// UpdatePost applies the non-nil fields of upd and returns the updated row.
func (s *Store) UpdatePost(ctx context.Context, id int64, upd api.UpdatedPost) (api.Post, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	sets := []string{}
	args := []any{id}
	if upd.Title != nil {
		args = append(args, *upd.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if upd.Body != nil {
		args = append(args, *upd.Body)
		sets = append(sets, fmt.Sprintf("body = $%d", len(args)))
	}

	if len(sets) == 0 {
		return s.GetPost(ctx, id)
	}

	var post api.Post
	err := s.pool.QueryRow(ctx,
		"UPDATE posts SET "+strings.Join(sets, ", ")+
			" WHERE id = $1 RETURNING id, title, body, published, user_id",
		args...,
	).Scan(&post.ID, &post.Title, &post.Body, &post.Published, &post.UserID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Post{}, fmt.Errorf("updating post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post; its comments cascade.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Comments ---

// CreateComment inserts a new comment and returns the assigned row.
func (s *Store) CreateComment(ctx context.Context, comment api.NewComment) (api.Comment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	c := api.Comment{Body: comment.Body, UserID: comment.UserID, PostID: comment.PostID}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (body, user_id, post_id) VALUES ($1, $2, $3)
		RETURNING id, published
	`, comment.Body, comment.UserID, comment.PostID).Scan(&c.ID, &c.Published)

	if isForeignKeyViolation(err) {
		return api.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Comment{}, fmt.Errorf("inserting comment: %w", err)
	}
	return c, nil
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, id int64) (api.Comment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var comment api.Comment
	err := s.pool.QueryRow(ctx,
		"SELECT id, body, published, user_id, post_id FROM comments WHERE id = $1", id,
	).Scan(&comment.ID, &comment.Body, &comment.Published, &comment.UserID, &comment.PostID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Comment{}, fmt.Errorf("querying comment: %w", err)
	}
	return comment, nil
}

// ListComments returns one page of published comments ordered by ID.
func (s *Store) ListComments(ctx context.Context, page storage.Page) ([]api.Comment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, body, published, user_id, post_id
		FROM comments WHERE published = TRUE ORDER BY id LIMIT $1 OFFSET $2
	`, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	return scanCommentRows(rows)
}

// UpdateComment applies the non-nil fields of upd and returns the updated row.
func (s *Store) UpdateComment(ctx context.Context, id int64, upd api.UpdatedComment) (api.Comment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	sets := []string{}
	args := []any{id}
	if upd.Body != nil {
		args = append(args, *upd.Body)
		sets = append(sets, fmt.Sprintf("body = $%d", len(args)))
	}
	if upd.Published != nil {
		args = append(args, *upd.Published)
		sets = append(sets, fmt.Sprintf("published = $%d", len(args)))
	}
	if upd.UserID != nil {
		args = append(args, *upd.UserID)
		sets = append(sets, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if upd.PostID != nil {
		args = append(args, *upd.PostID)
		sets = append(sets, fmt.Sprintf("post_id = $%d", len(args)))
	}

	if len(sets) == 0 {
		return s.GetComment(ctx, id)
	}

	var comment api.Comment
	err := s.pool.QueryRow(ctx,
		"UPDATE comments SET "+strings.Join(sets, ", ")+
			" WHERE id = $1 RETURNING id, body, published, user_id, post_id",
		args...,
	).Scan(&comment.ID, &comment.Body, &comment.Published, &comment.UserID, &comment.PostID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Comment{}, storage.ErrNotFound
	}
	if isForeignKeyViolation(err) {
		return api.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Comment{}, fmt.Errorf("updating comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPostComments returns all comments attached to the post.
func (s *Store) ListPostComments(ctx context.Context, postID int64) ([]api.Comment, error) {
	// Surface a missing post as not-found rather than an empty list.
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, body, published, user_id, post_id
		FROM comments WHERE post_id = $1 ORDER BY id
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying post comments: %w", err)
	}
	defer rows.Close()

	return scanCommentRows(rows)
}

// GetPostComment returns a comment scoped to its post.
func (s *Store) GetPostComment(ctx context.Context, postID, commentID int64) (api.Comment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var comment api.Comment
	err := s.pool.QueryRow(ctx, `
		SELECT id, body, published, user_id, post_id
		FROM comments WHERE post_id = $1 AND id = $2
	`, postID, commentID).Scan(&comment.ID, &comment.Body, &comment.Published, &comment.UserID, &comment.PostID)

	if errors.Is(err, pgx.ErrNoRows) {
		return api.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return api.Comment{}, fmt.Errorf("querying post comment: %w", err)
	}
	return comment, nil
}

// ListUserComments returns all comments written by the user.
func (s *Store) ListUserComments(ctx context.Context, userID int64) ([]api.Comment, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, body, published, user_id, post_id
		FROM comments WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user comments: %w", err)
	}
	defer rows.Close()

	return scanCommentRows(rows)
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// --- helpers ---

// scanCommentRows collects comment rows.
func scanCommentRows(rows pgx.Rows) ([]api.Comment, error) {
	return collectRows(rows, func(rows pgx.Rows) (api.Comment, error) {
		var c api.Comment
		err := rows.Scan(&c.ID, &c.Body, &c.Published, &c.UserID, &c.PostID)
		return c, err
	})
}

// collectRows drains a row set through the given scan function.
func collectRows[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation checks for a PostgreSQL unique violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation checks for a PostgreSQL foreign key violation (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
