package storage

import (
	"context"

	"github.com/plume-dev/plume/pkg/api"
)

// Page bounds a list query. Offset-based: page numbers start at 1.
type Page struct {
	Number  int64
	PerPage int64
}

// Offset returns the row offset for the page.
func (p Page) Offset() int64 {
	return p.PerPage * (p.Number - 1)
}

// Users are the methods on a storage implementation responsible for
// accessing and modifying user accounts.
type Users interface {
	// CreateUser inserts a new user. The HashedPassword field must already
	// contain a digest; stores never hash. An ErrConflict is returned when
	// the email or username is taken.
	CreateUser(ctx context.Context, user api.User) (api.User, error)
	// GetUser returns the user with the given ID, or ErrNotFound.
	GetUser(ctx context.Context, id int64) (api.User, error)
	// GetUserByEmail returns the user with the given email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (api.User, error)
	// GetUserByUsername returns the user with the given username, or ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (api.User, error)
	// ListUsers returns one page of users ordered by ID.
	ListUsers(ctx context.Context, page Page) ([]api.User, error)
	// UpdateUser applies the non-nil fields of upd and returns the updated
	// record, or ErrNotFound.
	UpdateUser(ctx context.Context, id int64, upd api.UpdatedUser) (api.User, error)
	// DeleteUser removes a user. Their tokens are removed with them; their
	// posts are orphaned. Returns ErrNotFound if the ID does not exist.
	DeleteUser(ctx context.Context, id int64) error
}

// Tokens are the methods responsible for persisted bearer tokens.
type Tokens interface {
	// CreateToken inserts a token row binding value to userID. The user must
	// exist; a dangling user ID is a foreign-key violation, not a silent
	// insert. Duplicate values return ErrConflict.
	CreateToken(ctx context.Context, value string, userID int64) (api.Token, error)
	// GetTokenByValue returns the token row matching value exactly, or
	// ErrNotFound.
	GetTokenByValue(ctx context.Context, value string) (api.Token, error)
}

// Posts are the methods responsible for blog posts.
type Posts interface {
	CreatePost(ctx context.Context, post api.NewPost) (api.Post, error)
	GetPost(ctx context.Context, id int64) (api.Post, error)
	ListPosts(ctx context.Context, page Page) ([]api.Post, error)
	UpdatePost(ctx context.Context, id int64, upd api.UpdatedPost) (api.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// Comments are the methods responsible for comments.
type Comments interface {
	CreateComment(ctx context.Context, comment api.NewComment) (api.Comment, error)
	GetComment(ctx context.Context, id int64) (api.Comment, error)
	// ListComments returns one page of published comments.
	ListComments(ctx context.Context, page Page) ([]api.Comment, error)
	UpdateComment(ctx context.Context, id int64, upd api.UpdatedComment) (api.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	// ListPostComments returns all comments on a post. ErrNotFound is
	// returned when the post itself does not exist.
	ListPostComments(ctx context.Context, postID int64) ([]api.Comment, error)
	// GetPostComment returns the comment only if it belongs to the post.
	GetPostComment(ctx context.Context, postID, commentID int64) (api.Comment, error)
	// ListUserComments returns all comments written by a user. ErrNotFound
	// is returned when the user does not exist.
	ListUserComments(ctx context.Context, userID int64) ([]api.Comment, error)
}

// Store is the combination interface implemented by the storage adapters.
type Store interface {
	Users
	Tokens
	Posts
	Comments
	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}
