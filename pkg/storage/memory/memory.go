// Package memory provides an in-memory implementation of storage.Store for
// testing and lightweight deployments. Records are stored in maps and lost
// when the process restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage"
)

// Store is an in-memory storage.Store. All methods are safe for concurrent
// use; a single RWMutex guards every table, which is plenty for test loads.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]api.User
	tokens   map[int64]api.Token
	posts    map[int64]api.Post
	comments map[int64]api.Comment
	nextID   int64
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[int64]api.User),
		tokens:   make(map[int64]api.Token),
		posts:    make(map[int64]api.Post),
		comments: make(map[int64]api.Comment),
		nextID:   1,
	}
}

// nextSerial returns the next record ID. Caller must hold mu.
func (s *Store) nextSerial() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// --- Users ---

// CreateUser inserts a new user, enforcing email and username uniqueness.
func (s *Store) CreateUser(_ context.Context, user api.User) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return api.User{}, storage.ErrConflict
		}
	}

	user.ID = s.nextSerial()
	s.users[user.ID] = user
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id int64) (api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return api.User{}, storage.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by exact email match.
func (s *Store) GetUserByEmail(_ context.Context, email string) (api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return api.User{}, storage.ErrNotFound
}

// GetUserByUsername retrieves a user by exact username match.
func (s *Store) GetUserByUsername(_ context.Context, username string) (api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return api.User{}, storage.ErrNotFound
}

// ListUsers returns one page of users ordered by ID.
func (s *Store) ListUsers(_ context.Context, page storage.Page) ([]api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]api.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page), nil
}

// UpdateUser applies the non-nil fields of upd.
func (s *Store) UpdateUser(_ context.Context, id int64, upd api.UpdatedUser) (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return api.User{}, storage.ErrNotFound
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	s.users[id] = user
	return user, nil
}

// DeleteUser removes a user, cascades to their tokens, and orphans their posts.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)

	for tid, tok := range s.tokens {
		if tok.UserID == id {
			delete(s.tokens, tid)
		}
	}
	for pid, post := range s.posts {
		if post.UserID != nil && *post.UserID == id {
			post.UserID = nil
			s.posts[pid] = post
		}
	}
	return nil
}

// --- Tokens ---

// CreateToken inserts a token row. The owning user must exist.
func (s *Store) CreateToken(_ context.Context, value string, userID int64) (api.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return api.Token{}, storage.ErrNotFound
	}
	for _, tok := range s.tokens {
		if tok.Value == value {
			return api.Token{}, storage.ErrConflict
		}
	}

	token := api.Token{ID: s.nextSerial(), Value: value, UserID: userID}
	s.tokens[token.ID] = token
	return token, nil
}

// GetTokenByValue retrieves a token row by exact value match.
func (s *Store) GetTokenByValue(_ context.Context, value string) (api.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tok := range s.tokens {
		if tok.Value == value {
			return tok, nil
		}
	}
	return api.Token{}, storage.ErrNotFound
}

// --- Posts ---

// CreatePost inserts a new post.
func (s *Store) CreatePost(_ context.Context, post api.NewPost) (api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.UserID != nil {
		if _, ok := s.users[*post.UserID]; !ok {
			return api.Post{}, storage.ErrNotFound
		}
	}

	p := api.Post{ID: s.nextSerial(), Title: post.Title, Body: post.Body, UserID: post.UserID}
	s.posts[p.ID] = p
	return p, nil
}

// GetPost retrieves a post by ID.
func (s *Store) GetPost(_ context.Context, id int64) (api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return api.Post{}, storage.ErrNotFound
	}
	return post, nil
}

// ListPosts returns one page of posts ordered by ID.
func (s *Store) ListPosts(_ context.Context, page storage.Page) ([]api.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]api.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page), nil
}

// UpdatePost applies the non-nil fields of upd.
func (s *Store) UpdatePost(_ context.Context, id int64, upd api.UpdatedPost) (api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return api.Post{}, storage.ErrNotFound
	}
	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.Body != nil {
		post.Body = *upd.Body
	}
	s.posts[id] = post
	return post, nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)

	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

// --- Comments ---

// CreateComment inserts a new comment. Both the user and post must exist.
func (s *Store) CreateComment(_ context.Context, comment api.NewComment) (api.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[comment.UserID]; !ok {
		return api.Comment{}, storage.ErrNotFound
	}
	if _, ok := s.posts[comment.PostID]; !ok {
		return api.Comment{}, storage.ErrNotFound
	}

	c := api.Comment{ID: s.nextSerial(), Body: comment.Body, UserID: comment.UserID, PostID: comment.PostID}
	s.comments[c.ID] = c
	return c, nil
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(_ context.Context, id int64) (api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return api.Comment{}, storage.ErrNotFound
	}
	return comment, nil
}

// ListComments returns one page of published comments ordered by ID.
func (s *Store) ListComments(_ context.Context, page storage.Page) ([]api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]api.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if c.Published {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page), nil
}

// UpdateComment applies the non-nil fields of upd.
func (s *Store) UpdateComment(_ context.Context, id int64, upd api.UpdatedComment) (api.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return api.Comment{}, storage.ErrNotFound
	}
	if upd.Body != nil {
		comment.Body = *upd.Body
	}
	if upd.Published != nil {
		comment.Published = *upd.Published
	}
	if upd.UserID != nil {
		comment.UserID = *upd.UserID
	}
	if upd.PostID != nil {
		comment.PostID = *upd.PostID
	}
	s.comments[id] = comment
	return comment, nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// ListPostComments returns all comments attached to the post.
func (s *Store) ListPostComments(_ context.Context, postID int64) ([]api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, storage.ErrNotFound
	}
	out := []api.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetPostComment returns a comment scoped to its post.
func (s *Store) GetPostComment(_ context.Context, postID, commentID int64) (api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[commentID]
	if !ok || comment.PostID != postID {
		return api.Comment{}, storage.ErrNotFound
	}
	return comment, nil
}

// ListUserComments returns all comments written by the user.
func (s *Store) ListUserComments(_ context.Context, userID int64) ([]api.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, storage.ErrNotFound
	}
	out := []api.Comment{}
	for _, c := range s.comments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error { return nil }

// Close satisfies storage.Store; nothing to release.
func (s *Store) Close() error { return nil }

// pageOf slices one page out of a sorted result set.
func pageOf[T any](all []T, page storage.Page) []T {
	start := page.Offset()
	if start < 0 || start >= int64(len(all)) {
		return []T{}
	}
	end := start + page.PerPage
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end]
}
