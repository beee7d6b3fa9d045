package api

// ---------------------------------------------------------------------------
// Persisted records
// ---------------------------------------------------------------------------

// User is a registered account. HashedPassword is nullable in the database:
// accounts created through administrative inserts may have no password and
// can therefore never log in with Basic credentials.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
}

// Token is a persisted bearer credential. Value is the signed string the
// client presents in the Authorization header; it is unique across all rows.
type Token struct {
	ID     int64  `json:"-"`
	Value  string `json:"value"`
	UserID int64  `json:"-"`
}

// Post is a blog entry. UserID is nullable: posts survive the deletion of
// their author as orphans.
type Post struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
	UserID    *int64 `json:"user_id"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
	UserID    int64  `json:"user_id"`
	PostID    int64  `json:"post_id"`
}

// ---------------------------------------------------------------------------
// Mutation payloads
// ---------------------------------------------------------------------------

// NewUser is the signup payload. Password arrives in plaintext and is hashed
// by the handler before the record reaches the store.
type NewUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatedUser is a partial update; nil fields are left untouched. Password
// changes are deliberately excluded from this payload.
type UpdatedUser struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// NewPost is the post creation payload.
type NewPost struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID *int64 `json:"user_id"`
}

// UpdatedPost is a partial update; nil fields are left untouched.
type UpdatedPost struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// NewComment is the comment creation payload.
type NewComment struct {
	Body   string `json:"body"`
	UserID int64  `json:"user_id"`
	PostID int64  `json:"post_id"`
}

// UpdatedComment is a partial update; nil fields are left untouched.
type UpdatedComment struct {
	Body      *string `json:"body"`
	Published *bool   `json:"published"`
	UserID    *int64  `json:"user_id"`
	PostID    *int64  `json:"post_id"`
}

// ---------------------------------------------------------------------------
// Auth payloads
// ---------------------------------------------------------------------------

// LoginRequest is the credential payload accepted by POST /api/v1/login,
// either as JSON or form-encoded fields.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the freshly issued token value back to the client.
type LoginResponse struct {
	Token string `json:"token"`
}
