package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if Docker is not available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	// Verify podman is running.
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("plume_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// makeTestUser builds a user whose username and email are unique per call.
func makeTestUser() api.User {
	n := time.Now().UnixNano()
	return api.User{
		Name:           "Test User",
		Username:       fmt.Sprintf("user_%d", n),
		Email:          fmt.Sprintf("user_%d@example.com", n),
		HashedPassword: "$2a$04$notarealdigestbutitfits1234567890abcdefghijk",
	}
}

func TestPostgres_UserRoundtrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("CreateUser did not assign an ID")
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}
	if got.HashedPassword != user.HashedPassword {
		t.Error("hashed password did not survive the roundtrip")
	}

	byEmail, err := store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("lookup by email found ID %d, want %d", byEmail.ID, user.ID)
	}

	byUsername, err := store.GetUserByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Errorf("lookup by username found ID %d, want %d", byUsername.ID, user.ID)
	}
}

func TestPostgres_UserUniqueness(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	seed := makeTestUser()
	if _, err := store.CreateUser(ctx, seed); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := makeTestUser()
	dup.Email = seed.Email
	if _, err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate email: err = %v, want ErrConflict", err)
	}

	dup = makeTestUser()
	dup.Username = seed.Username
	if _, err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate username: err = %v, want ErrConflict", err)
	}
}

func TestPostgres_UpdateUserPartial(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	newName := "Renamed"
	got, err := store.UpdateUser(ctx, user.ID, api.UpdatedUser{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed")
	}
	if got.Username != user.Username || got.Email != user.Email {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestPostgres_DeleteUserCascades(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	post, err := store.CreatePost(ctx, api.NewPost{Title: "t", Body: "b", UserID: &user.ID})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := store.CreateToken(ctx, "tok-cascade", user.ID); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	// Tokens cascade with the user.
	if _, err := store.GetTokenByValue(ctx, "tok-cascade"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("token survived user deletion: err = %v", err)
	}

	// Posts are orphaned by ON DELETE SET NULL.
	got, err := store.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost after user deletion failed: %v", err)
	}
	if got.UserID != nil {
		t.Errorf("post.UserID = %v, want nil (orphaned)", *got.UserID)
	}
}

func TestPostgres_TokenConstraints(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := store.CreateToken(ctx, "tok-unique", user.ID); err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := store.CreateToken(ctx, "tok-unique", user.ID); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate value: err = %v, want ErrConflict", err)
	}
	if _, err := store.CreateToken(ctx, "tok-dangling", user.ID+100000); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("dangling user ID: err = %v, want ErrNotFound", err)
	}
}

func TestPostgres_PostLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	post, err := store.CreatePost(ctx, api.NewPost{Title: "Hello", Body: "World", UserID: &user.ID})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.Published {
		t.Error("new post should start unpublished")
	}

	newTitle := "Hello again"
	updated, err := store.UpdatePost(ctx, post.ID, api.UpdatedPost{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if updated.Title != newTitle || updated.Body != "World" {
		t.Errorf("update result: %+v", updated)
	}

	comment, err := store.CreateComment(ctx, api.NewComment{Body: "c", UserID: user.ID, PostID: post.ID})
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := store.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := store.GetComment(ctx, comment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("comment survived post deletion: err = %v", err)
	}
	if err := store.DeletePost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestPostgres_ListPostsPagination(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	for i := 0; i < 12; i++ {
		if _, err := store.CreatePost(ctx, api.NewPost{Title: fmt.Sprintf("p%d", i), Body: "b", UserID: &user.ID}); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	page1, err := store.ListPosts(ctx, storage.Page{Number: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page1) != 10 {
		t.Errorf("page 1: %d posts, want 10", len(page1))
	}

	page2, err := store.ListPosts(ctx, storage.Page{Number: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page2) != 2 {
		t.Errorf("page 2: %d posts, want 2", len(page2))
	}
	if page1[len(page1)-1].ID >= page2[0].ID {
		t.Errorf("pages overlap: %d >= %d", page1[len(page1)-1].ID, page2[0].ID)
	}
}

func TestPostgres_CommentVisibility(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	post, err := store.CreatePost(ctx, api.NewPost{Title: "t", Body: "b", UserID: &user.ID})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	published := true
	for i := 0; i < 3; i++ {
		c, err := store.CreateComment(ctx, api.NewComment{Body: fmt.Sprintf("c%d", i), UserID: user.ID, PostID: post.ID})
		if err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
		if i == 0 {
			if _, err := store.UpdateComment(ctx, c.ID, api.UpdatedComment{Published: &published}); err != nil {
				t.Fatalf("UpdateComment failed: %v", err)
			}
		}
	}

	visible, err := store.ListComments(ctx, storage.Page{Number: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("published listing: %d comments, want 1", len(visible))
	}

	// The nested post listing is not filtered.
	all, err := store.ListPostComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListPostComments failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("post comments: %d, want 3", len(all))
	}

	byUser, err := store.ListUserComments(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListUserComments failed: %v", err)
	}
	if len(byUser) != 3 {
		t.Errorf("user comments: %d, want 3", len(byUser))
	}
}

func TestPostgres_PostCommentScoping(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, makeTestUser())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	post1, err := store.CreatePost(ctx, api.NewPost{Title: "a", Body: "b", UserID: &user.ID})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	post2, err := store.CreatePost(ctx, api.NewPost{Title: "c", Body: "d", UserID: &user.ID})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	comment, err := store.CreateComment(ctx, api.NewComment{Body: "c", UserID: user.ID, PostID: post1.ID})
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if _, err := store.GetPostComment(ctx, post1.ID, comment.ID); err != nil {
		t.Errorf("GetPostComment on owning post failed: %v", err)
	}
	if _, err := store.GetPostComment(ctx, post2.ID, comment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("comment reachable through the wrong post: err = %v", err)
	}
	if _, err := store.ListPostComments(ctx, post2.ID+100000); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing post: err = %v, want ErrNotFound", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
