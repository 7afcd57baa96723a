package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/repository/sqlite"
	"taskboard/internal/storage"
)

type testEnv struct {
	users    UserService
	projects ProjectService
	tasks    TaskService
	comments CommentService

	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	commentRepo repository.TaskCommentRepository
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		userRepo:    sqlite.NewUserRepository(db),
		projectRepo: sqlite.NewProjectRepository(db),
		taskRepo:    sqlite.NewTaskRepository(db),
		commentRepo: sqlite.NewTaskCommentRepository(db),
	}
	if err := sqlite.InitSchema(context.Background(), env.userRepo, env.projectRepo, env.taskRepo, env.commentRepo); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	hasher := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
	env.users, err = NewUserService(env.userRepo, hasher)
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	env.projects = NewProjectService(env.projectRepo)
	env.tasks = NewTaskService(env.projectRepo, env.taskRepo)
	env.comments = NewCommentService(env.taskRepo, env.commentRepo)
	return env
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), domain.RegisterInput{Email: email, Password: "password123", Name: "User " + email})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, domain.RegisterInput{Email: " Ada@Example.com", Password: "password123", Name: "Ada"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatal("password hash leaked from Register")
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email = %q", u.Email)
	}

	got, err := env.users.Authenticate(ctx, "ADA@example.com ", "password123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "" {
		t.Fatalf("unexpected user %#v", got)
	}

	if _, err := env.users.Authenticate(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := env.users.Authenticate(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
	if _, err := env.users.Authenticate(ctx, "ada@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty password: %v", err)
	}
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	env := setupServices(t)
	env.register(t, "ada@example.com")

	_, err := env.users.Register(context.Background(), domain.RegisterInput{Email: "ADA@example.com", Password: "password123", Name: "Ada"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}

	_, err = env.users.Register(context.Background(), domain.RegisterInput{Email: "bad", Password: "x", Name: "Ada"})
	var fieldErrs domain.FieldErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.register(t, "ada@example.com")

	name := "Ada Lovelace"
	password := "new-password-1"
	updated, err := env.users.UpdateProfile(ctx, u.ID, domain.UpdateProfileInput{Name: &name, Password: &password})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name = %q", updated.Name)
	}
	if _, err := env.users.Authenticate(ctx, "ada@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted")
	}
	if _, err := env.users.Authenticate(ctx, "ada@example.com", password); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestLocalStrategyDelegates(t *testing.T) {
	env := setupServices(t)
	u := env.register(t, "ada@example.com")

	var strategy auth.LocalStrategy = LocalStrategy{Users: env.users}
	got, err := strategy.Validate(context.Background(), "ada@example.com", "password123")
	if err != nil || got.ID != u.ID {
		t.Fatalf("validate: %v %#v", err, got)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	ada := env.register(t, "ada@example.com")
	bob := env.register(t, "bob@example.com")

	_, err := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: strings.Repeat("x", 101)})
	var fieldErrs domain.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if list, _ := env.projects.ListProjects(ctx); len(list) != 0 {
		t.Fatal("invalid project reached persistence")
	}

	p, err := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: "  Launch  ", Description: " v1 "})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Name != "Launch" || p.Description != "v1" || p.CreatedBy != ada.ID {
		t.Fatalf("unexpected project %#v", p)
	}

	rename := "Launch v2"
	if _, err := env.projects.UpdateProject(ctx, bob.ID, p.ID, domain.UpdateProjectInput{Name: &rename}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner update: %v", err)
	}
	updated, err := env.projects.UpdateProject(ctx, ada.ID, p.ID, domain.UpdateProjectInput{Name: &rename})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != rename || updated.Description != "v1" {
		t.Fatalf("unexpected update result %#v", updated)
	}

	if err := env.projects.DeleteProject(ctx, bob.ID, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner delete: %v", err)
	}
	if err := env.projects.DeleteProject(ctx, ada.ID, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.projects.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTaskRemovesComments(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	ada := env.register(t, "ada@example.com")
	bob := env.register(t, "bob@example.com")

	p, err := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: "Board"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task, err := env.tasks.CreateTask(ctx, bob.ID, p.ID, domain.CreateTaskInput{Title: "Write docs"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	for _, text := range []string{"first", "second"} {
		if _, err := env.comments.AddComment(ctx, ada.ID, task.ID, domain.CommentInput{Comment: text}); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}

	// project owner may delete a task created by someone else
	if err := env.tasks.DeleteTask(ctx, ada.ID, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := env.comments.ListComments(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound listing comments of deleted task, got %v", err)
	}
	remaining, err := env.commentRepo.ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("%d comments survived task deletion", len(remaining))
	}
}

func TestDeleteTaskForbidden(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	ada := env.register(t, "ada@example.com")
	eve := env.register(t, "eve@example.com")

	p, _ := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: "Board"})
	task, err := env.tasks.CreateTask(ctx, ada.ID, p.ID, domain.CreateTaskInput{Title: "Mine"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := env.tasks.DeleteTask(ctx, eve.ID, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.tasks.CreateTask(ctx, ada.ID, 999, domain.CreateTaskInput{Title: "Orphan"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("task in missing project: %v", err)
	}
}

func TestEditAndDeleteComment(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	ada := env.register(t, "ada@example.com")
	bob := env.register(t, "bob@example.com")

	p, _ := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: "Board"})
	task, _ := env.tasks.CreateTask(ctx, ada.ID, p.ID, domain.CreateTaskInput{Title: "Review"})
	c, err := env.comments.AddComment(ctx, ada.ID, task.ID, domain.CommentInput{Comment: "draft"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}

	edited, err := env.comments.EditComment(ctx, bob.ID, c.ID, domain.CommentInput{Comment: " final "})
	if err != nil {
		t.Fatalf("edit comment: %v", err)
	}
	if edited.Comment != "final" || edited.LastUpdatedBy != bob.ID || edited.CreatedBy != ada.ID {
		t.Fatalf("unexpected comment %#v", edited)
	}

	if err := env.comments.DeleteComment(ctx, bob.ID, c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author delete: %v", err)
	}
	if err := env.comments.DeleteComment(ctx, ada.ID, c.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := env.comments.AddComment(ctx, ada.ID, task.ID, domain.CommentInput{Comment: ""}); err == nil {
		t.Fatal("empty comment accepted")
	}
}

type stubStorage struct {
	puts    map[string][]byte
	deleted []string
	listed  string
}

func (s *stubStorage) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[key] = data
	return "s3://" + bucket + "/" + key, nil
}

func (s *stubStorage) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	s.listed = prefix
	var out []storage.ObjectInfo
	for key, data := range s.puts {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (s *stubStorage) DeletePrefix(_ context.Context, _, prefix string) error {
	s.deleted = append(s.deleted, prefix)
	return nil
}

func (s *stubStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example.com/" + key + "?signed", nil
}

func TestExportProject(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	ada := env.register(t, "ada@example.com")
	p, _ := env.projects.CreateProject(ctx, ada.ID, domain.CreateProjectInput{Name: "Board"})
	task, _ := env.tasks.CreateTask(ctx, ada.ID, p.ID, domain.CreateTaskInput{Title: "Ship"})
	if _, err := env.comments.AddComment(ctx, ada.ID, task.ID, domain.CommentInput{Comment: "done soon"}); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	store := &stubStorage{}
	exports := NewExportService(ExportConfig{Bucket: "exports", KeyPrefix: "/taskboard/"}, store, env.projectRepo, env.taskRepo, env.commentRepo)

	res, err := exports.ExportProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantPrefix := "taskboard/projects/" + strconv.FormatInt(p.ID, 10) + "/"
	if !strings.HasPrefix(res.Key, wantPrefix) || !strings.HasSuffix(res.Key, ".json") {
		t.Fatalf("unexpected key %q", res.Key)
	}
	if res.Location != "s3://exports/"+res.Key || !strings.HasSuffix(res.URL, "?signed") {
		t.Fatalf("unexpected result %#v", res)
	}

	var snap projectSnapshot
	if err := json.NewDecoder(bytes.NewReader(store.puts[res.Key])).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Name != "Board" || len(snap.Tasks) != 1 || len(snap.Tasks[0].Comments) != 1 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}

	objects, err := exports.ListExports(ctx, p.ID)
	if err != nil || len(objects) != 1 || store.listed != wantPrefix {
		t.Fatalf("list exports: %v %#v (prefix %q)", err, objects, store.listed)
	}

	if err := exports.PurgeExports(ctx, p.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != wantPrefix {
		t.Fatalf("unexpected deletes %#v", store.deleted)
	}
}

func TestExportDisabled(t *testing.T) {
	env := setupServices(t)
	exports := NewExportService(ExportConfig{}, nil, env.projectRepo, env.taskRepo, env.commentRepo)
	if exports.Enabled() {
		t.Fatal("exports enabled without storage")
	}
	if _, err := exports.ExportProject(context.Background(), 1); !errors.Is(err, ErrExportsDisabled) {
		t.Fatalf("expected ErrExportsDisabled, got %v", err)
	}
	if err := exports.PurgeExports(context.Background(), 1); err != nil {
		t.Fatalf("purge should be a no-op, got %v", err)
	}
}
