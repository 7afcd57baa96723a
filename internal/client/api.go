package client

import (
	"context"
	"net/http"
	"time"
)

type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Task struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	ID            int64     `json:"id"`
	TaskID        int64     `json:"task_id"`
	Comment       string    `json:"comment"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedBy int64     `json:"last_updated_by"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type DeleteResult struct {
	Deleted  bool     `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session cookie kept by the client.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	body := map[string]string{"name": name, "description": description}
	var project Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, idPath("/api/projects/%s", id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject sends only the non-nil fields.
func (c *Client) UpdateProject(ctx context.Context, id int64, name, description *string) (*Project, error) {
	body := map[string]*string{}
	if name != nil {
		body["name"] = name
	}
	if description != nil {
		body["description"] = description
	}
	var project Project
	if err := c.do(ctx, http.MethodPatch, idPath("/api/projects/%s", id), body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int64) (*DeleteResult, error) {
	var res DeleteResult
	if err := c.do(ctx, http.MethodDelete, idPath("/api/projects/%s", id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, idPath("/api/projects/%s/tasks", projectID), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID int64, title, description string) (*Task, error) {
	body := map[string]string{"title": title, "description": description}
	var task Task
	if err := c.do(ctx, http.MethodPost, idPath("/api/projects/%s/tasks", projectID), body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, idPath("/api/tasks/%s", id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/tasks/%s", id), nil, nil)
}

func (c *Client) ListComments(ctx context.Context, taskID int64) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, idPath("/api/tasks/%s/comments", taskID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) AddComment(ctx context.Context, taskID int64, text string) (*Comment, error) {
	var comment Comment
	if err := c.do(ctx, http.MethodPost, idPath("/api/tasks/%s/comments", taskID), map[string]string{"comment": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) EditComment(ctx context.Context, id int64, text string) (*Comment, error) {
	var comment Comment
	if err := c.do(ctx, http.MethodPatch, idPath("/api/comments/%s", id), map[string]string{"comment": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/comments/%s", id), nil, nil)
}
