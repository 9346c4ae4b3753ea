package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// FetchClients returns raw customer records from /clients
func (c *Client) FetchClients(ctx context.Context) ([]Record, error) {
	doc, err := c.do(ctx, request{op: "clients", method: http.MethodGet, path: "/clients", basicAuth: true})
	if err != nil {
		return nil, err
	}
	return records(doc), nil
}

// FetchDepartments returns raw branch records from /departments
func (c *Client) FetchDepartments(ctx context.Context) ([]Record, error) {
	doc, err := c.do(ctx, request{op: "departments", method: http.MethodGet, path: "/departments", basicAuth: true})
	if err != nil {
		return nil, err
	}
	return records(doc), nil
}

// FetchCollections returns raw collection records for every user; the
// caller filters by owner
func (c *Client) FetchCollections(ctx context.Context) ([]Record, error) {
	doc, err := c.do(ctx, request{op: "collections", method: http.MethodGet, path: "/collections/", basicAuth: true})
	if err != nil {
		return nil, err
	}
	return records(doc), nil
}

// CollectionForm is the multipart body of /collections/add/
type CollectionForm struct {
	UserID        string
	CreatedBy     string
	ClientName    string
	ClientPlace   string
	Department    string
	Amount        string
	PaymentMethod string
	Notes         string
	PaidFor       string
	CustomerID    string
	BranchID      string
	// ScreenshotPath is a local file; empty sends no file part
	ScreenshotPath string
}

// AddCollection posts a new collection and returns the decoded response
func (c *Client) AddCollection(ctx context.Context, form CollectionForm) (interface{}, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "collections_add", Err: err}
	}
	return c.do(ctx, request{
		op:          "collections_add",
		method:      http.MethodPost,
		path:        "/collections/add/",
		body:        body,
		contentType: contentType,
		basicAuth:   true,
	})
}

func (f CollectionForm) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"user_id", f.UserID},
		{"created_by", f.CreatedBy},
		{"client_name", f.ClientName},
		{"client_place", f.ClientPlace},
		{"department", f.Department},
		{"amount", f.Amount},
		{"payment_method", f.PaymentMethod},
		{"notes", f.Notes},
		{"paid_for", f.PaidFor},
		{"customer_id", f.CustomerID},
		{"branch_id", f.BranchID},
	}
	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	if f.ScreenshotPath != "" {
		file, err := os.Open(f.ScreenshotPath)
		if err != nil {
			return nil, "", fmt.Errorf("open screenshot: %w", err)
		}
		defer file.Close()

		part, err := w.CreateFormFile("payment_screenshot", filepath.Base(f.ScreenshotPath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("read screenshot: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// LoginResponse is the answer of /flutter/login/
type LoginResponse struct {
	Status string
	Name   string
}

// Login checks credentials. It sends no Authorization header.
func (c *Client) Login(ctx context.Context, userID, password string) (*LoginResponse, error) {
	payload, err := json.Marshal(map[string]string{"userid": userID, "password": password})
	if err != nil {
		return nil, err
	}
	doc, err := c.do(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/flutter/login/",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	obj, _ := doc.(map[string]interface{})
	rec := Record(obj)
	return &LoginResponse{
		Status: rec.First("status"),
		Name:   rec.First("name", "username", "employee_name"),
	}, nil
}

// CreateRequest posts a leave, late or early request. Credentials travel in
// the JSON body, as the /flutter endpoints expect.
func (c *Client) CreateRequest(ctx context.Context, kind string, payload map[string]interface{}) (Record, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	doc, err := c.do(ctx, request{
		op:          kind + "_create",
		method:      http.MethodPost,
		path:        "/flutter/" + kind + "/create/",
		body:        bytes.NewReader(body),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	obj, _ := doc.(map[string]interface{})
	return Record(obj), nil
}

// ListRequests lists the user's requests of one kind. status may be empty.
func (c *Client) ListRequests(ctx context.Context, kind, userID, password, status string) ([]Record, error) {
	q := url.Values{}
	q.Set("userid", userID)
	q.Set("password", password)
	if status != "" {
		q.Set("status", status)
	}
	doc, err := c.do(ctx, request{
		op:     kind + "_list",
		method: http.MethodGet,
		path:   "/flutter/" + kind + "/list/?" + q.Encode(),
	})
	if err != nil {
		return nil, err
	}
	return records(doc), nil
}
