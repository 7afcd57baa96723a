package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const testBucket = "taskboard"

// fakeS3 serves the subset of the path-style S3 API the service uses. Continuation
// tokens are the last key returned, as with real S3, so deleting while paging is safe.
type fakeS3 struct {
	mu        sync.Mutex
	pageSize  int
	objects   map[string]int64
	listCalls int
	deleted   []string
}

var deleteKeyPattern = regexp.MustCompile(`<Key>([^<]+)</Key>`)

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != testBucket {
		http.Error(w, "no such bucket", http.StatusNotFound)
		return
	}
	query := r.URL.Query()

	switch {
	case r.Method == http.MethodGet && query.Get("list-type") == "2":
		f.list(w, query.Get("prefix"), query.Get("continuation-token"))
	case r.Method == http.MethodPost && query.Has("delete"):
		body, _ := io.ReadAll(r.Body)
		for _, m := range deleteKeyPattern.FindAllSubmatch(body, -1) {
			k := string(m[1])
			delete(f.objects, k)
			f.deleted = append(f.deleted, k)
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = int64(len(body))
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "unsupported", http.StatusNotImplemented)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix, after string) {
	f.listCalls++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	truncated := len(keys) > f.pageSize
	if truncated {
		keys = keys[:f.pageSize]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>%t</IsTruncated>", testBucket, prefix, len(keys), truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%s</NextContinuationToken>", keys[len(keys)-1])
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2026-01-02T15:04:05.000Z</LastModified></Contents>", k, f.objects[k])
	}
	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, b.String())
}

func setupS3(t *testing.T, objects map[string]int64) (*fakeS3, *S3Service, string) {
	t.Helper()
	fake := &fakeS3{pageSize: 2, objects: objects}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
		}),
	})
	return fake, NewS3Service(client), srv.URL
}

func exportObjects() map[string]int64 {
	return map[string]int64{
		"exports/projects/1/a.json": 10,
		"exports/projects/1/b.json": 11,
		"exports/projects/1/c.json": 12,
		"exports/projects/1/d.json": 13,
		"exports/projects/1/e.json": 14,
		"exports/projects/2/a.json": 20,
	}
}

func TestS3ListObjectsFollowsPages(t *testing.T) {
	fake, svc, _ := setupS3(t, exportObjects())

	objects, err := svc.ListObjects(context.Background(), testBucket, "exports/projects/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 5 {
		t.Fatalf("listed %d objects, want 5", len(objects))
	}
	if objects[4].Key != "exports/projects/1/e.json" || objects[4].Size != 14 {
		t.Fatalf("unexpected last object %+v", objects[4])
	}
	if objects[0].LastModified == nil || objects[0].LastModified.Year() != 2026 {
		t.Fatalf("last modified not decoded: %+v", objects[0])
	}
	if fake.listCalls != 3 {
		t.Fatalf("list calls = %d, want 3 pages", fake.listCalls)
	}
}

func TestS3DeletePrefix(t *testing.T) {
	fake, svc, _ := setupS3(t, exportObjects())

	if err := svc.DeletePrefix(context.Background(), testBucket, "exports/projects/1/"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if len(fake.deleted) != 5 {
		t.Fatalf("deleted %v, want 5 keys", fake.deleted)
	}
	if _, ok := fake.objects["exports/projects/2/a.json"]; !ok || len(fake.objects) != 1 {
		t.Fatalf("remaining objects = %v", fake.objects)
	}

	if err := svc.DeletePrefix(context.Background(), testBucket, "  "); err == nil {
		t.Fatal("blank prefix must be rejected")
	}
}

func TestS3PutObject(t *testing.T) {
	fake, svc, _ := setupS3(t, map[string]int64{})

	loc, err := svc.PutObject(context.Background(), testBucket, "/exports/x.json", bytes.NewReader([]byte(`{"ok":true}`)), "application/json")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if loc != "s3://taskboard/exports/x.json" {
		t.Fatalf("location = %q", loc)
	}
	if _, ok := fake.objects["exports/x.json"]; !ok {
		t.Fatalf("object not stored: %v", fake.objects)
	}

	if _, err := svc.PutObject(context.Background(), "", "k", bytes.NewReader(nil), ""); err == nil {
		t.Fatal("missing bucket must be rejected")
	}
}

func TestS3GetObjectURL(t *testing.T) {
	_, svc, base := setupS3(t, map[string]int64{})

	url, err := svc.GetObjectURL(context.Background(), testBucket, "exports/x.json", time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, base+"/taskboard/exports/x.json?") || !strings.Contains(url, "X-Amz-Signature=") {
		t.Fatalf("unexpected presigned url %q", url)
	}
}
