package data

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type fakeObject struct {
	body        []byte
	contentType string
	expires     *time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.body)),
		ContentType: aws.String(obj.contentType),
		ETag:        aws.String(ETag(obj.body)),
		Expires:     obj.expires,
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = fakeObject{
		body:        body,
		contentType: aws.ToString(in.ContentType),
		expires:     in.Expires,
	}
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

var ignoreTimestamps = cmpopts.IgnoreFields(Document{}, "CreatedAt", "UpdatedAt")

func testStores(t *testing.T) map[string]Store {
	stores := map[string]Store{
		"memory": NewMemory(time.Hour),
		"s3":     NewS3(newFakeS3(), "bucket", "tides/"),
	}
	if os.Getenv("PGHOST") != "" {
		var cfg PostgresConfig
		cfg.Host = os.Getenv("PGHOST")
		cfg.Port = "5432"
		cfg.User = "postgres"
		cfg.Password = os.Getenv("PGPASSWORD")
		cfg.DBName = "tideserver_test"
		cfg.SSLMode = "disable"
		pg, err := OpenPostgres(cfg)
		if err != nil {
			t.Fatalf("failed to open postgres: %v", err)
		}
		stores["postgres"] = pg
	}
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	expires := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := "station/9413745/extrema/20200101/predicted-" + name

			if _, err := store.Get(ctx, path); !errors.Is(err, ErrNotFound) {
				t.Fatalf("got %v for missing document, want ErrNotFound", err)
			}

			doc := NewDocument(path, "application/json", []byte(`{"a":1}`), &expires)
			if err := store.Put(ctx, doc); err != nil {
				t.Fatalf("failed to put: %v", err)
			}
			got, err := store.Get(ctx, path)
			if err != nil {
				t.Fatalf("failed to get: %v", err)
			}
			if diff := cmp.Diff(got, doc, ignoreTimestamps); diff != "" {
				t.Errorf("stored document changed (-got,+want): %s", diff)
			}

			forever := NewDocument(path, "application/json", []byte(`{"a":2}`), nil)
			if err := store.Put(ctx, forever); err != nil {
				t.Fatalf("failed to overwrite: %v", err)
			}
			got, err = store.Get(ctx, path)
			if err != nil {
				t.Fatalf("failed to get: %v", err)
			}
			if diff := cmp.Diff(got, forever, ignoreTimestamps); diff != "" {
				t.Errorf("overwritten document wrong (-got,+want): %s", diff)
			}
		})
	}
}

func TestPutIfChanged(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "bucket", "")
	ctx := context.Background()

	doc := NewDocument("stations", "application/json", []byte(`{"Stations":[]}`), nil)
	for i, want := range []bool{true, false, false} {
		changed, err := PutIfChanged(ctx, store, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if changed != want {
			t.Errorf("call %d: got changed=%v, want %v", i, changed, want)
		}
	}

	changed, err := PutIfChanged(ctx, store, NewDocument("stations", "application/json", []byte(`{"Stations":[{}]}`), nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Errorf("changed document not written")
	}
	if fake.puts != 2 {
		t.Errorf("got %d puts, want 2", fake.puts)
	}
	if _, ok := fake.objects["bucket/stations"]; !ok {
		t.Errorf("object not written at bucket root")
	}
}

func TestDocumentFresh(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if !(&Document{}).Fresh(now) {
		t.Errorf("document without expiry should be fresh")
	}
	if (&Document{Expires: &past}).Fresh(now) {
		t.Errorf("expired document reported fresh")
	}
	if !(&Document{Expires: &future}).Fresh(now) {
		t.Errorf("unexpired document reported stale")
	}
}

func TestETag(t *testing.T) {
	// md5("") is well known.
	if got, want := ETag(nil), `"d41d8cd98f00b204e9800998ecf8427e"`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseS3URL(t *testing.T) {
	table := []struct {
		input      string
		bucket     string
		prefix     string
		shouldFail bool
	}{
		{input: "s3://tides", bucket: "tides"},
		{input: "s3://tides/", bucket: "tides"},
		{input: "s3://tides/cache", bucket: "tides", prefix: "cache/"},
		{input: "s3://tides/a/b/", bucket: "tides", prefix: "a/b/"},
		{input: "https://tides/a", shouldFail: true},
		{input: "s3:///a", shouldFail: true},
	}

	for _, test := range table {
		t.Run(test.input, func(t *testing.T) {
			bucket, prefix, err := ParseS3URL(test.input)
			if test.shouldFail {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != test.bucket || prefix != test.prefix {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, prefix, test.bucket, test.prefix)
			}
		})
	}
}

func TestMemoryCopiesBodies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	body := []byte(`{"a":1}`)
	if err := m.Put(ctx, NewDocument("a", "application/json", body, nil)); err != nil {
		t.Fatalf("failed to put: %v", err)
	}
	body[1] = 'X'

	got, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	got.Body[1] = 'Y'

	got, err = m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if diff := cmp.Diff(string(got.Body), `{"a":1}`); diff != "" {
		t.Errorf("stored body changed (-got,+want): %s", diff)
	}
}

func TestMemorySweep(t *testing.T) {
	m := NewMemory(-time.Second)
	m.Put(context.Background(), NewDocument("a", "text/plain", nil, nil))
	if n := m.Sweep(); n != 0 {
		t.Errorf("got %d documents after sweep, want 0", n)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Config{Type: "Memory", MemoryRetention: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*Memory); !ok {
		t.Errorf("got %T, want *Memory", store)
	}

	if _, err := Open(ctx, Config{Type: "redis"}); err == nil {
		t.Errorf("expected error for unknown store type")
	}
	if _, err := Open(ctx, Config{Type: "s3", S3Config: S3Config{URL: "http://bucket"}}); err == nil {
		t.Errorf("expected error for bad S3 URL")
	}
}
