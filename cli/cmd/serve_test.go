package cmd

import (
	"strings"
	"testing"

	"github.com/valyala/fasthttp"
)

func testServer(t *testing.T) *Serve {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "index.tpt", "home")
	writeFile(t, root, "hello.html.tpt", "<p>Hello, ${name}!</p>")
	writeFile(t, root, "data.json.tpt", `{"n": @eval(2 + 2)}`)
	writeFile(t, root, "broken.tpt", "a@nope(1)b")
	writeFile(t, root, "sub/index.tpt", "sub home")
	writeFile(t, t.TempDir(), "secret.tpt", "secret")

	s := &Serve{Root: root, Vars: Vars{Var: []string{"name=world"}}}
	if err := s.prepare(t.Context()); err != nil {
		t.Fatal(err)
	}

	return s
}

func request(s *Serve, method, uri string, header ...string) *fasthttp.RequestCtx {
	var rc fasthttp.RequestCtx

	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI(uri)

	for i := 0; i+1 < len(header); i += 2 {
		rc.Request.Header.Set(header[i], header[i+1])
	}

	s.handle(&rc)

	return &rc
}

func TestServe_Handle(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name       string
		method     string
		uri        string
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{"index", "GET", "/", 200, "home", defaultContentType},
		{"variable", "GET", "/hello.html.tpt", 200, "<p>Hello, world!</p>", "text/html; charset=utf-8"},
		{"query binds", "GET", "/hello.html.tpt?name=you", 200, "<p>Hello, you!</p>", ""},
		{"query name filtered", "GET", "/hello.html.tpt?bad-name=x", 200, "<p>Hello, world!</p>", ""},
		{"content type", "GET", "/data.json.tpt", 200, `{"n": 4}`, "application/json"},
		{"subdirectory", "GET", "/sub/", 200, "sub home", ""},
		{"head", "HEAD", "/", 200, "", ""},
		{"missing", "GET", "/nope.tpt", 404, "", ""},
		{"traversal", "GET", "/../secret.tpt", 404, "", ""},
		{"encoded traversal", "GET", "/%2e%2e/secret.tpt", 404, "", ""},
		{"method", "POST", "/", 405, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := request(s, tt.method, tt.uri)

			if got := rc.Response.StatusCode(); got != tt.wantStatus {
				t.Fatalf("status = %d, want %d", got, tt.wantStatus)
			}

			if tt.wantStatus != 200 {
				return
			}

			if got := string(rc.Response.Body()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}

			if ct := string(rc.Response.Header.ContentType()); tt.wantType != "" && !strings.HasPrefix(ct, tt.wantType) {
				t.Errorf("content type = %q, want %q", ct, tt.wantType)
			}
		})
	}
}

func TestServe_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{"DELETE", "POST", "PUT"} {
		rc := request(testServer(t), method, "/")

		if rc.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
			t.Errorf("%s: status %d", method, rc.Response.StatusCode())
		}

		if allow := string(rc.Response.Header.Peek("Allow")); allow != "GET, HEAD" {
			t.Errorf("%s: Allow = %q", method, allow)
		}
	}
}

func TestServe_TemplateErrors(t *testing.T) {
	rc := request(testServer(t), "GET", "/broken.tpt")

	if rc.Response.StatusCode() != 200 || string(rc.Response.Body()) != "ab" {
		t.Errorf("status %d body %q", rc.Response.StatusCode(), rc.Response.Body())
	}

	if got := string(rc.Response.Header.Peek("X-Template-Errors")); got != "1" {
		t.Errorf("X-Template-Errors = %q", got)
	}
}

func TestServe_ETag(t *testing.T) {
	s := testServer(t)

	first := request(s, "GET", "/hello.html.tpt")
	tag := string(first.Response.Header.Peek("ETag"))

	if tag == "" || tag != etag([]byte("<p>Hello, world!</p>")) {
		t.Fatalf("ETag = %q", tag)
	}

	cached := request(s, "GET", "/hello.html.tpt", "If-None-Match", `"other", `+tag)
	if cached.Response.StatusCode() != fasthttp.StatusNotModified {
		t.Errorf("status = %d, want 304", cached.Response.StatusCode())
	}

	changed := request(s, "GET", "/hello.html.tpt?name=else", "If-None-Match", tag)
	if changed.Response.StatusCode() != fasthttp.StatusOK {
		t.Errorf("status = %d, want 200 for changed output", changed.Response.StatusCode())
	}
}

func TestServe_Closing(t *testing.T) {
	s := testServer(t)
	s.closing.Set()

	if rc := request(s, "GET", "/"); rc.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rc.Response.StatusCode())
	}
}

func TestServe_RequestsIsolated(t *testing.T) {
	s := testServer(t)

	_ = request(s, "GET", "/hello.html.tpt?name=first")

	rc := request(s, "GET", "/hello.html.tpt")
	if got := string(rc.Response.Body()); got != "<p>Hello, world!</p>" {
		t.Errorf("query variable leaked between requests: %q", got)
	}
}

func TestMatchETag(t *testing.T) {
	tag := `"abc"`

	tests := map[string]bool{
		`"abc"`:      true,
		`W/"abc"`:    true,
		`*`:          true,
		`"x", "abc"`: true,
		`"x"`:        false,
		`"abcd"`:     false,
	}

	for header, want := range tests {
		if got := matchETag(header, tag); got != want {
			t.Errorf("matchETag(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"page.html.tpt": "text/html",
		"style.css.tpt": "text/css",
		"index.tpt":     defaultContentType,
		"notes":         defaultContentType,
	}

	for path, want := range tests {
		if got := contentType(path); !strings.HasPrefix(got, want) {
			t.Errorf("contentType(%q) = %q, want %q", path, got, want)
		}
	}
}
