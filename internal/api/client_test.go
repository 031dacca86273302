package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(token string, rt roundTripFunc) *Client {
	c := New("http://api.test/api/v1", NewSession(token, ""))
	c.http = &http.Client{Transport: rt}
	return c
}

func TestBearerHeaderInjected(t *testing.T) {
	c := testClient("tok123", func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		return jsonResponse(200, `{"count":0,"next":null,"previous":null,"results":[]}`), nil
	})
	if _, err := c.ListProjects(context.Background(), ListOpts{}); err != nil {
		t.Fatalf("ListProjects returned error: %v", err)
	}
}

func TestNoBearerHeaderWhenGuest(t *testing.T) {
	c := testClient("", func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "" {
			t.Fatalf("unexpected auth header for guest: %q", req.Header.Get("Authorization"))
		}
		return jsonResponse(200, `{"status":"ok"}`), nil
	})
	if _, err := c.GetHealthStatus(context.Background()); err != nil {
		t.Fatalf("GetHealthStatus returned error: %v", err)
	}
}

func TestErrorDetailDecoded(t *testing.T) {
	c := testClient("tok", func(*http.Request) (*http.Response, error) {
		return jsonResponse(400, `{"detail":"integration is not active"}`), nil
	})
	_, err := c.StartSync(context.Background(), SyncNomenklatura, 7)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != 400 || apiErr.Detail != "integration is not active" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestErrorFieldsDecoded(t *testing.T) {
	c := testClient("tok", func(*http.Request) (*http.Response, error) {
		return jsonResponse(400, `{"name":["This field is required."],"inn":["Invalid INN."]}`), nil
	})
	_, err := c.CreateClient(context.Background(), ClientInput{})
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if len(apiErr.Fields["name"]) != 1 || apiErr.Fields["name"][0] != "This field is required." {
		t.Fatalf("unexpected fields: %+v", apiErr.Fields)
	}
	if !strings.Contains(apiErr.Error(), "inn") {
		t.Fatalf("expected inn in message, got %q", apiErr.Error())
	}
}

func TestUnauthorizedExpiresSessionOnce(t *testing.T) {
	c := testClient("tok", func(*http.Request) (*http.Response, error) {
		return jsonResponse(401, `{"detail":"token expired"}`), nil
	})
	events := 0
	c.Session().Subscribe(func(e AuthEvent) {
		if e == AuthExpired {
			events++
		}
	})

	for i := 0; i < 3; i++ {
		if _, err := c.ListProjects(context.Background(), ListOpts{}); !IsAuthError(err) {
			t.Fatalf("expected auth error, got %v", err)
		}
	}
	if events != 1 {
		t.Fatalf("expected exactly 1 AuthExpired event, got %d", events)
	}
	if c.Session().Authenticated() {
		t.Fatal("expected tokens cleared")
	}
}

func TestUnauthorizedGuestEmitsNothing(t *testing.T) {
	c := testClient("", func(*http.Request) (*http.Response, error) {
		return jsonResponse(403, `{"detail":"forbidden"}`), nil
	})
	events := 0
	c.Session().Subscribe(func(e AuthEvent) {
		if e == AuthExpired {
			events++
		}
	})
	if _, err := c.ListProjects(context.Background(), ListOpts{}); !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if events != 0 {
		t.Fatalf("guest 403 must not emit AuthExpired, got %d events", events)
	}
}

func TestConcurrentUnauthorizedSingleEvent(t *testing.T) {
	s := NewSession("tok", "ref")
	var mu sync.Mutex
	events := 0
	s.Subscribe(func(e AuthEvent) {
		if e == AuthExpired {
			mu.Lock()
			events++
			mu.Unlock()
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invalidate()
		}()
	}
	wg.Wait()
	if events != 1 {
		t.Fatalf("expected single AuthExpired across concurrent failures, got %d", events)
	}
}

func TestSetTokensResetsLatch(t *testing.T) {
	s := NewSession("tok", "")
	events := 0
	s.Subscribe(func(e AuthEvent) {
		if e == AuthExpired {
			events++
		}
	})
	s.Invalidate()
	s.SetTokens("new", "ref")
	s.Invalidate()
	if events != 2 {
		t.Fatalf("expected latch reset after SetTokens, got %d events", events)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ count, size, want int }{
		{45, 20, 3},
		{40, 20, 2},
		{0, 20, 0},
		{1, 20, 1},
		{20, 0, 0},
	}
	for _, c := range cases {
		if got := TotalPages(c.count, c.size); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.count, c.size, got, c.want)
		}
	}
}

func TestStartSyncReturnsTaskID(t *testing.T) {
	c := testClient("tok", func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.Method)
		}
		if req.URL.Path != "/api/v1/integration/sync/nomenklatura/7/" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(200, `{"task_id":"abc"}`), nil
	})
	id, err := c.StartSync(context.Background(), SyncNomenklatura, 7)
	if err != nil {
		t.Fatalf("StartSync returned error: %v", err)
	}
	if id != "abc" {
		t.Fatalf("expected task id abc, got %q", id)
	}
}

func TestSyncTaskStatusAndProgress(t *testing.T) {
	c := testClient("tok", func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/integration/sync/status/abc/" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(200, `{"task_id":"abc","status":"processing","processed_items":10,"total_items":100}`), nil
	})
	task, err := c.SyncTaskStatus(context.Background(), "abc")
	if err != nil {
		t.Fatalf("SyncTaskStatus returned error: %v", err)
	}
	if task.Status != StatusProcessing || task.Status.Terminal() {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if task.Progress() != 0.1 {
		t.Fatalf("expected progress 0.1, got %v", task.Progress())
	}
}

func TestSyncEndpointsAreSingleAttempt(t *testing.T) {
	// a failing trigger is terminal and a failing poll stops the chain;
	// the transport must not stretch either with retries
	c := testClient("tok", func(req *http.Request) (*http.Response, error) {
		if !retryDisabled(req.Context()) {
			t.Fatalf("%s not marked single-attempt", req.URL.Path)
		}
		return jsonResponse(200, `{"task_id":"abc"}`), nil
	})
	if _, err := c.StartSync(context.Background(), SyncClients, 3); err != nil {
		t.Fatalf("StartSync returned error: %v", err)
	}
	if _, err := c.SyncTaskStatus(context.Background(), "abc"); err != nil {
		t.Fatalf("SyncTaskStatus returned error: %v", err)
	}

	c = testClient("tok", func(req *http.Request) (*http.Response, error) {
		if retryDisabled(req.Context()) {
			t.Fatal("plain list request marked single-attempt")
		}
		return jsonResponse(200, `{"count":0,"next":null,"previous":null,"results":[]}`), nil
	})
	if _, err := c.ListProjects(context.Background(), ListOpts{}); err != nil {
		t.Fatalf("ListProjects returned error: %v", err)
	}
}

func TestProgressWithZeroTotal(t *testing.T) {
	task := SyncTask{Status: StatusFetching, ProcessedItems: 0, TotalItems: 0}
	if got := task.Progress(); got != 0 {
		t.Fatalf("expected 0 progress for empty task, got %v", got)
	}
}

func TestListParsesPaginationEnvelope(t *testing.T) {
	c := testClient("tok", func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "20" {
			t.Fatalf("unexpected query %v", q)
		}
		return jsonResponse(200, `{"count":45,"next":"http://api.test/api/v1/client/?page=3","previous":null,"results":[{"id":1,"name":"one"}]}`), nil
	})
	page, err := c.ListClients(context.Background(), ListOpts{Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if page.Count != 45 || len(page.Results) != 1 || page.Results[0].Name != "one" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if TotalPages(page.Count, 20) != 3 {
		t.Fatalf("expected 3 pages for count=45 size=20")
	}
}
