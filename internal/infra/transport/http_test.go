package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestHTTPClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.Write([]byte(`{"recipes": []}`))
	}))
	defer server.Close()

	c := NewHTTPClient(Options{Timeout: 5 * time.Second})
	defer c.Close()

	resp, err := c.Get(context.Background(), mustParse(t, server.URL+"/recipes.json"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"recipes": []}` {
		t.Errorf("body = %s", resp.Body)
	}

	health := c.GetHealth()
	if !health.Available || health.Requests != 1 || health.ErrorRate != 0 {
		t.Errorf("health = %+v", health)
	}
}

func TestHTTPClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer server.Close()

	c := NewHTTPClient(Options{Timeout: 5 * time.Second})
	resp, err := c.Get(context.Background(), mustParse(t, server.URL))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if c.GetHealth().Available {
		t.Error("transport should be marked unavailable after a failing request")
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewHTTPClient(Options{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), mustParse(t, server.URL))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestHTTPClient_WaitsForConnectivity(t *testing.T) {
	// Reserve a port, then close the listener so the first dials are refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})}
	defer srv.Close()

	go func() {
		time.Sleep(100 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		srv.Serve(ln)
	}()

	c := NewHTTPClient(Options{
		Timeout:             5 * time.Second,
		WaitForConnectivity: true,
		ProbeInterval:       20 * time.Millisecond,
	})
	resp, err := c.Get(context.Background(), mustParse(t, "http://"+addr+"/recipes.json"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(resp.Body) != "[]" {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestHTTPClient_NoWaitFailsFast(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewHTTPClient(Options{Timeout: 5 * time.Second})
	start := time.Now()
	_, err = c.Get(context.Background(), mustParse(t, "http://"+addr))
	if err == nil {
		t.Fatal("expected dial error")
	}
	if !isConnectivityError(err) {
		t.Errorf("error %v should be classified as connectivity", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("dial failure without wait should return promptly")
	}
}

func TestHTTPClient_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 1024
		if r.URL.Path == "/big" {
			size = 1025
		}
		w.Write(make([]byte, size))
	}))
	defer server.Close()

	c := NewHTTPClient(Options{Timeout: 5 * time.Second, MaxBodyBytes: 1024})
	defer c.Close()

	resp, err := c.Get(context.Background(), mustParse(t, server.URL+"/fits"))
	if err != nil {
		t.Fatalf("body at the limit failed: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("body length = %d, want 1024", len(resp.Body))
	}

	if _, err := c.Get(context.Background(), mustParse(t, server.URL+"/big")); !errors.Is(err, ErrUnreadableBody) {
		t.Errorf("oversized body error = %v, want ErrUnreadableBody", err)
	}
}
